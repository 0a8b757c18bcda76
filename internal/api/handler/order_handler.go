package handler

import (
	"strconv"

	"carrent/internal/constants"
	"carrent/internal/repository"
	"carrent/internal/service"
	"carrent/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	orderService *service.OrderService
	logger       *logger.Logger
}

// NewOrderHandler 创建订单处理器实例
func NewOrderHandler(orderService *service.OrderService, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// orderActionRequest 针对单个订单的操作请求
type orderActionRequest struct {
	OrderID      uint64 `json:"orderId" binding:"required"`
	Driver       string `json:"driver"`
	LicensePlate string `json:"licensePlate"`
	Reason       string `json:"reason"`
}

// CreateOrder 创建订单
// @Summary 创建订单
// @Description 消费报价并创建订单，报价过期或被占用时返回410
// @Tags 订单
// @Accept json
// @Produce json
// @Router /api/v1/orders/create [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return
	}
	req.UserID = userID(c)

	order, err := h.orderService.CreateOrder(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessCreate, order)
}

// GetOrderDetail 获取订单详情，支持按订单ID或订单号查询
func (h *OrderHandler) GetOrderDetail(c *gin.Context) {
	if orderNo := c.Query("order_no"); orderNo != "" {
		order, err := h.orderService.GetByOrderNo(c.Request.Context(), tenantID(c), orderNo)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		respond(c, 200, constants.SuccessGet, order)
		return
	}
	orderID, ok := queryID(c, "order_id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderDetail(c.Request.Context(), tenantID(c), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessGet, order)
}

// ListOrders 租户维度的订单分页列表
// @Summary 订单列表
// @Description 按订单号前缀和状态筛选，支持分页
// @Tags 订单
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	q := parseOrderQuery(c)
	result, err := h.orderService.ListByTenant(c.Request.Context(), tenantID(c), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessGet, result)
}

// ListUserOrders 用户维度的订单分页列表
func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	uid, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil || uid == 0 {
		uid = userID(c)
	}
	q := parseOrderQuery(c)
	result, err := h.orderService.ListByUser(c.Request.Context(), tenantID(c), uid, q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessGet, result)
}

// CancelOrder 取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	order, err := h.orderService.Cancel(c.Request.Context(), tenantID(c), req.OrderID, req.Reason, operator(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessCancel, order)
}

// AssignPickupDriver 指派取车司机
func (h *OrderHandler) AssignPickupDriver(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	order, err := h.orderService.AssignPickupDriver(c.Request.Context(), tenantID(c), req.OrderID, req.Driver, operator(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessUpdate, order)
}

// ConfirmPickup 确认取车，登记车牌并记录实际取车时间
func (h *OrderHandler) ConfirmPickup(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	order, err := h.orderService.ConfirmPickup(c.Request.Context(), tenantID(c), req.OrderID, req.LicensePlate, operator(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessUpdate, order)
}

// AssignReturnDriver 指派还车司机
func (h *OrderHandler) AssignReturnDriver(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	order, err := h.orderService.AssignReturnDriver(c.Request.Context(), tenantID(c), req.OrderID, req.Driver, operator(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessUpdate, order)
}

// ConfirmReturn 确认还车
func (h *OrderHandler) ConfirmReturn(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	order, err := h.orderService.ConfirmReturn(c.Request.Context(), tenantID(c), req.OrderID, operator(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessUpdate, order)
}

// SettleOrder 结算完成订单
func (h *OrderHandler) SettleOrder(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	order, err := h.orderService.Settle(c.Request.Context(), tenantID(c), req.OrderID, operator(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessUpdate, order)
}

// GetStatusLogs 获取订单状态变更历史
func (h *OrderHandler) GetStatusLogs(c *gin.Context) {
	orderID, ok := queryID(c, "order_id")
	if !ok {
		return
	}
	logs, err := h.orderService.GetStatusLogs(c.Request.Context(), tenantID(c), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessGet, logs)
}

func bindAction(c *gin.Context) (*orderActionRequest, bool) {
	var req orderActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return nil, false
	}
	return &req, true
}

func parseOrderQuery(c *gin.Context) repository.OrderQuery {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return repository.OrderQuery{
		OrderNo:  c.Query("order_no"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: size,
	}
}

// queryID 解析查询参数中的数字ID，非法时直接写出参数错误响应
func queryID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || id == 0 {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return 0, false
	}
	return id, true
}

func operator(c *gin.Context) service.Operator {
	return service.Operator{
		ID:   userID(c),
		Name: c.GetHeader("X-Operator-Name"),
	}
}
