package handler

import (
	"carrent/internal/constants"
	"carrent/internal/service"
	"carrent/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentHandler 支付处理器
type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *logger.Logger
}

// NewPaymentHandler 创建支付处理器实例
func NewPaymentHandler(paymentService *service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// InitiatePayment 发起支付
// @Summary 发起支付
// @Description 为订单创建一笔支付，租金和押金金额由订单决定
// @Tags 支付
// @Router /api/v1/payments [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req service.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return
	}
	record, err := h.paymentService.InitiatePayment(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessCreate, record)
}

// HandleCallback 支付渠道回调，幂等
func (h *PaymentHandler) HandleCallback(c *gin.Context) {
	var req service.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return
	}
	record, err := h.paymentService.HandleCallback(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessUpdate, record)
}

// HandlePaymentSuccess 支付侧成功通知，按订单和支付类型推进订单
func (h *PaymentHandler) HandlePaymentSuccess(c *gin.Context) {
	var req struct {
		OrderID     uint64 `json:"orderId" binding:"required"`
		PaymentType string `json:"paymentType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return
	}
	if err := h.paymentService.HandlePaymentSuccess(c.Request.Context(), tenantID(c), req.OrderID, req.PaymentType); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessUpdate, true)
}

// Refund 退款
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req service.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return
	}
	record, err := h.paymentService.Refund(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessUpdate, record)
}

// ListOrderPayments 查询订单下的支付记录
func (h *PaymentHandler) ListOrderPayments(c *gin.Context) {
	orderID, ok := queryID(c, "order_id")
	if !ok {
		return
	}
	records, err := h.paymentService.ListByOrder(c.Request.Context(), tenantID(c), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessGet, records)
}

// GetPayment 按支付单号查询支付记录
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentNo := c.Query("payment_no")
	if paymentNo == "" {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return
	}
	record, err := h.paymentService.GetByPaymentNo(c.Request.Context(), tenantID(c), paymentNo)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessGet, record)
}
