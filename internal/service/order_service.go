package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"carrent/internal/model"
	"carrent/internal/repository"
	"carrent/pkg/logger"

	"k8s.io/apimachinery/pkg/util/rand"
)

// Operator 状态变更的操作人信息，写入状态日志
type Operator struct {
	ID   uint64
	Name string
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	QuoteID      string    `json:"quoteId" binding:"required"`
	UserID       uint64    `json:"-"`
	DriverName   string    `json:"driverName" binding:"required"`
	DriverIDCard string    `json:"driverIdCard" binding:"required"`
	DriverPhone  string    `json:"driverPhone" binding:"required"`
	StartTime    time.Time `json:"startTime" binding:"required"`
	EndTime      time.Time `json:"endTime" binding:"required"`
	VasIDs       []uint64  `json:"vasIds"`
}

// OrderService 订单生命周期服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	storeRepo   repository.StoreRepository
	quotes      repository.QuoteCache
	logger      *logger.Logger
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, storeRepo repository.StoreRepository, quotes repository.QuoteCache, log *logger.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		storeRepo:   storeRepo,
		quotes:      quotes,
		logger:      log,
	}
}

// CreateOrder 消费报价并创建订单。报价通过GETDEL取出，
// 同一报价并发下单时只有一个请求能创建成功。
func (s *OrderService) CreateOrder(ctx context.Context, tenantID uint64, req *CreateOrderRequest) (*model.Order, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	quote, err := s.quotes.Consume(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		s.logger.Warn("报价已过期或已被消费", "tenantId", tenantID, "quoteId", req.QuoteID)
		return nil, ErrQuoteExpired
	}
	if quote.TenantID != tenantID {
		s.logger.Warn("报价不属于当前租户", "tenantId", tenantID, "quoteId", req.QuoteID)
		return nil, ErrInvalidQuote
	}
	if !req.StartTime.Equal(quote.StartTime) {
		s.logger.Warn("下单时间与报价不一致", "tenantId", tenantID, "quoteId", req.QuoteID)
		return nil, ErrInvalidQuote
	}

	days := rentalDays(req.StartTime, req.EndTime)
	basicRentalFee := quote.DailyRate * days
	serviceFee := quote.PickupFee + quote.ReturnFee + quote.StoreFee

	insuranceFee := quote.BaseProtectionPrice
	if len(req.VasIDs) > 0 {
		services, err := s.storeRepo.GetVasByIDs(ctx, tenantID, req.VasIDs)
		if err != nil {
			return nil, err
		}
		if len(services) != len(req.VasIDs) {
			return nil, NewValidationError("存在无效的增值服务")
		}
		for _, vas := range services {
			insuranceFee += vas.Price
		}
	}

	now := time.Now()
	order := &model.Order{
		TenantID:         tenantID,
		OrderNo:          GenerateOrderNo(),
		UserID:           req.UserID,
		DriverName:       req.DriverName,
		DriverIDCard:     req.DriverIDCard,
		DriverPhone:      req.DriverPhone,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		ProductID:        quote.ProductID,
		ModelID:          quote.ModelID,
		StoreID:          quote.StoreID,
		PickupType:       quote.DeliveryType,
		ReturnType:       quote.DeliveryType,
		BasicRentalFee:   basicRentalFee,
		ServiceFee:       serviceFee,
		InsuranceFee:     insuranceFee,
		TotalAmount:      basicRentalFee + serviceFee + insuranceFee,
		DamageDeposit:    quote.DamageDeposit,
		ViolationDeposit: quote.ViolationDeposit,
		Status:           model.OrderStatusCreated,
		Version:          0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	log := &model.OrderStatusLog{
		NewStatus:    string(model.OrderStatusCreated),
		ChangeReason: "创建订单",
		OperatorID:   req.UserID,
		OperatorName: req.DriverName,
		ChangeTime:   now,
	}

	if err := s.orderRepo.CreateWithLog(ctx, order, log); err != nil {
		s.logger.Error("创建订单失败", "tenantId", tenantID, "quoteId", req.QuoteID, "error", err)
		return nil, err
	}
	s.logger.Info("订单创建成功", "tenantId", tenantID, "orderNo", order.OrderNo, "totalAmount", order.TotalAmount)
	return order, nil
}

// Cancel 取消订单，仅允许在未产生履约的状态下取消
func (s *OrderService) Cancel(ctx context.Context, tenantID, orderID uint64, reason string, op Operator) (*model.Order, error) {
	order, err := s.getOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Cancellable() {
		s.logger.Warn("当前状态不允许取消", "orderNo", order.OrderNo, "status", order.Status)
		return nil, ErrIllegalTransition
	}
	mutate := func(o *model.Order) {
		o.CancelTime = sql.NullTime{Time: time.Now(), Valid: true}
	}
	if reason == "" {
		reason = "用户取消"
	}
	return s.transition(ctx, order, model.OrderStatusCancelled, reason, op, mutate)
}

// AssignPickupDriver 指派取车司机
func (s *OrderService) AssignPickupDriver(ctx context.Context, tenantID, orderID uint64, driver string, op Operator) (*model.Order, error) {
	if driver == "" {
		return nil, NewValidationError("司机姓名不能为空")
	}
	order, err := s.getOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	mutate := func(o *model.Order) {
		o.PickupDriver = sql.NullString{String: driver, Valid: true}
	}
	return s.transition(ctx, order, model.OrderStatusPickupAssigned, "指派取车司机: "+driver, op, mutate)
}

// ConfirmPickup 确认取车，记录实际取车时间和车牌号
func (s *OrderService) ConfirmPickup(ctx context.Context, tenantID, orderID uint64, licensePlate string, op Operator) (*model.Order, error) {
	if licensePlate == "" {
		return nil, NewValidationError("车牌号不能为空")
	}
	order, err := s.getOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	mutate := func(o *model.Order) {
		o.ActualPickupTime = sql.NullTime{Time: time.Now(), Valid: true}
		o.LicensePlate = sql.NullString{String: licensePlate, Valid: true}
	}
	return s.transition(ctx, order, model.OrderStatusInUse, "确认取车", op, mutate)
}

// AssignReturnDriver 指派还车司机
func (s *OrderService) AssignReturnDriver(ctx context.Context, tenantID, orderID uint64, driver string, op Operator) (*model.Order, error) {
	if driver == "" {
		return nil, NewValidationError("司机姓名不能为空")
	}
	order, err := s.getOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	mutate := func(o *model.Order) {
		o.ReturnDriver = sql.NullString{String: driver, Valid: true}
	}
	return s.transition(ctx, order, model.OrderStatusReturnAssigned, "指派还车司机: "+driver, op, mutate)
}

// ConfirmReturn 确认还车，记录实际还车时间
func (s *OrderService) ConfirmReturn(ctx context.Context, tenantID, orderID uint64, op Operator) (*model.Order, error) {
	order, err := s.getOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	mutate := func(o *model.Order) {
		o.ActualReturnTime = sql.NullTime{Time: time.Now(), Valid: true}
	}
	return s.transition(ctx, order, model.OrderStatusReturned, "确认还车", op, mutate)
}

// Settle 结算完成订单。存在未完结的支付时不允许结算。
func (s *OrderService) Settle(ctx context.Context, tenantID, orderID uint64, op Operator) (*model.Order, error) {
	order, err := s.getOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	records, err := s.paymentRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.PaymentStatus == model.PaymentStatusPending {
			s.logger.Warn("存在未完结的支付，拒绝结算", "orderNo", order.OrderNo, "paymentNo", record.PaymentNo)
			return nil, ErrOutstandingCharge
		}
	}
	return s.transition(ctx, order, model.OrderStatusCompleted, "订单结算完成", op, nil)
}

// TryMarkFunded 在租金和押金均有支付成功记录且标记齐备后，
// 推进订单到已支付状态。
// CAS失败后重读，若订单已是已支付则视为另一路支付回调已完成推进。
func (s *OrderService) TryMarkFunded(ctx context.Context, tenantID, orderID uint64) error {
	for attempt := 0; attempt < 3; attempt++ {
		order, err := s.getOrder(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order.Status != model.OrderStatusCreated {
			return nil
		}
		if !order.RentalFeePaid || !order.DepositPaid {
			return nil
		}
		rentalPaid, err := s.paymentRepo.HasSuccess(ctx, order.ID, model.PaymentTypeRentalFee)
		if err != nil {
			return err
		}
		depositPaid, err := s.paymentRepo.HasSuccess(ctx, order.ID, model.PaymentTypeDeposit)
		if err != nil {
			return err
		}
		if !rentalPaid || !depositPaid {
			return nil
		}
		log := &model.OrderStatusLog{
			OrderID:      order.ID,
			OldStatus:    sql.NullString{String: string(model.OrderStatusCreated), Valid: true},
			NewStatus:    string(model.OrderStatusFunded),
			ChangeReason: "支付完成",
			ChangeTime:   time.Now(),
		}
		version := order.Version
		order.Status = model.OrderStatusFunded
		ok, err := s.orderRepo.TransitionWithLog(ctx, order, model.OrderStatusCreated, version, log)
		if err != nil {
			return err
		}
		if ok {
			s.logger.Info("订单进入已支付状态", "tenantId", tenantID, "orderNo", order.OrderNo)
			return nil
		}
	}
	return ErrConcurrentModification
}

// GetOrderDetail 获取订单详情
func (s *OrderService) GetOrderDetail(ctx context.Context, tenantID, orderID uint64) (*model.Order, error) {
	return s.getOrder(ctx, tenantID, orderID)
}

// GetByOrderNo 根据订单号获取订单
func (s *OrderService) GetByOrderNo(ctx context.Context, tenantID uint64, orderNo string) (*model.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, tenantID, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListByTenant 分页查询租户订单
func (s *OrderService) ListByTenant(ctx context.Context, tenantID uint64, q repository.OrderQuery) (*model.PaginatedOrders, error) {
	clampQuery(&q)
	records, total, err := s.orderRepo.ListByTenant(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	return &model.PaginatedOrders{Records: records, Total: total, Current: q.Page, Size: q.PageSize}, nil
}

// ListByUser 分页查询用户订单
func (s *OrderService) ListByUser(ctx context.Context, tenantID, userID uint64, q repository.OrderQuery) (*model.PaginatedOrders, error) {
	clampQuery(&q)
	records, total, err := s.orderRepo.ListByUser(ctx, tenantID, userID, q)
	if err != nil {
		return nil, err
	}
	return &model.PaginatedOrders{Records: records, Total: total, Current: q.Page, Size: q.PageSize}, nil
}

// GetStatusLogs 获取订单状态变更历史
func (s *OrderService) GetStatusLogs(ctx context.Context, tenantID, orderID uint64) ([]model.OrderStatusLog, error) {
	order, err := s.getOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.ListStatusLogs(ctx, order.ID)
}

func (s *OrderService) getOrder(ctx context.Context, tenantID, orderID uint64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// transition 执行一次带乐观锁的状态迁移。迁移不合法时订单不发生任何变化，
// 版本竞争失败返回并发冲突错误，由调用方决定是否重试。
func (s *OrderService) transition(ctx context.Context, order *model.Order, to model.OrderStatus, reason string, op Operator, mutate func(*model.Order)) (*model.Order, error) {
	from := order.Status
	if !model.CanTransition(from, to) {
		s.logger.Warn("不允许的状态迁移", "orderNo", order.OrderNo, "from", from, "to", to)
		return nil, ErrIllegalTransition
	}
	version := order.Version
	order.Status = to
	if mutate != nil {
		mutate(order)
	}
	log := &model.OrderStatusLog{
		OrderID:      order.ID,
		OldStatus:    sql.NullString{String: string(from), Valid: true},
		NewStatus:    string(to),
		ChangeReason: reason,
		OperatorID:   op.ID,
		OperatorName: op.Name,
		ChangeTime:   time.Now(),
	}
	ok, err := s.orderRepo.TransitionWithLog(ctx, order, from, version, log)
	if err != nil {
		s.logger.Error("订单状态迁移失败", "orderNo", order.OrderNo, "from", from, "to", to, "error", err)
		return nil, err
	}
	if !ok {
		s.logger.Warn("订单版本竞争失败", "orderNo", order.OrderNo, "from", from, "to", to)
		return nil, ErrConcurrentModification
	}
	s.logger.Info("订单状态迁移", "orderNo", order.OrderNo, "from", from, "to", to, "operator", op.Name)
	return order, nil
}

func validateCreateOrder(req *CreateOrderRequest) error {
	var fields []string
	if req.QuoteID == "" {
		fields = append(fields, "报价ID不能为空")
	}
	if req.DriverName == "" {
		fields = append(fields, "驾驶人姓名不能为空")
	}
	if req.DriverIDCard == "" {
		fields = append(fields, "驾驶人证件号不能为空")
	}
	if req.DriverPhone == "" {
		fields = append(fields, "驾驶人手机号不能为空")
	}
	if !req.EndTime.After(req.StartTime) {
		fields = append(fields, "还车时间必须晚于取车时间")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// rentalDays 按起止时间计算租期天数，不足一天按一天计
func rentalDays(start, end time.Time) int64 {
	d := end.Sub(start)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

func clampQuery(q *repository.OrderQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if q.PageSize > 50 {
		q.PageSize = 50
	}
}

// GenerateOrderNo 生成订单号: RO + 时间戳 + 随机后缀
func GenerateOrderNo() string {
	return fmt.Sprintf("RO%s%s", time.Now().Format("20060102150405"), rand.String(8))
}
