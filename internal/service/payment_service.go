package service

import (
	"context"
	"fmt"
	"time"

	"carrent/internal/model"
	"carrent/internal/repository"
	"carrent/pkg/logger"

	"k8s.io/apimachinery/pkg/util/rand"
)

// InitiatePaymentRequest 发起支付请求
type InitiatePaymentRequest struct {
	OrderID       uint64 `json:"orderId" binding:"required"`
	PaymentType   string `json:"paymentType" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
	Amount        int64  `json:"amount"`
}

// PaymentCallbackRequest 支付渠道回调
type PaymentCallbackRequest struct {
	PaymentNo         string `json:"paymentNo" binding:"required"`
	Result            string `json:"result" binding:"required"`
	ThirdPartyTradeNo string `json:"thirdPartyTradeNo"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	PaymentNo string `json:"paymentNo" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
	Reason    string `json:"reason"`
}

// PaymentService 支付协调服务
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	orders      *OrderService
	logger      *logger.Logger
}

// NewPaymentService 创建支付服务
func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository, orders *OrderService, log *logger.Logger) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		orders:      orders,
		logger:      log,
	}
}

// InitiatePayment 为订单发起一笔支付。租金和押金的金额由订单决定，
// 请求携带金额时必须与订单一致。已存在同类型的待支付记录时直接复用，
// 避免重复下单产生多笔支付。
func (s *PaymentService) InitiatePayment(ctx context.Context, tenantID uint64, req *InitiatePaymentRequest) (*model.PaymentRecord, error) {
	order, err := s.orderRepo.GetByID(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	var amount int64
	switch req.PaymentType {
	case model.PaymentTypeRentalFee:
		amount = order.TotalAmount
	case model.PaymentTypeDeposit:
		amount = order.DamageDeposit + order.ViolationDeposit
	case model.PaymentTypeViolationFee, model.PaymentTypeOther:
		if req.Amount <= 0 {
			return nil, ErrInvalidAmount
		}
		amount = req.Amount
	default:
		return nil, NewValidationError("不支持的支付类型")
	}
	if req.Amount != 0 && req.Amount != amount {
		s.logger.Warn("支付金额与订单不一致", "orderNo", order.OrderNo, "paymentType", req.PaymentType, "amount", req.Amount, "expected", amount)
		return nil, ErrInvalidAmount
	}

	if req.PaymentType == model.PaymentTypeRentalFee || req.PaymentType == model.PaymentTypeDeposit {
		paid, err := s.paymentRepo.HasSuccess(ctx, order.ID, req.PaymentType)
		if err != nil {
			return nil, err
		}
		if paid {
			s.logger.Warn("该类型费用已支付", "orderNo", order.OrderNo, "paymentType", req.PaymentType)
			return nil, ErrAlreadyPaid
		}
		pending, err := s.paymentRepo.GetPendingByOrderAndType(ctx, order.ID, req.PaymentType)
		if err != nil {
			return nil, err
		}
		if pending != nil {
			return pending, nil
		}
	}

	now := time.Now()
	record := &model.PaymentRecord{
		PaymentNo:     GeneratePaymentNo(),
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		TenantID:      tenantID,
		PaymentType:   req.PaymentType,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
		PaymentAmount: amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.paymentRepo.Create(ctx, record); err != nil {
		s.logger.Error("创建支付记录失败", "orderNo", order.OrderNo, "paymentType", req.PaymentType, "error", err)
		return nil, err
	}
	s.logger.Info("发起支付", "orderNo", order.OrderNo, "paymentNo", record.PaymentNo, "amount", amount)
	return record, nil
}

// HandleCallback 处理支付渠道回调。结果登记用条件更新实现幂等，
// 重复回调直接返回已登记的记录，不会重复推进订单状态。
func (s *PaymentService) HandleCallback(ctx context.Context, req *PaymentCallbackRequest) (*model.PaymentRecord, error) {
	record, err := s.paymentRepo.GetByPaymentNo(ctx, req.PaymentNo)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrPaymentNotFound
	}

	status := model.PaymentStatusFailed
	if req.Result == "SUCCESS" {
		status = model.PaymentStatusSuccess
	}

	now := time.Now()
	applied, err := s.paymentRepo.MarkOutcome(ctx, req.PaymentNo, status, req.ThirdPartyTradeNo, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		stored, err := s.paymentRepo.GetByPaymentNo(ctx, req.PaymentNo)
		if err != nil {
			return nil, err
		}
		// 结果已登记但上一次推进订单可能中途失败，重新推进使重投自愈
		if stored != nil && stored.PaymentStatus == model.PaymentStatusSuccess {
			if err := s.applyPaymentSuccess(ctx, stored); err != nil {
				s.logger.Error("重复回调推进订单失败", "paymentNo", stored.PaymentNo, "orderNo", stored.OrderNo, "error", err)
				return nil, err
			}
		}
		s.logger.Info("支付回调重复，结果保持不变", "paymentNo", req.PaymentNo, "result", req.Result)
		return stored, nil
	}

	if status == model.PaymentStatusSuccess {
		if err := s.applyPaymentSuccess(ctx, record); err != nil {
			s.logger.Error("支付成功后推进订单失败", "paymentNo", record.PaymentNo, "orderNo", record.OrderNo, "error", err)
			return nil, err
		}
	}

	s.logger.Info("支付回调处理完成", "paymentNo", req.PaymentNo, "status", status)
	return s.paymentRepo.GetByPaymentNo(ctx, req.PaymentNo)
}

// applyPaymentSuccess 登记支付标记并尝试推进订单到已支付状态。
// 租金与押金回调到达顺序不确定，标记置位可交换，两种顺序结果一致。
func (s *PaymentService) applyPaymentSuccess(ctx context.Context, record *model.PaymentRecord) error {
	if record.PaymentType != model.PaymentTypeRentalFee && record.PaymentType != model.PaymentTypeDeposit {
		return nil
	}
	if err := s.orderRepo.SetPaymentFlag(ctx, record.OrderID, record.PaymentType); err != nil {
		return err
	}
	return s.orders.TryMarkFunded(ctx, record.TenantID, record.OrderID)
}

// HandlePaymentSuccess 支付侧成功通知，按订单和支付类型推进订单。
// 与回调走同一条置位加CAS路径，重复通知是无害的。
func (s *PaymentService) HandlePaymentSuccess(ctx context.Context, tenantID, orderID uint64, paymentType string) error {
	if paymentType != model.PaymentTypeRentalFee && paymentType != model.PaymentTypeDeposit {
		return NewValidationError("不支持的支付类型")
	}
	order, err := s.orderRepo.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if err := s.orderRepo.SetPaymentFlag(ctx, order.ID, paymentType); err != nil {
		return err
	}
	return s.orders.TryMarkFunded(ctx, tenantID, order.ID)
}

// Refund 对已成功的支付执行退款，退款金额不得超过实付金额
func (s *PaymentService) Refund(ctx context.Context, tenantID uint64, req *RefundRequest) (*model.PaymentRecord, error) {
	record, err := s.paymentRepo.GetByPaymentNo(ctx, req.PaymentNo)
	if err != nil {
		return nil, err
	}
	if record == nil || record.TenantID != tenantID {
		return nil, ErrPaymentNotFound
	}
	if record.PaymentStatus != model.PaymentStatusSuccess {
		s.logger.Warn("当前状态不允许退款", "paymentNo", req.PaymentNo, "status", record.PaymentStatus)
		return nil, ErrRefundNotAllowed
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Amount > record.PaymentAmount {
		s.logger.Warn("退款金额超过实付金额", "paymentNo", req.PaymentNo, "amount", req.Amount, "paid", record.PaymentAmount)
		return nil, ErrRefundExceeded
	}

	applied, err := s.paymentRepo.MarkRefunded(ctx, req.PaymentNo, req.Amount, req.Reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrRefundNotAllowed
	}
	s.logger.Info("退款完成", "paymentNo", req.PaymentNo, "amount", req.Amount)
	return s.paymentRepo.GetByPaymentNo(ctx, req.PaymentNo)
}

// ListByOrder 查询订单下的支付记录
func (s *PaymentService) ListByOrder(ctx context.Context, tenantID, orderID uint64) ([]model.PaymentRecord, error) {
	order, err := s.orderRepo.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.paymentRepo.ListByOrderID(ctx, order.ID)
}

// GetByPaymentNo 按支付单号查询支付记录
func (s *PaymentService) GetByPaymentNo(ctx context.Context, tenantID uint64, paymentNo string) (*model.PaymentRecord, error) {
	record, err := s.paymentRepo.GetByPaymentNo(ctx, paymentNo)
	if err != nil {
		return nil, err
	}
	if record == nil || record.TenantID != tenantID {
		return nil, ErrPaymentNotFound
	}
	return record, nil
}

// CloseExpiredPayments 关闭超时未支付的记录，由定时任务调用
func (s *PaymentService) CloseExpiredPayments(ctx context.Context, before time.Time, limit int) (int, error) {
	records, err := s.paymentRepo.ListExpiredPending(ctx, before, limit)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, record := range records {
		applied, err := s.paymentRepo.MarkOutcome(ctx, record.PaymentNo, model.PaymentStatusFailed, "", time.Now())
		if err != nil {
			s.logger.Error("关闭超时支付失败", "paymentNo", record.PaymentNo, "error", err)
			continue
		}
		if applied {
			closed++
			s.logger.Info("超时支付已关闭", "paymentNo", record.PaymentNo, "orderNo", record.OrderNo)
		}
	}
	return closed, nil
}

// GeneratePaymentNo 生成支付单号: PY + 时间戳 + 随机后缀
func GeneratePaymentNo() string {
	return fmt.Sprintf("PY%s%s", time.Now().Format("20060102150405"), rand.String(8))
}
