package repository

import (
	"context"
	"time"

	"carrent/internal/model"
)

// OrderQuery 订单列表查询条件
type OrderQuery struct {
	OrderNo  string // 订单号精确或前缀匹配
	Status   string
	Page     int
	PageSize int
}

// OrderRepository 订单存储接口。
// 状态变更与状态日志必须在同一事务内落库，两者要么同时成功要么同时失败。
type OrderRepository interface {
	CreateWithLog(ctx context.Context, order *model.Order, log *model.OrderStatusLog) error
	GetByID(ctx context.Context, tenantID, orderID uint64) (*model.Order, error)
	GetByOrderNo(ctx context.Context, tenantID uint64, orderNo string) (*model.Order, error)
	// TransitionWithLog 以乐观锁方式更新订单并写入状态日志，
	// 版本不匹配时返回false且不产生任何写入。
	TransitionWithLog(ctx context.Context, order *model.Order, from model.OrderStatus, version int64, log *model.OrderStatusLog) (bool, error)
	SetPaymentFlag(ctx context.Context, orderID uint64, paymentType string) error
	ListByTenant(ctx context.Context, tenantID uint64, q OrderQuery) ([]model.Order, int64, error)
	ListByUser(ctx context.Context, tenantID, userID uint64, q OrderQuery) ([]model.Order, int64, error)
	ListStatusLogs(ctx context.Context, orderID uint64) ([]model.OrderStatusLog, error)
}

// PaymentRepository 支付记录存储接口
type PaymentRepository interface {
	Create(ctx context.Context, p *model.PaymentRecord) error
	GetByPaymentNo(ctx context.Context, paymentNo string) (*model.PaymentRecord, error)
	// MarkOutcome 将待支付记录置为最终态，条件更新保证幂等：
	// 记录已不是PENDING时返回false且不产生写入。
	MarkOutcome(ctx context.Context, paymentNo, status, tradeNo string, paidAt time.Time) (bool, error)
	// MarkRefunded 仅对SUCCESS记录生效
	MarkRefunded(ctx context.Context, paymentNo string, amount int64, reason string, refundTime time.Time) (bool, error)
	ListByOrderID(ctx context.Context, orderID uint64) ([]model.PaymentRecord, error)
	GetPendingByOrderAndType(ctx context.Context, orderID uint64, paymentType string) (*model.PaymentRecord, error)
	HasSuccess(ctx context.Context, orderID uint64, paymentType string) (bool, error)
	ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]model.PaymentRecord, error)
}

// StoreRepository 门店与车型目录存储接口
type StoreRepository interface {
	GetActiveStores(ctx context.Context, tenantID uint64) ([]model.Store, error)
	GetActiveModelsByStore(ctx context.Context, storeID uint64) ([]model.VehicleModel, error)
	GetVasByIDs(ctx context.Context, tenantID uint64, ids []uint64) ([]model.ValueAddedService, error)
}

// QuoteCache 报价缓存接口。
// Consume 必须是原子的取出并删除，保证同一报价最多创建一个订单。
type QuoteCache interface {
	Save(ctx context.Context, q *model.Quote, ttl time.Duration) error
	Get(ctx context.Context, quoteID string) (*model.Quote, error)
	Consume(ctx context.Context, quoteID string) (*model.Quote, error)
}
