package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"carrent/internal/model"
	"carrent/internal/repository"
)

// fakeOrderRepo 内存订单存储，用互斥锁模拟数据库的条件更新语义
type fakeOrderRepo struct {
	mu         sync.Mutex
	nextID     uint64
	orders     map[uint64]*model.Order
	logs       map[uint64][]model.OrderStatusLog
	setFlagErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		nextID: 1,
		orders: make(map[uint64]*model.Order),
		logs:   make(map[uint64][]model.OrderStatusLog),
	}
}

func (r *fakeOrderRepo) CreateWithLog(ctx context.Context, order *model.Order, log *model.OrderStatusLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = r.nextID
	r.nextID++
	cp := *order
	r.orders[order.ID] = &cp
	log.OrderID = order.ID
	r.logs[order.ID] = append(r.logs[order.ID], *log)
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, tenantID, orderID uint64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByOrderNo(ctx context.Context, tenantID uint64, orderNo string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.OrderNo == orderNo {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) TransitionWithLog(ctx context.Context, order *model.Order, from model.OrderStatus, version int64, log *model.OrderStatusLog) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok || stored.TenantID != order.TenantID {
		return false, nil
	}
	if stored.Status != from || stored.Version != version {
		return false, nil
	}
	cp := *order
	cp.Version = version + 1
	r.orders[order.ID] = &cp
	r.logs[order.ID] = append(r.logs[order.ID], *log)
	order.Version = cp.Version
	return true, nil
}

func (r *fakeOrderRepo) SetPaymentFlag(ctx context.Context, orderID uint64, paymentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setFlagErr != nil {
		err := r.setFlagErr
		r.setFlagErr = nil
		return err
	}
	o, ok := r.orders[orderID]
	if !ok {
		return nil
	}
	if paymentType == model.PaymentTypeDeposit {
		o.DepositPaid = true
	} else {
		o.RentalFeePaid = true
	}
	return nil
}

func (r *fakeOrderRepo) matchOrders(tenantID uint64, q repository.OrderQuery) []model.Order {
	var matched []model.Order
	for _, o := range r.orders {
		if o.TenantID != tenantID {
			continue
		}
		if q.OrderNo != "" && !strings.HasPrefix(o.OrderNo, q.OrderNo) {
			continue
		}
		if q.Status != "" && string(o.Status) != q.Status {
			continue
		}
		matched = append(matched, *o)
	}
	return matched
}

// pageOrders 按创建时间和ID倒序排序后取一页，与SQL的排序分页语义一致
func pageOrders(matched []model.Order, q repository.OrderQuery) ([]model.Order, int64) {
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	total := int64(len(matched))
	offset := (q.Page - 1) * q.PageSize
	if offset >= len(matched) {
		return []model.Order{}, total
	}
	end := offset + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total
}

func (r *fakeOrderRepo) ListByTenant(ctx context.Context, tenantID uint64, q repository.OrderQuery) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, total := pageOrders(r.matchOrders(tenantID, q), q)
	return records, total, nil
}

func (r *fakeOrderRepo) ListByUser(ctx context.Context, tenantID, userID uint64, q repository.OrderQuery) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []model.Order
	for _, o := range r.matchOrders(tenantID, q) {
		if o.UserID == userID {
			matched = append(matched, o)
		}
	}
	records, total := pageOrders(matched, q)
	return records, total, nil
}

func (r *fakeOrderRepo) ListStatusLogs(ctx context.Context, orderID uint64) ([]model.OrderStatusLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.OrderStatusLog(nil), r.logs[orderID]...), nil
}

// fakePaymentRepo 内存支付存储
type fakePaymentRepo struct {
	mu      sync.Mutex
	nextID  uint64
	records map[string]*model.PaymentRecord
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{nextID: 1, records: make(map[string]*model.PaymentRecord)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *model.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	cp := *p
	r.records[p.PaymentNo] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByPaymentNo(ctx context.Context, paymentNo string) (*model.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[paymentNo]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) MarkOutcome(ctx context.Context, paymentNo, status, tradeNo string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[paymentNo]
	if !ok || p.PaymentStatus != model.PaymentStatusPending {
		return false, nil
	}
	p.PaymentStatus = status
	if tradeNo != "" {
		p.ThirdPartyTradeNo.String = tradeNo
		p.ThirdPartyTradeNo.Valid = true
	}
	p.PaymentTime.Time = paidAt
	p.PaymentTime.Valid = true
	return true, nil
}

func (r *fakePaymentRepo) MarkRefunded(ctx context.Context, paymentNo string, amount int64, reason string, refundTime time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[paymentNo]
	if !ok || p.PaymentStatus != model.PaymentStatusSuccess {
		return false, nil
	}
	p.PaymentStatus = model.PaymentStatusRefunded
	p.RefundAmount = amount
	p.RefundReason.String = reason
	p.RefundReason.Valid = true
	p.RefundTime.Time = refundTime
	p.RefundTime.Valid = true
	return true, nil
}

func (r *fakePaymentRepo) ListByOrderID(ctx context.Context, orderID uint64) ([]model.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PaymentRecord
	for _, p := range r.records {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetPendingByOrderAndType(ctx context.Context, orderID uint64, paymentType string) (*model.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.records {
		if p.OrderID == orderID && p.PaymentType == paymentType && p.PaymentStatus == model.PaymentStatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) HasSuccess(ctx context.Context, orderID uint64, paymentType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.records {
		if p.OrderID == orderID && p.PaymentType == paymentType && p.PaymentStatus == model.PaymentStatusSuccess {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]model.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PaymentRecord
	for _, p := range r.records {
		if p.PaymentStatus == model.PaymentStatusPending && p.CreatedAt.Before(before) {
			out = append(out, *p)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// fakeStoreRepo 内存门店存储
type fakeStoreRepo struct {
	stores []model.Store
	models map[uint64][]model.VehicleModel
	vas    map[uint64]model.ValueAddedService
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{
		models: make(map[uint64][]model.VehicleModel),
		vas:    make(map[uint64]model.ValueAddedService),
	}
}

func (r *fakeStoreRepo) GetActiveStores(ctx context.Context, tenantID uint64) ([]model.Store, error) {
	var out []model.Store
	for _, s := range r.stores {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStoreRepo) GetActiveModelsByStore(ctx context.Context, storeID uint64) ([]model.VehicleModel, error) {
	return r.models[storeID], nil
}

func (r *fakeStoreRepo) GetVasByIDs(ctx context.Context, tenantID uint64, ids []uint64) ([]model.ValueAddedService, error) {
	var out []model.ValueAddedService
	for _, id := range ids {
		if v, ok := r.vas[id]; ok && v.TenantID == tenantID {
			out = append(out, v)
		}
	}
	return out, nil
}

// fakeQuoteCache 内存报价缓存，Consume在锁内取出并删除
type fakeQuoteCache struct {
	mu     sync.Mutex
	quotes map[string]*model.Quote
}

func newFakeQuoteCache() *fakeQuoteCache {
	return &fakeQuoteCache{quotes: make(map[string]*model.Quote)}
}

func (c *fakeQuoteCache) Save(ctx context.Context, q *model.Quote, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *q
	c.quotes[q.ID] = &cp
	return nil
}

func (c *fakeQuoteCache) Get(ctx context.Context, quoteID string) (*model.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[quoteID]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (c *fakeQuoteCache) Consume(ctx context.Context, quoteID string) (*model.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[quoteID]
	if !ok {
		return nil, nil
	}
	delete(c.quotes, quoteID)
	return q, nil
}
