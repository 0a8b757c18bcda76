package model

import (
	"database/sql"
	"time"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "CREATED"         // 已创建，等待支付
	OrderStatusFunded         OrderStatus = "FUNDED"          // 租金与押金均已支付
	OrderStatusPickupAssigned OrderStatus = "PICKUP_ASSIGNED" // 已分配取车司机
	OrderStatusInUse          OrderStatus = "IN_USE"          // 用车中
	OrderStatusReturnAssigned OrderStatus = "RETURN_ASSIGNED" // 已分配还车司机
	OrderStatusReturned       OrderStatus = "RETURNED"        // 已还车，等待结算
	OrderStatusCompleted      OrderStatus = "COMPLETED"       // 已完成（终态）
	OrderStatusCancelled      OrderStatus = "CANCELLED"       // 已取消（终态）
)

// 交接方式
const (
	DeliveryTypeStore    = 1 // 门店自取
	DeliveryTypeDoorstep = 2 // 上门送取
)

// allowedTransitions 订单状态机，未列出的转移一律拒绝。
// 司机接单后取消需要走独立的冲正流程，不在此状态机内。
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:        {OrderStatusFunded, OrderStatusCancelled},
	OrderStatusFunded:         {OrderStatusPickupAssigned, OrderStatusCancelled},
	OrderStatusPickupAssigned: {OrderStatusInUse},
	OrderStatusInUse:          {OrderStatusReturnAssigned},
	OrderStatusReturnAssigned: {OrderStatusReturned},
	OrderStatusReturned:       {OrderStatusCompleted},
}

// CanTransition 判断订单状态转移是否合法
func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order 租车订单模型
type Order struct {
	ID               uint64         `db:"id" json:"id"`
	TenantID         uint64         `db:"tenant_id" json:"tenant_id"`
	OrderNo          string         `db:"order_no" json:"order_no"`
	UserID           uint64         `db:"user_id" json:"user_id"`
	DriverName       string         `db:"driver_name" json:"driver_name"`
	DriverIDCard     string         `db:"driver_id_card" json:"driver_id_card"`
	DriverPhone      string         `db:"driver_phone" json:"driver_phone"`
	StartTime        time.Time      `db:"start_time" json:"start_time"`
	EndTime          time.Time      `db:"end_time" json:"end_time"`
	ActualPickupTime sql.NullTime   `db:"actual_pickup_time" json:"actual_pickup_time,omitempty"`
	ActualReturnTime sql.NullTime   `db:"actual_return_time" json:"actual_return_time,omitempty"`
	ProductID        uint64         `db:"product_id" json:"product_id"`
	ModelID          uint64         `db:"model_id" json:"model_id"`
	StoreID          uint64         `db:"store_id" json:"store_id"`
	LicensePlate     sql.NullString `db:"license_plate" json:"license_plate,omitempty"`
	PickupType       int            `db:"pickup_type" json:"pickup_type"`
	ReturnType       int            `db:"return_type" json:"return_type"`
	PickupDriver     sql.NullString `db:"pickup_driver" json:"pickup_driver,omitempty"`
	ReturnDriver     sql.NullString `db:"return_driver" json:"return_driver,omitempty"`
	BasicRentalFee   int64          `db:"basic_rental_fee" json:"basic_rental_fee"`
	ServiceFee       int64          `db:"service_fee" json:"service_fee"`
	InsuranceFee     int64          `db:"insurance_fee" json:"insurance_fee"`
	TotalAmount      int64          `db:"total_amount" json:"total_amount"`
	DamageDeposit    int64          `db:"damage_deposit" json:"damage_deposit"`
	ViolationDeposit int64          `db:"violation_deposit" json:"violation_deposit"`
	RentalFeePaid    bool           `db:"rental_fee_paid" json:"rental_fee_paid"`
	DepositPaid      bool           `db:"deposit_paid" json:"deposit_paid"`
	Status           OrderStatus    `db:"status" json:"status"`
	Version          int64          `db:"version" json:"-"`
	CancelTime       sql.NullTime   `db:"cancel_time" json:"cancel_time,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Cancellable 仅未分配司机的订单可以直接取消
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusCreated || o.Status == OrderStatusFunded
}

// PaginatedOrders 订单分页结果
type PaginatedOrders struct {
	Records []Order `json:"records"`
	Total   int64   `json:"total"`
	Current int     `json:"current"`
	Size    int     `json:"size"`
}
