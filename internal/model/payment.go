package model

import (
	"database/sql"
	"time"
)

// 支付类型
const (
	PaymentTypeRentalFee    = "RENTAL_FEE"    // 租金
	PaymentTypeDeposit      = "DEPOSIT"       // 押金（车损+违章）
	PaymentTypeViolationFee = "VIOLATION_FEE" // 违章费用
	PaymentTypeOther        = "OTHER"         // 其他费用
)

// 支付状态
const (
	PaymentStatusPending  = "PENDING"  // 待支付
	PaymentStatusSuccess  = "SUCCESS"  // 支付成功
	PaymentStatusFailed   = "FAILED"   // 支付失败
	PaymentStatusRefunded = "REFUNDED" // 已退款
)

// PaymentRecord 支付记录模型，一笔订单可以有多条支付记录。
// 金额一律使用最小货币单位（分），避免浮点误差。
type PaymentRecord struct {
	ID                uint64         `db:"id" json:"id"`
	PaymentNo         string         `db:"payment_no" json:"payment_no"`
	OrderID           uint64         `db:"order_id" json:"order_id"`
	OrderNo           string         `db:"order_no" json:"order_no"`
	TenantID          uint64         `db:"tenant_id" json:"tenant_id"`
	PaymentType       string         `db:"payment_type" json:"payment_type"`
	PaymentAmount     int64          `db:"payment_amount" json:"payment_amount"`
	PaymentMethod     string         `db:"payment_method" json:"payment_method"`
	PaymentStatus     string         `db:"payment_status" json:"payment_status"`
	ThirdPartyTradeNo sql.NullString `db:"third_party_trade_no" json:"third_party_trade_no,omitempty"`
	PaymentTime       sql.NullTime   `db:"payment_time" json:"payment_time,omitempty"`
	RefundAmount      int64          `db:"refund_amount" json:"refund_amount"`
	RefundTime        sql.NullTime   `db:"refund_time" json:"refund_time,omitempty"`
	RefundReason      sql.NullString `db:"refund_reason" json:"refund_reason,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}
