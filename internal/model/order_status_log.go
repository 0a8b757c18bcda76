package model

import (
	"database/sql"
	"time"
)

// OrderStatusLog 订单状态变更日志，只增不改，构成订单的完整审计轨迹
type OrderStatusLog struct {
	ID           uint64         `db:"id" json:"id"`
	OrderID      uint64         `db:"order_id" json:"order_id"`
	OldStatus    sql.NullString `db:"old_status" json:"old_status,omitempty"` // 首条记录为空
	NewStatus    string         `db:"new_status" json:"new_status"`
	ChangeReason string         `db:"change_reason" json:"change_reason"`
	OperatorID   uint64         `db:"operator_id" json:"operator_id"`
	OperatorName string         `db:"operator_name" json:"operator_name"`
	ChangeTime   time.Time      `db:"change_time" json:"change_time"`
}
