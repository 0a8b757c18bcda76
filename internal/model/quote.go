package model

import "time"

// Quote 报价快照，生成后不再修改。
// 报价是价格锁而不是库存预留，存入Redis并带有固定有效期，
// 下单消费成功或过期后即销毁。
type Quote struct {
	ID                  string    `json:"id"`
	TenantID            uint64    `json:"tenant_id"`
	ProductID           uint64    `json:"product_id"`
	ModelID             uint64    `json:"model_id"`
	StoreID             uint64    `json:"store_id"`
	DailyRate           int64     `json:"daily_rate"`
	PickupFee           int64     `json:"pickup_fee"`
	ReturnFee           int64     `json:"return_fee"`
	StoreFee            int64     `json:"store_fee"`
	BaseProtectionPrice int64     `json:"base_protection_price"`
	TotalPrice          int64     `json:"total_price"` // 按一天租期计算的基准总价
	DamageDeposit       int64     `json:"damage_deposit"`
	ViolationDeposit    int64     `json:"violation_deposit"`
	DeliveryType        int       `json:"delivery_type"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	CreatedAt           time.Time `json:"created_at"`
}
