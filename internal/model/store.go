package model

import "time"

// Store 门店模型
type Store struct {
	ID               uint64    `db:"id" json:"id"`
	TenantID         uint64    `db:"tenant_id" json:"tenant_id"`
	Name             string    `db:"name" json:"name"`
	Address          string    `db:"address" json:"address"`
	Longitude        float64   `db:"longitude" json:"longitude"`
	Latitude         float64   `db:"latitude" json:"latitude"`
	PickupFee        int64     `db:"pickup_fee" json:"pickup_fee"`
	ReturnFee        int64     `db:"return_fee" json:"return_fee"`
	StoreFee         int64     `db:"store_fee" json:"store_fee"`
	DeliveryRadiusKm float64   `db:"delivery_radius_km" json:"delivery_radius_km"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// VehicleModel 车型模型，报价以车型为粒度生成
type VehicleModel struct {
	ID                  uint64    `db:"id" json:"id"`
	TenantID            uint64    `db:"tenant_id" json:"tenant_id"`
	StoreID             uint64    `db:"store_id" json:"store_id"`
	ProductID           uint64    `db:"product_id" json:"product_id"`
	Name                string    `db:"name" json:"name"`
	DailyRate           int64     `db:"daily_rate" json:"daily_rate"`
	BaseProtectionPrice int64     `db:"base_protection_price" json:"base_protection_price"`
	DamageDeposit       int64     `db:"damage_deposit" json:"damage_deposit"`
	ViolationDeposit    int64     `db:"violation_deposit" json:"violation_deposit"`
	IsActive            bool      `db:"is_active" json:"is_active"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ValueAddedService 增值服务，下单时可选购
type ValueAddedService struct {
	ID        uint64    `db:"id" json:"id"`
	TenantID  uint64    `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
