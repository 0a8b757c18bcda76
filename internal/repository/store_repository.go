package repository

import (
	"context"

	"carrent/internal/model"

	"github.com/jmoiron/sqlx"
)

// storeRepository 门店与车型存储库
type storeRepository struct {
	db *sqlx.DB
}

// NewStoreRepository 创建门店存储库
func NewStoreRepository(db *sqlx.DB) StoreRepository {
	return &storeRepository{db: db}
}

// GetActiveStores 获取租户下所有营业中的门店
func (r *storeRepository) GetActiveStores(ctx context.Context, tenantID uint64) ([]model.Store, error) {
	var stores []model.Store
	query := `SELECT id, tenant_id, name, address, longitude, latitude,
		pickup_fee, return_fee, store_fee, delivery_radius_km, is_active, created_at, updated_at
		FROM stores WHERE tenant_id = ? AND is_active = 1`
	if err := r.db.SelectContext(ctx, &stores, query, tenantID); err != nil {
		return nil, err
	}
	return stores, nil
}

// GetActiveModelsByStore 获取门店下可租的车型
func (r *storeRepository) GetActiveModelsByStore(ctx context.Context, storeID uint64) ([]model.VehicleModel, error) {
	var models []model.VehicleModel
	query := `SELECT id, tenant_id, store_id, product_id, name, daily_rate,
		base_protection_price, damage_deposit, violation_deposit, is_active, created_at, updated_at
		FROM vehicle_models WHERE store_id = ? AND is_active = 1`
	if err := r.db.SelectContext(ctx, &models, query, storeID); err != nil {
		return nil, err
	}
	return models, nil
}

// GetVasByIDs 批量获取增值服务，ID列表为空时返回空切片
func (r *storeRepository) GetVasByIDs(ctx context.Context, tenantID uint64, ids []uint64) ([]model.ValueAddedService, error) {
	if len(ids) == 0 {
		return []model.ValueAddedService{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, tenant_id, name, price, is_active, created_at
		FROM value_added_services WHERE tenant_id = ? AND id IN (?) AND is_active = 1`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	var services []model.ValueAddedService
	if err := r.db.SelectContext(ctx, &services, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return services, nil
}
