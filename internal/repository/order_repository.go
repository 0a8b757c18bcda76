package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carrent/internal/model"

	"github.com/jmoiron/sqlx"
)

// orderRepository 订单存储库
type orderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository 创建订单存储库
func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, tenant_id, order_no, user_id, driver_name, driver_id_card, driver_phone,
	start_time, end_time, actual_pickup_time, actual_return_time,
	product_id, model_id, store_id, license_plate, pickup_type, return_type,
	pickup_driver, return_driver,
	basic_rental_fee, service_fee, insurance_fee, total_amount,
	damage_deposit, violation_deposit, rental_fee_paid, deposit_paid,
	status, version, cancel_time, created_at, updated_at`

// CreateWithLog 在同一事务内创建订单并写入首条状态日志
func (r *orderRepository) CreateWithLog(ctx context.Context, order *model.Order, log *model.OrderStatusLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (
			tenant_id, order_no, user_id, driver_name, driver_id_card, driver_phone,
			start_time, end_time, product_id, model_id, store_id, pickup_type, return_type,
			basic_rental_fee, service_fee, insurance_fee, total_amount,
			damage_deposit, violation_deposit, rental_fee_paid, deposit_paid,
			status, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.TenantID, order.OrderNo, order.UserID, order.DriverName, order.DriverIDCard, order.DriverPhone,
		order.StartTime, order.EndTime, order.ProductID, order.ModelID, order.StoreID, order.PickupType, order.ReturnType,
		order.BasicRentalFee, order.ServiceFee, order.InsuranceFee, order.TotalAmount,
		order.DamageDeposit, order.ViolationDeposit, order.RentalFeePaid, order.DepositPaid,
		order.Status, order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建订单失败: %w", err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取订单ID失败: %w", err)
	}
	order.ID = uint64(orderID)
	log.OrderID = order.ID

	if err := insertStatusLog(ctx, tx, log); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID 按租户范围查询订单，不存在时返回nil
func (r *orderRepository) GetByID(ctx context.Context, tenantID, orderID uint64) (*model.Order, error) {
	var order model.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ? AND tenant_id = ?`
	err := r.db.GetContext(ctx, &order, query, orderID, tenantID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *orderRepository) GetByOrderNo(ctx context.Context, tenantID uint64, orderNo string) (*model.Order, error) {
	var order model.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_no = ? AND tenant_id = ?`
	err := r.db.GetContext(ctx, &order, query, orderNo, tenantID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionWithLog 以乐观锁条件更新订单并在同一事务内追加状态日志。
// WHERE携带原状态和版本号，并发竞争的失败方不会产生任何写入。
func (r *orderRepository) TransitionWithLog(ctx context.Context, order *model.Order, from model.OrderStatus, version int64, log *model.OrderStatusLog) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET
			status = ?, version = version + 1,
			actual_pickup_time = ?, actual_return_time = ?, license_plate = ?,
			pickup_driver = ?, return_driver = ?,
			rental_fee_paid = ?, deposit_paid = ?, cancel_time = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND tenant_id = ? AND status = ? AND version = ?`,
		order.Status,
		order.ActualPickupTime, order.ActualReturnTime, order.LicensePlate,
		order.PickupDriver, order.ReturnDriver,
		order.RentalFeePaid, order.DepositPaid, order.CancelTime,
		order.ID, order.TenantID, from, version,
	)
	if err != nil {
		return false, fmt.Errorf("更新订单状态失败: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if err := insertStatusLog(ctx, tx, log); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	order.Version = version + 1
	return true, nil
}

// SetPaymentFlag 设置订单的支付标记，置位操作可交换，不需要版本控制
func (r *orderRepository) SetPaymentFlag(ctx context.Context, orderID uint64, paymentType string) error {
	column := "rental_fee_paid"
	if paymentType == model.PaymentTypeDeposit {
		column = "deposit_paid"
	}
	query := fmt.Sprintf(`UPDATE orders SET %s = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, column)
	_, err := r.db.ExecContext(ctx, query, orderID)
	return err
}

// ListByTenant 查询租户下的订单分页列表
func (r *orderRepository) ListByTenant(ctx context.Context, tenantID uint64, q OrderQuery) ([]model.Order, int64, error) {
	where := `WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	return r.listOrders(ctx, where, args, q)
}

// ListByUser 查询用户在租户下的订单分页列表
func (r *orderRepository) ListByUser(ctx context.Context, tenantID, userID uint64, q OrderQuery) ([]model.Order, int64, error) {
	where := `WHERE tenant_id = ? AND user_id = ?`
	args := []interface{}{tenantID, userID}
	return r.listOrders(ctx, where, args, q)
}

// listOrders 按条件分页查询，排序规则固定为创建时间倒序、ID倒序，
// 保证同一数据快照下分页结果稳定。
func (r *orderRepository) listOrders(ctx context.Context, where string, args []interface{}, q OrderQuery) ([]model.Order, int64, error) {
	if q.OrderNo != "" {
		where += ` AND order_no LIKE ?`
		args = append(args, q.OrderNo+"%")
	}
	if q.Status != "" {
		where += ` AND status = ?`
		args = append(args, q.Status)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM orders ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Order{}, 0, nil
	}

	offset := (q.Page - 1) * q.PageSize
	query := `SELECT ` + orderColumns + ` FROM orders ` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, q.PageSize, offset)

	var orders []model.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListStatusLogs 按时间顺序返回订单的状态日志，可用于重放状态历史
func (r *orderRepository) ListStatusLogs(ctx context.Context, orderID uint64) ([]model.OrderStatusLog, error) {
	var logs []model.OrderStatusLog
	query := `SELECT id, order_id, old_status, new_status, change_reason, operator_id, operator_name, change_time
		FROM order_status_logs WHERE order_id = ? ORDER BY change_time ASC, id ASC`
	if err := r.db.SelectContext(ctx, &logs, query, orderID); err != nil {
		return nil, err
	}
	return logs, nil
}

// insertStatusLog 写入状态日志，必须在订单变更的同一事务内调用
func insertStatusLog(ctx context.Context, tx *sqlx.Tx, log *model.OrderStatusLog) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_logs (
			order_id, old_status, new_status, change_reason, operator_id, operator_name, change_time
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.OrderID, log.OldStatus, log.NewStatus, log.ChangeReason, log.OperatorID, log.OperatorName, log.ChangeTime,
	)
	if err != nil {
		return fmt.Errorf("写入状态日志失败: %w", err)
	}
	return nil
}
