package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"carrent/internal/model"

	"github.com/jmoiron/sqlx"
)

// paymentRepository 支付记录存储库
type paymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository 创建支付记录存储库
func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, payment_no, order_id, order_no, tenant_id, payment_type, payment_method, payment_status,
	payment_amount, third_party_trade_no, payment_time,
	refund_amount, refund_time, refund_reason, created_at, updated_at`

// Create 创建支付记录
func (r *paymentRepository) Create(ctx context.Context, record *model.PaymentRecord) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_records (
			payment_no, order_id, order_no, tenant_id, payment_type, payment_method, payment_status,
			payment_amount, refund_amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.PaymentNo, record.OrderID, record.OrderNo, record.TenantID,
		record.PaymentType, record.PaymentMethod, record.PaymentStatus, record.PaymentAmount,
		record.RefundAmount, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建支付记录失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取支付记录ID失败: %w", err)
	}
	record.ID = uint64(id)
	return nil
}

// GetByPaymentNo 根据支付单号获取支付记录，不存在时返回nil
func (r *paymentRepository) GetByPaymentNo(ctx context.Context, paymentNo string) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	query := `SELECT ` + paymentColumns + ` FROM payment_records WHERE payment_no = ?`
	err := r.db.GetContext(ctx, &record, query, paymentNo)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkOutcome 以条件更新登记支付结果。仅当记录仍处于待支付状态时生效，
// 影响行数为0表示结果已被登记过，调用方按幂等处理。
func (r *paymentRepository) MarkOutcome(ctx context.Context, paymentNo string, status string, tradeNo string, paidAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_records
		SET payment_status = ?, third_party_trade_no = ?, payment_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE payment_no = ? AND payment_status = ?`,
		status, tradeNo, paidAt, paymentNo, model.PaymentStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("登记支付结果失败: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkRefunded 将已成功的支付记录标记为已退款
func (r *paymentRepository) MarkRefunded(ctx context.Context, paymentNo string, amount int64, reason string, refundedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_records
		SET payment_status = ?, refund_amount = ?, refund_reason = ?, refund_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE payment_no = ? AND payment_status = ?`,
		model.PaymentStatusRefunded, amount, reason, refundedAt, paymentNo, model.PaymentStatusSuccess,
	)
	if err != nil {
		return false, fmt.Errorf("登记退款失败: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListByOrderID 查询订单下的全部支付记录
func (r *paymentRepository) ListByOrderID(ctx context.Context, orderID uint64) ([]model.PaymentRecord, error) {
	var records []model.PaymentRecord
	query := `SELECT ` + paymentColumns + ` FROM payment_records WHERE order_id = ? ORDER BY created_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &records, query, orderID); err != nil {
		return nil, err
	}
	return records, nil
}

// GetPendingByOrderAndType 获取订单下指定类型的待支付记录，用于复用未完成的支付单
func (r *paymentRepository) GetPendingByOrderAndType(ctx context.Context, orderID uint64, paymentType string) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	query := `SELECT ` + paymentColumns + ` FROM payment_records
		WHERE order_id = ? AND payment_type = ? AND payment_status = ?
		ORDER BY id DESC LIMIT 1`
	err := r.db.GetContext(ctx, &record, query, orderID, paymentType, model.PaymentStatusPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// HasSuccess 判断订单下指定类型是否已有成功的支付
func (r *paymentRepository) HasSuccess(ctx context.Context, orderID uint64, paymentType string) (bool, error) {
	var count int64
	query := `SELECT COUNT(*) FROM payment_records WHERE order_id = ? AND payment_type = ? AND payment_status = ?`
	if err := r.db.GetContext(ctx, &count, query, orderID, paymentType, model.PaymentStatusSuccess); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListExpiredPending 查询创建时间早于截止时间且仍处于待支付状态的记录
func (r *paymentRepository) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]model.PaymentRecord, error) {
	var records []model.PaymentRecord
	query := `SELECT ` + paymentColumns + ` FROM payment_records
		WHERE payment_status = ? AND created_at < ?
		ORDER BY created_at ASC LIMIT ?`
	if err := r.db.SelectContext(ctx, &records, query, model.PaymentStatusPending, before, limit); err != nil {
		return nil, err
	}
	return records, nil
}
