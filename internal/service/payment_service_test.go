package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"carrent/internal/model"
	"carrent/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	*orderFixture
	svc *PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := newOrderFixture()
	svc := NewPaymentService(f.payments, f.orders, f.svc, logger.NewLogger("error"))
	return &paymentFixture{orderFixture: f, svc: svc}
}

func (f *paymentFixture) createOrder(t *testing.T) *model.Order {
	t.Helper()
	quote := seedQuote(f.orderFixture, time.Now().Add(24*time.Hour))
	order, err := f.orderFixture.svc.CreateOrder(context.Background(), testTenantID, createRequest(quote, 2))
	require.NoError(t, err)
	return order
}

func TestInitiatePaymentAmounts(t *testing.T) {
	f := newPaymentFixture()
	order := f.createOrder(t)
	ctx := context.Background()

	// 租金金额由订单决定，请求携带的金额与订单不一致时拒绝
	_, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeRentalFee, Amount: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeRentalFee, Amount: -1,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	rental, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeRentalFee, Amount: order.TotalAmount,
	})
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, rental.PaymentAmount)
	assert.Equal(t, model.PaymentStatusPending, rental.PaymentStatus)

	deposit, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeDeposit,
	})
	require.NoError(t, err)
	assert.Equal(t, order.DamageDeposit+order.ViolationDeposit, deposit.PaymentAmount)

	// 违章费用必须携带正的金额
	_, err = f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeViolationFee,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	violation, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeViolationFee, Amount: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), violation.PaymentAmount)
}

func TestInitiatePaymentReusesPending(t *testing.T) {
	f := newPaymentFixture()
	order := f.createOrder(t)
	ctx := context.Background()

	first, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeRentalFee,
	})
	require.NoError(t, err)

	second, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeRentalFee,
	})
	require.NoError(t, err)
	assert.Equal(t, first.PaymentNo, second.PaymentNo)
}

func TestHandleCallbackIdempotent(t *testing.T) {
	f := newPaymentFixture()
	order := f.createOrder(t)
	ctx := context.Background()

	record, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeRentalFee,
	})
	require.NoError(t, err)

	first, err := f.svc.HandleCallback(ctx, &PaymentCallbackRequest{
		PaymentNo: record.PaymentNo, Result: "SUCCESS", ThirdPartyTradeNo: "tp-001",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccess, first.PaymentStatus)
	assert.Equal(t, "tp-001", first.ThirdPartyTradeNo.String)

	// 重复回调不改变结果，也不报错
	second, err := f.svc.HandleCallback(ctx, &PaymentCallbackRequest{
		PaymentNo: record.PaymentNo, Result: "SUCCESS", ThirdPartyTradeNo: "tp-001",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccess, second.PaymentStatus)

	// 成功后到达的失败回调同样被忽略
	third, err := f.svc.HandleCallback(ctx, &PaymentCallbackRequest{
		PaymentNo: record.PaymentNo, Result: "FAILED",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccess, third.PaymentStatus)
}

func TestHandleCallbackUnknownPayment(t *testing.T) {
	f := newPaymentFixture()
	_, err := f.svc.HandleCallback(context.Background(), &PaymentCallbackRequest{
		PaymentNo: "PY-missing", Result: "SUCCESS",
	})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

// 成功结果已登记但推进订单中途失败时，渠道重投的回调补齐订单侧状态
func TestHandleCallbackRetryHealsOrder(t *testing.T) {
	f := newPaymentFixture()
	order := f.createOrder(t)
	ctx := context.Background()

	record, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeRentalFee,
	})
	require.NoError(t, err)

	f.orders.setFlagErr = errors.New("connection reset")
	_, err = f.svc.HandleCallback(ctx, &PaymentCallbackRequest{
		PaymentNo: record.PaymentNo, Result: "SUCCESS",
	})
	require.Error(t, err)

	// 支付记录已是成功，订单标记却没有置上
	stored, err := f.payments.GetByPaymentNo(ctx, record.PaymentNo)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccess, stored.PaymentStatus)
	current, err := f.orderFixture.svc.GetOrderDetail(ctx, testTenantID, order.ID)
	require.NoError(t, err)
	assert.False(t, current.RentalFeePaid)

	retried, err := f.svc.HandleCallback(ctx, &PaymentCallbackRequest{
		PaymentNo: record.PaymentNo, Result: "SUCCESS",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccess, retried.PaymentStatus)

	current, err = f.orderFixture.svc.GetOrderDetail(ctx, testTenantID, order.ID)
	require.NoError(t, err)
	assert.True(t, current.RentalFeePaid)
}

// 支付侧通知只有在两类费用都有支付成功记录时才会推进订单
func TestHandlePaymentSuccessRequiresRecords(t *testing.T) {
	f := newPaymentFixture()
	order := f.createOrder(t)
	ctx := context.Background()

	require.NoError(t, f.svc.HandlePaymentSuccess(ctx, testTenantID, order.ID, model.PaymentTypeRentalFee))
	require.NoError(t, f.svc.HandlePaymentSuccess(ctx, testTenantID, order.ID, model.PaymentTypeDeposit))

	current, err := f.orderFixture.svc.GetOrderDetail(ctx, testTenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCreated, current.Status)

	for _, paymentType := range []string{model.PaymentTypeRentalFee, model.PaymentTypeDeposit} {
		record, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
			OrderID: order.ID, PaymentType: paymentType,
		})
		require.NoError(t, err)
		_, err = f.svc.HandleCallback(ctx, &PaymentCallbackRequest{
			PaymentNo: record.PaymentNo, Result: "SUCCESS",
		})
		require.NoError(t, err)
	}

	current, err = f.orderFixture.svc.GetOrderDetail(ctx, testTenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFunded, current.Status)
}

// 租金和押金回调以任意顺序到达，订单最终进入已支付状态
func TestFundedBothCallbackOrders(t *testing.T) {
	orders := []struct {
		name  string
		first string
	}{
		{"租金先到", model.PaymentTypeRentalFee},
		{"押金先到", model.PaymentTypeDeposit},
	}
	for _, tc := range orders {
		t.Run(tc.name, func(t *testing.T) {
			f := newPaymentFixture()
			order := f.createOrder(t)
			ctx := context.Background()

			rental, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
				OrderID: order.ID, PaymentType: model.PaymentTypeRentalFee,
			})
			require.NoError(t, err)
			deposit, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
				OrderID: order.ID, PaymentType: model.PaymentTypeDeposit,
			})
			require.NoError(t, err)

			first, second := rental, deposit
			if tc.first == model.PaymentTypeDeposit {
				first, second = deposit, rental
			}

			_, err = f.svc.HandleCallback(ctx, &PaymentCallbackRequest{PaymentNo: first.PaymentNo, Result: "SUCCESS"})
			require.NoError(t, err)

			// 只有一笔成功时订单停留在已创建
			current, err := f.orderFixture.svc.GetOrderDetail(ctx, testTenantID, order.ID)
			require.NoError(t, err)
			assert.Equal(t, model.OrderStatusCreated, current.Status)

			_, err = f.svc.HandleCallback(ctx, &PaymentCallbackRequest{PaymentNo: second.PaymentNo, Result: "SUCCESS"})
			require.NoError(t, err)

			current, err = f.orderFixture.svc.GetOrderDetail(ctx, testTenantID, order.ID)
			require.NoError(t, err)
			assert.Equal(t, model.OrderStatusFunded, current.Status)
			assert.True(t, current.RentalFeePaid)
			assert.True(t, current.DepositPaid)
		})
	}
}

func TestRefund(t *testing.T) {
	f := newPaymentFixture()
	order := f.createOrder(t)
	ctx := context.Background()

	record, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeDeposit,
	})
	require.NoError(t, err)

	// 待支付的记录不可退款
	_, err = f.svc.Refund(ctx, testTenantID, &RefundRequest{PaymentNo: record.PaymentNo, Amount: 100})
	assert.ErrorIs(t, err, ErrRefundNotAllowed)

	_, err = f.svc.HandleCallback(ctx, &PaymentCallbackRequest{PaymentNo: record.PaymentNo, Result: "SUCCESS"})
	require.NoError(t, err)

	// 退款金额不得超过实付金额
	_, err = f.svc.Refund(ctx, testTenantID, &RefundRequest{
		PaymentNo: record.PaymentNo, Amount: record.PaymentAmount + 1,
	})
	assert.ErrorIs(t, err, ErrRefundExceeded)

	refunded, err := f.svc.Refund(ctx, testTenantID, &RefundRequest{
		PaymentNo: record.PaymentNo, Amount: record.PaymentAmount, Reason: "还车完成退押金",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, refunded.PaymentStatus)
	assert.Equal(t, record.PaymentAmount, refunded.RefundAmount)

	// 已退款的记录不能再次退款
	_, err = f.svc.Refund(ctx, testTenantID, &RefundRequest{PaymentNo: record.PaymentNo, Amount: 100})
	assert.ErrorIs(t, err, ErrRefundNotAllowed)
}

func TestRefundTenantIsolation(t *testing.T) {
	f := newPaymentFixture()
	order := f.createOrder(t)
	ctx := context.Background()

	record, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeDeposit,
	})
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, testTenantID+1, &RefundRequest{PaymentNo: record.PaymentNo, Amount: 100})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCloseExpiredPayments(t *testing.T) {
	f := newPaymentFixture()
	order := f.createOrder(t)
	ctx := context.Background()

	stale := &model.PaymentRecord{
		PaymentNo:     "PY-stale",
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		TenantID:      testTenantID,
		PaymentType:   model.PaymentTypeRentalFee,
		PaymentStatus: model.PaymentStatusPending,
		PaymentAmount: order.TotalAmount,
		CreatedAt:     time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.payments.Create(ctx, stale))

	fresh, err := f.svc.InitiatePayment(ctx, testTenantID, &InitiatePaymentRequest{
		OrderID: order.ID, PaymentType: model.PaymentTypeDeposit,
	})
	require.NoError(t, err)

	closed, err := f.svc.CloseExpiredPayments(ctx, time.Now().Add(-30*time.Minute), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	got, err := f.payments.GetByPaymentNo(ctx, stale.PaymentNo)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, got.PaymentStatus)

	got, err = f.payments.GetByPaymentNo(ctx, fresh.PaymentNo)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, got.PaymentStatus)
}
