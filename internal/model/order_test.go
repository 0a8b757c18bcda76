package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{OrderStatusCreated, OrderStatusFunded},
		{OrderStatusCreated, OrderStatusCancelled},
		{OrderStatusFunded, OrderStatusPickupAssigned},
		{OrderStatusFunded, OrderStatusCancelled},
		{OrderStatusPickupAssigned, OrderStatusInUse},
		{OrderStatusInUse, OrderStatusReturnAssigned},
		{OrderStatusReturnAssigned, OrderStatusReturned},
		{OrderStatusReturned, OrderStatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s 应当允许", tc.from, tc.to)
	}
}

func TestCanTransitionRejected(t *testing.T) {
	rejected := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{OrderStatusCreated, OrderStatusPickupAssigned},
		{OrderStatusCreated, OrderStatusInUse},
		{OrderStatusCreated, OrderStatusCompleted},
		{OrderStatusFunded, OrderStatusInUse},
		{OrderStatusPickupAssigned, OrderStatusCancelled},
		{OrderStatusPickupAssigned, OrderStatusReturned},
		{OrderStatusInUse, OrderStatusCancelled},
		{OrderStatusInUse, OrderStatusCompleted},
		{OrderStatusReturnAssigned, OrderStatusCancelled},
		{OrderStatusReturned, OrderStatusCancelled},
		{OrderStatusCompleted, OrderStatusCreated},
		{OrderStatusCancelled, OrderStatusCreated},
		{OrderStatusFunded, OrderStatusCreated},
	}
	for _, tc := range rejected {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s 应当拒绝", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	all := []OrderStatus{
		OrderStatusCreated, OrderStatusFunded, OrderStatusPickupAssigned,
		OrderStatusInUse, OrderStatusReturnAssigned, OrderStatusReturned,
		OrderStatusCompleted, OrderStatusCancelled,
	}
	for _, to := range all {
		assert.False(t, CanTransition(OrderStatusCompleted, to))
		assert.False(t, CanTransition(OrderStatusCancelled, to))
	}
}

func TestCancellable(t *testing.T) {
	assert.True(t, (&Order{Status: OrderStatusCreated}).Cancellable())
	assert.True(t, (&Order{Status: OrderStatusFunded}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusPickupAssigned}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusInUse}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusCompleted}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusCancelled}).Cancellable())
}
