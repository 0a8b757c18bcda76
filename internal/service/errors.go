package service

import (
	"errors"
	"strings"
)

// 业务错误哨兵，由API层映射为响应码
var (
	ErrQuoteExpired           = errors.New("quote expired or not found")
	ErrInvalidQuote           = errors.New("quote does not match request")
	ErrOrderNotFound          = errors.New("order not found")
	ErrIllegalTransition      = errors.New("illegal order status transition")
	ErrConcurrentModification = errors.New("order modified concurrently")
	ErrOutstandingCharge      = errors.New("order has outstanding charges")
	ErrPaymentNotFound        = errors.New("payment record not found")
	ErrInvalidAmount          = errors.New("invalid payment amount")
	ErrAlreadyPaid            = errors.New("charge already paid")
	ErrRefundNotAllowed       = errors.New("payment is not refundable")
	ErrRefundExceeded         = errors.New("refund amount exceeds paid amount")
)

// ValidationError 聚合请求参数校验失败的字段说明
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, "; ")
}

// NewValidationError 创建参数校验错误
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}
