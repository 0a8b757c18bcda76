package constants

// 通用错误消息
const (
	// 认证相关错误
	ErrNoTenant = "缺少租户信息"

	// 参数相关错误
	ErrInvalidParams = "参数错误"

	// 报价相关错误
	ErrQuoteExpired = "报价已过期或不存在，请重新查询报价"
	ErrInvalidQuote = "下单时间与报价不一致，请重新查询报价"

	// 订单相关错误
	ErrOrderNotFound     = "订单不存在"
	ErrIllegalTransition = "当前订单状态不允许该操作"
	ErrConcurrentModify  = "订单已被其他操作修改，请重试"
	ErrOutstandingCharge = "存在未结清的费用，无法完成结算"

	// 支付相关错误
	ErrPaymentNotFound  = "支付记录不存在"
	ErrInvalidAmount    = "支付金额不正确"
	ErrAlreadyPaid      = "该费用已支付，请勿重复发起"
	ErrRefundNotAllowed = "仅支付成功的记录可以退款"
	ErrRefundExceeded   = "退款金额不能超过支付金额"

	// 系统错误
	ErrInternalServer = "服务器内部错误"
)

// 成功消息
const (
	SuccessCreate = "创建成功"
	SuccessUpdate = "更新成功"
	SuccessCancel = "取消成功"
	SuccessGet    = "获取成功"
)
