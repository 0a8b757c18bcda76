package handler

import (
	"errors"
	"net/http"

	"carrent/internal/constants"
	"carrent/internal/service"
	"carrent/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respond 统一响应格式，业务结果通过包体内的code表达
func respond(c *gin.Context, code int, message string, data interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// respondError 将业务错误映射为响应码。未识别的错误按内部错误处理，
// 不向客户端透出内部细节。
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		respond(c, 400, vErr.Error(), nil)
		return
	}

	switch {
	case errors.Is(err, service.ErrQuoteExpired):
		respond(c, 410, constants.ErrQuoteExpired, nil)
	case errors.Is(err, service.ErrInvalidQuote):
		respond(c, 400, constants.ErrInvalidQuote, nil)
	case errors.Is(err, service.ErrOrderNotFound):
		respond(c, 404, constants.ErrOrderNotFound, nil)
	case errors.Is(err, service.ErrPaymentNotFound):
		respond(c, 404, constants.ErrPaymentNotFound, nil)
	case errors.Is(err, service.ErrIllegalTransition):
		respond(c, 409, constants.ErrIllegalTransition, nil)
	case errors.Is(err, service.ErrConcurrentModification):
		respond(c, 409, constants.ErrConcurrentModify, nil)
	case errors.Is(err, service.ErrOutstandingCharge):
		respond(c, 409, constants.ErrOutstandingCharge, nil)
	case errors.Is(err, service.ErrInvalidAmount):
		respond(c, 400, constants.ErrInvalidAmount, nil)
	case errors.Is(err, service.ErrAlreadyPaid):
		respond(c, 409, constants.ErrAlreadyPaid, nil)
	case errors.Is(err, service.ErrRefundNotAllowed):
		respond(c, 400, constants.ErrRefundNotAllowed, nil)
	case errors.Is(err, service.ErrRefundExceeded):
		respond(c, 400, constants.ErrRefundExceeded, nil)
	default:
		log.Error("请求处理失败", "path", c.Request.URL.Path, "error", err)
		respond(c, 500, constants.ErrInternalServer, nil)
	}
}

// tenantID 读取认证中间件写入的租户ID
func tenantID(c *gin.Context) uint64 {
	v, _ := c.Get("tenantID")
	id, _ := v.(uint64)
	return id
}

// userID 读取认证中间件写入的用户ID
func userID(c *gin.Context) uint64 {
	v, _ := c.Get("userID")
	id, _ := v.(uint64)
	return id
}
