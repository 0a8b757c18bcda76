package middleware

import (
	"net/http"
	"strconv"

	"carrent/internal/constants"

	"github.com/gin-gonic/gin"
)

// TenantAuth 租户认证中间件。租户和用户身份由上游网关鉴权后
// 通过请求头传入，缺少租户标识的请求一律拒绝。
func TenantAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := strconv.ParseUint(c.GetHeader("X-Tenant-Id"), 10, 64)
		if err != nil || tenantID == 0 {
			c.JSON(http.StatusOK, gin.H{"code": 401, "message": constants.ErrNoTenant})
			c.Abort()
			return
		}

		userID, _ := strconv.ParseUint(c.GetHeader("X-User-Id"), 10, 64)

		// 将租户ID和用户ID存储到上下文中，供后续处理使用
		c.Set("tenantID", tenantID)
		c.Set("userID", userID)
		c.Next()
	}
}
