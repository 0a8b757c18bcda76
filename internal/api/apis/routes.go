package apis

import (
	"carrent/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes 注册不需要租户认证的路由
func RegisterPublicRoutes(router *gin.RouterGroup, paymentHandler *handler.PaymentHandler) {
	payments := router.Group("/payments")
	{
		// 支付渠道回调，由渠道服务端调用
		payments.POST("/callback", paymentHandler.HandleCallback)
	}
}

// RegisterAuthRoutes 注册需要租户认证的路由
func RegisterAuthRoutes(router *gin.RouterGroup, quoteHandler *handler.QuoteHandler, orderHandler *handler.OrderHandler, paymentHandler *handler.PaymentHandler) {
	quotes := router.Group("/quotes")
	{
		quotes.GET("/search", quoteHandler.SearchQuotes)
		quotes.GET("/:id", quoteHandler.GetQuoteDetail)
	}

	orders := router.Group("/orders")
	{
		orders.GET("", orderHandler.ListOrders)
		orders.POST("/create", orderHandler.CreateOrder)
		orders.POST("/cancel", orderHandler.CancelOrder)
		orders.GET("/detail", orderHandler.GetOrderDetail)
		orders.GET("/user", orderHandler.ListUserOrders)
		orders.GET("/status_logs", orderHandler.GetStatusLogs)
		orders.POST("/assign_pickup", orderHandler.AssignPickupDriver)
		orders.POST("/assign_return", orderHandler.AssignReturnDriver)
		orders.POST("/confirm_pickup", orderHandler.ConfirmPickup)
		orders.POST("/confirm_return", orderHandler.ConfirmReturn)
		orders.POST("/settle", orderHandler.SettleOrder)
	}

	payments := router.Group("/payments")
	{
		payments.POST("/initiate", paymentHandler.InitiatePayment)
		payments.POST("/success", paymentHandler.HandlePaymentSuccess)
		payments.POST("/refund", paymentHandler.Refund)
		payments.GET("/order", paymentHandler.ListOrderPayments)
		payments.GET("/detail", paymentHandler.GetPayment)
	}
}
