package api

import (
	"time"

	"carrent/config"
	"carrent/internal/api/apis"
	"carrent/internal/api/handler"
	"carrent/internal/middleware"
	"carrent/internal/repository"
	"carrent/internal/scheduler"
	"carrent/internal/service"
	"carrent/pkg/async"
	"carrent/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SetupRouter 设置API路由
func SetupRouter(cfg *config.Config, logger *logger.Logger, db *sqlx.DB, redisClient *redis.Client) (*gin.Engine, func()) {
	// 创建Gin引擎
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 使用中间件
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// 创建异步工作器
	worker := async.NewWorker(100, logger)
	worker.Start(5) // 启动5个工作协程

	// 初始化存储库
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	quoteCache := repository.NewQuoteCache(redisClient)

	// 初始化服务
	quoteTTL := time.Duration(cfg.Quote.TTLSeconds) * time.Second
	orderService := service.NewOrderService(orderRepo, paymentRepo, storeRepo, quoteCache, logger)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, orderService, logger)
	pricingService := service.NewPricingService(storeRepo, quoteCache, quoteTTL, logger)

	// 初始化支付超时调度器
	paymentTimeout := time.Duration(cfg.Payment.TimeoutMinutes) * time.Minute
	paymentScheduler := scheduler.NewPaymentScheduler(paymentService, worker, paymentTimeout, logger)
	paymentScheduler.Start() // 启动超时支付关闭调度

	// 初始化处理器
	orderHandler := handler.NewOrderHandler(orderService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	quoteHandler := handler.NewQuoteHandler(pricingService, logger)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API版本v1
	v1 := router.Group("/api/v1")

	// 注册不需要认证的路由（支付渠道回调）
	apis.RegisterPublicRoutes(v1, paymentHandler)

	// 创建需要租户认证的API路由组
	authRouter := v1.Group("")
	authRouter.Use(middleware.TenantAuth())
	apis.RegisterAuthRoutes(authRouter, quoteHandler, orderHandler, paymentHandler)

	// 返回清理函数，由调用方在进程退出前执行
	cleanup := func() {
		paymentScheduler.Stop()
		worker.Stop()
	}
	return router, cleanup
}
