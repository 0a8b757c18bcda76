package scheduler

import (
	"context"
	"time"

	"carrent/internal/service"
	"carrent/pkg/async"
	"carrent/pkg/logger"
)

// PaymentScheduler 支付超时调度器
type PaymentScheduler struct {
	paymentService *service.PaymentService
	worker         *async.Worker
	timeout        time.Duration
	logger         *logger.Logger
	quit           chan struct{}
}

// NewPaymentScheduler 创建支付超时调度器实例
func NewPaymentScheduler(paymentService *service.PaymentService, worker *async.Worker, timeout time.Duration, logger *logger.Logger) *PaymentScheduler {
	return &PaymentScheduler{
		paymentService: paymentService,
		worker:         worker,
		timeout:        timeout,
		logger:         logger,
		quit:           make(chan struct{}),
	}
}

// Start 启动支付超时调度器
func (s *PaymentScheduler) Start() {
	go s.closeExpiredScheduler()
	s.logger.Info("支付超时调度器启动")
}

// Stop 停止支付超时调度器
func (s *PaymentScheduler) Stop() {
	close(s.quit)
	s.logger.Info("支付超时调度器停止")
}

// closeExpiredScheduler 超时支付关闭定时器
func (s *PaymentScheduler) closeExpiredScheduler() {
	// 立即运行一次检查
	s.submitCloseExpired()

	// 创建一个定时器，每分钟检查一次超时支付
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.submitCloseExpired()
		case <-s.quit:
			return
		}
	}
}

// submitCloseExpired 把关闭任务提交到异步工作器执行，避免阻塞定时循环
func (s *PaymentScheduler) submitCloseExpired() {
	before := time.Now().Add(-s.timeout)
	err := s.worker.Submit(async.Task{
		Name:    "close_expired_payments",
		Timeout: 30 * time.Second,
		Handler: func(ctx context.Context) error {
			closed, err := s.paymentService.CloseExpiredPayments(ctx, before, 100)
			if err != nil {
				return err
			}
			if closed > 0 {
				s.logger.Info("关闭超时支付", "count", closed)
			}
			return nil
		},
	})
	if err != nil {
		s.logger.Warn("提交超时支付关闭任务失败", "error", err)
	}
}
