package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"carrent/pkg/logger"
)

// ErrQueueFull 任务队列已满
var ErrQueueFull = errors.New("async: task queue is full")

// Task 表示一个异步任务
type Task struct {
	Name     string
	Handler  func(ctx context.Context) error
	Timeout  time.Duration
	RetryMax int
}

// Worker 异步任务处理器
type Worker struct {
	taskQueue chan Task
	logger    *logger.Logger
	wg        sync.WaitGroup
}

// NewWorker 创建一个新的工作器
func NewWorker(queueSize int, logger *logger.Logger) *Worker {
	return &Worker{
		taskQueue: make(chan Task, queueSize),
		logger:    logger,
	}
}

// Start 启动工作器
func (w *Worker) Start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.processTask()
	}
}

// Stop 停止工作器并等待在途任务完成
func (w *Worker) Stop() {
	close(w.taskQueue)
	w.wg.Wait()
}

// Submit 将任务加入队列，队列已满时立即返回错误而不是阻塞调用方
func (w *Worker) Submit(task Task) error {
	select {
	case w.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// processTask 处理任务的工作循环
func (w *Worker) processTask() {
	defer w.wg.Done()

	for task := range w.taskQueue {
		w.executeTask(task)
	}
}

// executeTask 执行单个任务，失败时按次数重试
func (w *Worker) executeTask(task Task) {
	ctx := context.Background()
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	for attempt := 0; attempt <= task.RetryMax; attempt++ {
		if attempt > 0 {
			w.logger.Info("重试异步任务", "task", task.Name, "attempt", attempt)
			// 简单的线性退避
			time.Sleep(time.Second * time.Duration(attempt))
		}

		if err = task.Handler(ctx); err == nil {
			break
		}
		w.logger.Error("异步任务执行失败", "task", task.Name, "attempt", attempt, "error", err)
	}

	if err != nil {
		w.logger.Error("异步任务最终失败", "task", task.Name, "error", err)
		return
	}
	w.logger.Info("异步任务完成", "task", task.Name, "duration", time.Since(start))
}
