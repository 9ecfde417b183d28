package telegram

import (
	"sync"

	"pml_bot/internal/logger"
)

// EventTask 事件处理任务
type EventTask struct {
	Name string // 用于日志定位
	Run  func()
}

// WorkerPool 事件处理工作池
//
// 两路事件流（消息、删除）和命令都经由这里执行，
// 单个任务 panic 不会拖垮事件循环。
type WorkerPool struct {
	taskQueue chan EventTask
	wg        sync.WaitGroup
	workers   int
}

// NewWorkerPool 创建工作池
// workers: worker 协程数量
// queueSize: 任务队列大小
func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	pool := &WorkerPool{
		taskQueue: make(chan EventTask, queueSize),
		workers:   workers,
	}

	// 启动 worker goroutines
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	logger.L().Infof("Worker pool started with %d workers, queue size %d", workers, queueSize)
	return pool
}

// worker 工作协程
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	logger.L().Debugf("Worker %d started", id)

	for task := range p.taskQueue {
		// 执行任务，带 panic recovery
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.L().Errorf("Worker %d: task %s panic recovered: %v", id, task.Name, r)
				}
			}()

			task.Run()
		}()
	}

	logger.L().Debugf("Worker %d stopped", id)
}

// Submit 提交任务到工作池
func (p *WorkerPool) Submit(task EventTask) {
	select {
	case p.taskQueue <- task:
		// 任务成功提交
	default:
		// 任务队列已满，记录警告
		logger.L().Warnf("Worker pool queue is full, task %s dropped", task.Name)
	}
}

// Shutdown 优雅关闭工作池
// 等待所有正在执行的任务完成
func (p *WorkerPool) Shutdown() {
	logger.L().Info("Shutting down worker pool...")

	// 关闭任务队列，不再接受新任务
	close(p.taskQueue)

	// 等待所有 worker 完成
	p.wg.Wait()

	logger.L().Info("Worker pool shut down successfully")
}
