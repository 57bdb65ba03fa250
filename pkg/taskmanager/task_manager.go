package taskmanager

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sagemaker-mlops/release-orchestrator/internal/logger"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

// TaskManager runs queued tasks on a fixed pool of workers. Workflow runs
// and housekeeping share the pool.
type TaskManager struct {
	tasks      chan entities.Task
	numWorkers int
	wg         sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewTaskManager(numWorkers int, bufferSize int) *TaskManager {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &TaskManager{
		tasks:      make(chan entities.Task, bufferSize),
		numWorkers: numWorkers,
	}
}

// Start launches the workers. Calling it again is a no-op.
func (tm *TaskManager) Start() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.started || tm.stopped {
		return
	}
	tm.started = true

	for i := 0; i < tm.numWorkers; i++ {
		tm.wg.Add(1)
		go func(workerID int) {
			defer tm.wg.Done()
			for task := range tm.tasks {
				logger.Debug("Worker running task", zap.Int("worker", workerID))
				tm.run(workerID, task)
			}
			logger.Debug("Worker exiting", zap.Int("worker", workerID))
		}(i)
	}
}

// AddTask queues task, blocking while the buffer is full. Tasks added after
// Stop are dropped.
func (tm *TaskManager) AddTask(task entities.Task) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if tm.stopped {
		logger.Warn("Task manager stopped, dropping task")
		return
	}
	tm.tasks <- task
}

// Stop lets the workers finish every queued task, then returns.
func (tm *TaskManager) Stop() {
	tm.mu.Lock()
	if tm.stopped {
		tm.mu.Unlock()
		return
	}
	tm.stopped = true
	close(tm.tasks)
	tm.mu.Unlock()

	tm.wg.Wait()
	logger.Info("All workers stopped")
}

func (tm *TaskManager) run(workerID int, task entities.Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Task panicked", zap.Int("worker", workerID), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}
