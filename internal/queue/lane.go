package queue

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of work for the delivery lane. Run carries the job's full
// lifecycle, including its retry sleeps.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// FailureHandler observes a task's terminal failure. It runs on the worker
// goroutine, after the task has fully resolved.
type FailureHandler func(ctx context.Context, task Task, err error)

// DeliveryLane is a single-worker FIFO execution lane. One task's entire
// lifecycle completes before the next starts, so outbound channel load stays
// bounded and submission order is preserved. The worker loop itself never
// fails; only the tasks it runs can, and a failing task never stops it.
// Enqueue rejects only when the lane is closed or a configured backlog cap
// is reached.
type DeliveryLane struct {
	logger     *zap.Logger
	onFailure  FailureHandler
	maxBacklog int

	mu     sync.Mutex
	tasks  []Task
	closed bool

	wake chan struct{}
	quit chan struct{}
}

// LaneOption tweaks lane construction defaults.
type LaneOption func(*DeliveryLane)

// WithMaxBacklog bounds how many tasks may wait in the lane. Enqueue rejects
// submissions past the cap; zero or negative means unbounded.
func WithMaxBacklog(n int) LaneOption {
	return func(l *DeliveryLane) {
		l.maxBacklog = n
	}
}

func NewDeliveryLane(onFailure FailureHandler, logger *zap.Logger, opts ...LaneOption) *DeliveryLane {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &DeliveryLane{
		logger:    logger,
		onFailure: onFailure,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enqueue appends a task to the tail of the lane and returns immediately.
// The caller never learns the task's outcome through this path; terminal
// failures go to the failure handler and the audit log.
func (l *DeliveryLane) Enqueue(task Task) error {
	if task.Run == nil {
		return fmt.Errorf("task run function is required")
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("delivery lane is closed")
	}
	if l.maxBacklog > 0 && len(l.tasks) >= l.maxBacklog {
		l.mu.Unlock()
		return fmt.Errorf("delivery lane backlog is full (%d tasks waiting)", l.maxBacklog)
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	return nil
}

// RunInline executes a task on the caller's goroutine, bypassing the lane's
// ordering. Synchronous callers use this to get the terminal result directly.
func (l *DeliveryLane) RunInline(ctx context.Context, task Task) error {
	if task.Run == nil {
		return fmt.Errorf("task run function is required")
	}
	return l.execute(ctx, task)
}

// Depth reports the number of tasks waiting in the lane.
func (l *DeliveryLane) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Start runs the worker loop until the context is canceled or the lane is
// closed. On close the backlog is drained before returning.
func (l *DeliveryLane) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		task, ok := l.next()
		if !ok {
			if l.isClosed() {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-l.quit:
				continue
			case <-l.wake:
				continue
			}
		}

		if err := l.execute(ctx, task); err != nil {
			l.logger.Error("delivery task failed terminally",
				zap.String("task", task.Name),
				zap.Error(err),
			)
			if l.onFailure != nil {
				l.onFailure(ctx, task, err)
			}
		}
	}
}

// Close stops accepting tasks; the worker drains what was already queued.
func (l *DeliveryLane) Close() error {
	l.mu.Lock()
	alreadyClosed := l.closed
	l.closed = true
	l.mu.Unlock()

	if !alreadyClosed {
		close(l.quit)
	}
	return nil
}

func (l *DeliveryLane) next() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return Task{}, false
	}

	task := l.tasks[0]
	l.tasks = l.tasks[1:]
	return task, true
}

func (l *DeliveryLane) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed && len(l.tasks) == 0
}

// execute runs the task, converting a panic into an error so a misbehaving
// job cannot take down the worker loop.
func (l *DeliveryLane) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return task.Run(ctx)
}
