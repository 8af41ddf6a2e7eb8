// Package effects runs best-effort side effects (remote logging, background
// syncs) off the request path. A task never reports back to whoever submitted
// it; failures are only visible through the Hook and the log.
package effects

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrQueueFull is passed to the Hook when a task is dropped because the
// queue buffer is exhausted.
var ErrQueueFull = errors.New("effects queue full")

// ErrQueueClosed is passed to the Hook for tasks submitted after Close.
var ErrQueueClosed = errors.New("effects queue closed")

// Hook observes the outcome of every task; err is nil on success.
type Hook func(name string, err error)

// Task is a unit of best-effort work
type Task func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// Config configures a Queue
type Config struct {
	Workers   int
	QueueSize int
	// Timeout bounds every task; 0 means no bound
	Timeout time.Duration
	Hook    Hook
}

// Queue is a bounded, non-blocking task queue served by a fixed worker pool
type Queue struct {
	jobs    chan job
	conf    Config
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New starts a Queue
func New(conf Config) *Queue {
	if conf.Workers <= 0 {
		conf.Workers = 2
	}
	if conf.QueueSize <= 0 {
		conf.QueueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:    make(chan job, conf.QueueSize),
		conf:    conf,
		baseCtx: ctx,
		cancel:  cancel,
	}
	for i := 0; i < conf.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Submit enqueues a task without blocking. A nil Queue runs nothing.
func (q *Queue) Submit(name string, task Task) {
	if q == nil {
		return
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.report(name, ErrQueueClosed)
		return
	}
	select {
	case q.jobs <- job{name: name, run: task}:
	default:
		q.report(name, ErrQueueFull)
	}
}

// Close stops accepting tasks and waits for queued ones until ctx is done;
// tasks still running then are cancelled.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.report(j.name, q.run(j))
	}
}

func (q *Queue) run(j job) (err error) {
	ctx := q.baseCtx
	if q.conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.conf.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %s", fmt.Sprint(r))
		}
	}()
	return j.run(ctx)
}

func (q *Queue) report(name string, err error) {
	if err != nil {
		log.WithError(err).WithField("task", name).Warn("side effect failed")
	} else {
		log.WithField("task", name).Debug("side effect done")
	}
	if q.conf.Hook != nil {
		q.conf.Hook(name, err)
	}
}
