// Package worker drains the resolution task queue at a fixed pace.
//
// A worker sleeps the pacing interval after every task, successes and
// failures alike, so the upstream rate limit is honored no matter how
// individual lookups go. The default deployment runs a single worker,
// which keeps all upstream calls strictly sequential.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minseo-lab/guildmain/internal/domain/model"
	"github.com/minseo-lab/guildmain/pkg/logger"
	"github.com/minseo-lab/guildmain/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultPacing         = 20 * time.Millisecond
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Task abstracts what workers read off the queue.
type Task = model.Task

// Resolver produces the result record for one task.
type Resolver interface {
	ResolveTask(ctx context.Context, t Task) model.MemberResult
}

// Sink receives finished results, keyed by the task that produced them.
type Sink interface {
	Deliver(ctx context.Context, t Task, res model.MemberResult)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Task
}

// PacedWorker processes tasks one at a time with a fixed inter-task delay.
type PacedWorker struct {
	queue    Queue
	resolver Resolver
	sink     Sink
	pacing   time.Duration
	name     string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewPacedWorker creates a new worker with configuration options.
func NewPacedWorker(queue Queue, resolver Resolver, sink Sink, opts ...Option) *PacedWorker {
	w := &PacedWorker{
		queue:    queue,
		resolver: resolver,
		sink:     sink,
		pacing:   defaultPacing,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop until ctx is canceled or the queue closes.
func (w *PacedWorker) Run(ctx context.Context) {
	defer close(w.done)

	taskChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-taskChan:
			if !ok {
				return
			}

			w.processTask(ctx, t)

			// The pacing delay is on the critical path for every task,
			// including failed ones.
			if w.pacing > 0 {
				select {
				case <-time.After(w.pacing):
				case <-ctx.Done():
					return
				case <-w.shutdown:
					return
				}
			}
		}
	}
}

// processTask resolves a single task and delivers its result.
func (w *PacedWorker) processTask(ctx context.Context, t Task) {
	start := time.Now()

	res := w.resolver.ResolveTask(ctx, t)
	w.sink.Deliver(ctx, t, res)

	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	w.logger.Debug(ctx, "task processed",
		logger.String("runID", t.RunID),
		logger.Int("seq", t.Seq),
		logger.String("member", t.Member),
	)
}

// Shutdown gracefully stops the worker. Safe to call more than once.
func (w *PacedWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages one or more paced workers sharing a queue.
type Pool struct {
	workers []*PacedWorker
	logger  logger.Logger
}

// NewPool creates a worker pool. Counts below one collapse to a single
// worker, the sequential default.
func NewPool(workerCount int, queue Queue, resolver Resolver, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers: make([]*PacedWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName(fmt.Sprintf("worker-%d", i))}, opts...)
		pool.workers[i] = NewPacedWorker(queue, resolver, sink, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
}

// Shutdown gracefully shuts down the entire pool, closing the queue
// first so no new tasks arrive.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue().(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}

// queue returns the shared queue (all workers hold the same one).
func (p *Pool) queue() Queue {
	if len(p.workers) == 0 {
		return nil
	}
	return p.workers[0].queue
}
