// Package worker drains the batch queue, processing one item at a time at a
// fixed pace so vendor rate limits hold.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/tokscope/internal/domain/model"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

const (
	defaultDelay        = time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Task abstracts what workers read off the queue.
type Task = model.Task

// Handler processes one item and returns its result JSON.
type Handler interface {
	Handle(ctx context.Context, mode model.Mode, item model.Item) (json.RawMessage, error)
}

// Tracker records job progress. Finish receives nil on success.
type Tracker interface {
	Start(ctx context.Context, jobID string) error
	Record(ctx context.Context, jobID string, res model.ItemResult) error
	Finish(ctx context.Context, jobID string, err error) error
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Task
}

// Worker processes tasks until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker. An in-flight job stops between items and
	// is marked failed.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	tracker Tracker
	name    string
	limiter *rate.Limiter
	busy    *atomic.Int32

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(queue Queue, handler Handler, tracker Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		handler:  handler,
		tracker:  tracker,
		name:     "worker",
		limiter:  rate.NewLimiter(rate.Every(defaultDelay), 1),
		busy:     &atomic.Int32{},
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

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.process(ctx, t)
		}
	}
}

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stopping() bool {
	select {
	case <-w.shutdown:
		return true
	default:
		return false
	}
}

// waitTurn waits on the shared limiter. Shutdown aborts the wait.
func (w *InMemoryWorker) waitTurn(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()
	return w.limiter.Wait(ctx)
}

func (w *InMemoryWorker) setBusy(delta int32) {
	metrics.UpdateWorkerBusy(w.busy.Add(delta) > 0)
}

// process runs one job. Item failures are recorded and the loop goes on;
// only cancellation or shutdown fails the job.
func (w *InMemoryWorker) process(ctx context.Context, t Task) {
	w.setBusy(1)
	defer w.setBusy(-1)

	log := w.logger
	if err := w.tracker.Start(ctx, t.JobID); err != nil {
		log.Error(ctx, "cannot start job", logger.String("job_id", t.JobID), logger.Error(err))
		return
	}
	log.Info(ctx, "batch started",
		logger.String("job_id", t.JobID),
		logger.String("mode", string(t.Mode)),
		logger.Int("items", len(t.Items)))

	var jobErr error
	for i, item := range t.Items {
		if w.stopping() {
			jobErr = ErrStopped
			break
		}
		if err := w.waitTurn(ctx); err != nil {
			if w.stopping() {
				err = ErrStopped
			}
			jobErr = fmt.Errorf("waiting for item %d: %w", i+1, err)
			break
		}
		res := w.processItem(ctx, t.Mode, item)
		if err := w.tracker.Record(ctx, t.JobID, res); err != nil {
			log.Error(ctx, "cannot record item",
				logger.String("job_id", t.JobID),
				logger.String("video_id", item.VideoID),
				logger.Error(err))
		}
	}

	if err := w.tracker.Finish(ctx, t.JobID, jobErr); err != nil {
		log.Error(ctx, "cannot finish job", logger.String("job_id", t.JobID), logger.Error(err))
	}
	if jobErr != nil {
		metrics.RecordErrorByComponent("worker", errorKind(jobErr))
		log.Warn(ctx, "batch stopped", logger.String("job_id", t.JobID), logger.Error(jobErr))
		return
	}
	log.Info(ctx, "batch finished", logger.String("job_id", t.JobID))
}

func (w *InMemoryWorker) processItem(ctx context.Context, mode model.Mode, item model.Item) model.ItemResult {
	start := time.Now()
	data, err := w.handler.Handle(ctx, mode, item)
	elapsed := time.Since(start)
	metrics.RecordBatchItem(string(mode), err, elapsed)

	res := model.ItemResult{
		VideoID:    item.VideoID,
		VideoURL:   item.VideoURL,
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		res.Error = err.Error()
		w.logger.Warn(ctx, "batch item failed",
			logger.String("video_id", item.VideoID),
			logger.Duration("latency", elapsed),
			logger.Error(err))
		return res
	}
	res.Result = data
	return res
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrStopped):
		return "stopped"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "job_error"
	}
}

// Pool manages several workers sharing one limiter.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers (at least one) that share one limiter
// releasing an item every delay. opts apply to every worker.
func NewPool(workerCount int, delay time.Duration, queue Queue, handler Handler, tracker Tracker, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if delay <= 0 {
		delay = defaultDelay
	}
	shared := []Option{
		WithLimiter(rate.NewLimiter(rate.Every(delay), 1)),
		withBusy(&atomic.Int32{}),
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append(append([]Option{}, opts...), shared...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(queue, handler, tracker, wopts...)
	}
	return p
}

func withBusy(b *atomic.Int32) Option {
	return func(w *InMemoryWorker) { w.busy = b }
}

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
