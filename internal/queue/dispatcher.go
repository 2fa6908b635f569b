// Package queue runs engine advance requests on a bounded pool of workers.
// Enqueue never blocks: when the channel is full the request is parked on a
// goroutine until a slot frees up or the dispatcher stops.
package queue

import (
	"context"
	"sync"

	"go-claims/internal/config"
	"go-claims/internal/metrics"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler processes one claim id.
type Handler func(ctx context.Context, claimID string) error

// Enqueuer is what the engine and services depend on.
type Enqueuer interface {
	Enqueue(claimID string)
}

type Dispatcher struct {
	ch      chan string
	workers int
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	handler Handler

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
	parked  sync.WaitGroup
	started bool
	stopped bool
}

func New(workers, size int, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		ch:      make(chan string, size),
		workers: workers,
		logger:  logger,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// NewDispatcher wires the dispatcher into the fx lifecycle.
func NewDispatcher(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	d := New(cfg.EngineWorkers, cfg.EngineQueueSize, logger, m)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return d.Stop(ctx)
		},
	})
	return d
}

// SetHandler binds the function workers call. It must be set before Start.
func (d *Dispatcher) SetHandler(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = h
}

func (d *Dispatcher) Enqueue(claimID string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.logger.Warn("Dispatcher stopped, dropping advance request", zap.String("claimId", claimID))
		return
	}

	select {
	case d.ch <- claimID:
		d.metrics.QueueDepth(len(d.ch))
	default:
		d.metrics.QueueOverflow()
		d.parked.Add(1)
		go func() {
			defer d.parked.Done()
			select {
			case d.ch <- claimID:
			case <-d.done:
				d.logger.Warn("Dispatcher stopped before parked request was queued", zap.String("claimId", claimID))
			}
		}()
	}
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.logger.Info("Engine dispatcher started", zap.Int("workers", d.workers), zap.Int("capacity", cap(d.ch)))
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case claimID := <-d.ch:
			d.metrics.QueueDepth(len(d.ch))
			d.run(claimID)
		}
	}
}

func (d *Dispatcher) run(claimID string) {
	d.mu.RLock()
	h := d.handler
	d.mu.RUnlock()
	if h == nil {
		d.logger.Error("Dispatcher has no handler", zap.String("claimId", claimID))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Advance panicked", zap.String("claimId", claimID), zap.Any("panic", r))
		}
	}()

	if err := h(d.ctx, claimID); err != nil {
		d.logger.Warn("Advance failed", zap.String("claimId", claimID), zap.Error(err))
	}
}

// Stop lets in-flight items finish, then cancels the handler context if the
// shutdown deadline passes first.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.done)
	d.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		d.parked.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		d.cancel()
		<-finished
	}
	d.cancel()
	d.logger.Info("Engine dispatcher stopped", zap.Int("dropped", len(d.ch)))
	return nil
}
