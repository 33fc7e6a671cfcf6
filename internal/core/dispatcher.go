package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"starbot/internal/logger"
	"starbot/internal/types"
)

const DefaultWorkers = 8

// Dispatcher runs check cycles on a fixed pool of workers. At most one
// cycle per account is queued or running at any time.
type Dispatcher struct {
	detector  *Detector
	publisher *Publisher
	workers   int

	queue    chan *Route
	mu       sync.Mutex
	inflight map[string]bool
	started  bool
	closed   bool

	pending sync.WaitGroup
	running sync.WaitGroup
}

type DispatcherConfig struct {
	Detector  *Detector
	Publisher *Publisher
	Workers   int
	QueueSize int
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers
	}
	if cfg.Detector == nil {
		cfg.Detector = NewDetector()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = NewPublisher(PublisherConfig{Delay: DefaultPostDelay})
	}

	return &Dispatcher{
		detector:  cfg.Detector,
		publisher: cfg.Publisher,
		workers:   cfg.Workers,
		queue:     make(chan *Route, cfg.QueueSize),
		inflight:  make(map[string]bool),
	}
}

// Start launches the worker pool. Tasks run with ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.closed {
		return
	}
	d.started = true

	for range d.workers {
		d.running.Add(1)
		go d.worker(ctx)
	}
}

// Submit requests one check cycle for route. It returns false when the
// account already has a cycle queued or running, or the dispatcher is
// stopped or full.
func (d *Dispatcher) Submit(route *Route) bool {
	name := route.Name()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		slog.Warn("Dispatcher stopped, dropping check", "account", name)
		return false
	}
	if d.inflight[name] {
		slog.Info("Previous check still in progress, skipping", "account", name)
		return false
	}

	select {
	case d.queue <- route:
		d.inflight[name] = true
		d.pending.Add(1)
		return true
	default:
		slog.Warn("Dispatch queue full, dropping check", "account", name)
		return false
	}
}

// Wait blocks until every submitted cycle has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Stop closes the queue and waits for the workers to drain it.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		for route := range d.queue {
			d.release(route)
		}
		return
	}
	d.running.Wait()
}

// InFlight reports whether account has a cycle queued or running.
func (d *Dispatcher) InFlight(account string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight[account]
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.running.Done()

	for route := range d.queue {
		d.run(ctx, route)
	}
}

func (d *Dispatcher) run(ctx context.Context, route *Route) {
	defer d.release(route)

	ctx = logger.Ctx(ctx, slog.String("account", route.Name()))

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Check cycle panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	if err := d.cycle(ctx, route); err != nil {
		logCycleError(ctx, err)
	}
}

func (d *Dispatcher) cycle(ctx context.Context, route *Route) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch, err := d.detector.Detect(ctx, route)
	if err != nil {
		return err
	}
	if len(batch.Items) == 0 {
		slog.DebugContext(ctx, "No new items")
		return nil
	}

	sent, err := d.publisher.Publish(ctx, batch)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Check cycle complete", "published", sent)
	return nil
}

func (d *Dispatcher) release(route *Route) {
	d.mu.Lock()
	delete(d.inflight, route.Name())
	d.mu.Unlock()
	d.pending.Done()
}

func logCycleError(ctx context.Context, err error) {
	switch {
	case ctx.Err() != nil:
		slog.InfoContext(ctx, "Check cycle interrupted", "error", err)
	case types.IsTransient(err):
		slog.WarnContext(ctx, "Check cycle failed, will retry next interval", "error", err)
	default:
		slog.ErrorContext(ctx, "Check cycle failed", "error", err)
	}
}
