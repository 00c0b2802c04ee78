package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"domainwatch/internal/analysis/metrics"
	"domainwatch/pkg/domain"
)

// Runner executes one analysis pass.
type Runner interface {
	Analyze(ctx context.Context, name domain.Name) Result
}

const (
	dispatchStarted      = "started"
	dispatchDeduplicated = "deduplicated"
	dispatchRejected     = "rejected"
)

// Dispatcher starts analysis passes in the background and guarantees at most
// one in-flight pass per domain. Passes run on a dispatcher-owned context, so
// they outlive the request that triggered them.
type Dispatcher struct {
	runner  Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
	sem     *semaphore.Weighted
	ctx     context.Context

	mu       sync.Mutex
	inFlight map[domain.Name]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithDispatcherMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithMaxConcurrent bounds how many passes run at once. Zero means unbounded.
func WithMaxConcurrent(n int64) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.sem = semaphore.NewWeighted(n)
		}
	}
}

func NewDispatcher(runner Runner, opts ...DispatcherOption) (*Dispatcher, error) {
	if runner == nil {
		return nil, errors.New("analysis runner is required")
	}
	d := &Dispatcher{
		runner:   runner,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:      context.Background(),
		inFlight: make(map[domain.Name]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// RequestAnalysis starts a pass for name unless one is already running.
// It never blocks and reports whether a new pass was started.
func (d *Dispatcher) RequestAnalysis(name domain.Name) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.metrics.IncrementDispatch(dispatchRejected)
		return false
	}
	if _, busy := d.inFlight[name]; busy {
		d.mu.Unlock()
		d.metrics.IncrementDispatch(dispatchDeduplicated)
		return false
	}
	d.inFlight[name] = struct{}{}
	d.wg.Add(1)
	d.mu.Unlock()

	d.metrics.IncrementDispatch(dispatchStarted)
	d.metrics.IncInFlight()
	go d.run(name)
	return true
}

func (d *Dispatcher) run(name domain.Name) {
	defer d.wg.Done()
	defer d.release(name)
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("analysis pass panicked", "domain", name.String(), "panic", r)
		}
	}()

	if d.sem != nil {
		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			d.logger.Error("analysis slot unavailable", "domain", name.String(), "error", err)
			return
		}
		defer d.sem.Release(1)
	}
	d.runner.Analyze(d.ctx, name)
}

func (d *Dispatcher) release(name domain.Name) {
	d.mu.Lock()
	delete(d.inFlight, name)
	d.mu.Unlock()
	d.metrics.DecInFlight()
}

// InFlight reports whether a pass for name is currently running or queued for a slot.
func (d *Dispatcher) InFlight(name domain.Name) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inFlight[name]
	return ok
}

// Pending returns the number of passes in flight.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inFlight)
}

// Wait blocks until every started pass has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown rejects new requests and waits for running passes.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return d.Wait(ctx)
}
