// Package analysis runs domain analysis passes: it marks a record ANALYZING,
// queries both intelligence providers concurrently and persists the combined
// result. It also owns the in-flight dedup guard and the stale-record sweep.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"domainwatch/internal/analysis/metrics"
	"domainwatch/internal/domains/models"
	"domainwatch/internal/intel/providers"
	"domainwatch/pkg/domain"
)

const tracerName = "domainwatch/internal/analysis"

// Result describes one finished pass. Err is set only when the final status is ERROR.
type Result struct {
	Name         domain.Name
	Status       models.Status
	Reputation   providers.Outcome[models.Reputation]
	Registration providers.Outcome[models.Registration]
	Err          error
}

// Analyzer executes analysis passes. It never returns errors to its caller;
// the outcome is only the persisted status.
type Analyzer struct {
	store        RecordStore
	reputation   ReputationChecker
	registration RegistrationLookup
	logger       *slog.Logger
	metrics      *metrics.Metrics
	clock        func() time.Time
	tracer       trace.Tracer
}

// Option configures an Analyzer.
type Option func(*Analyzer)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(a *Analyzer) { a.clock = clock }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Analyzer) { a.tracer = tp.Tracer(tracerName) }
}

func NewAnalyzer(store RecordStore, reputation ReputationChecker, registration RegistrationLookup, opts ...Option) (*Analyzer, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if reputation == nil {
		return nil, errors.New("reputation checker is required")
	}
	if registration == nil {
		return nil, errors.New("registration lookup is required")
	}
	a := &Analyzer{
		store:        store,
		reputation:   reputation,
		registration: registration,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:        time.Now,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze runs one full pass for name.
func (a *Analyzer) Analyze(ctx context.Context, name domain.Name) Result {
	ctx, span := a.tracer.Start(ctx, "analysis.Analyze",
		trace.WithAttributes(attribute.String("domain", name.String())))
	defer span.End()

	start := time.Now()
	defer func() { a.metrics.ObserveAnalysisDuration(time.Since(start)) }()

	res := Result{Name: name}
	if err := a.store.Upsert(ctx, name, models.StatusUpdate(models.StatusAnalyzing)); err != nil {
		return a.fail(ctx, span, res, fmt.Errorf("mark analyzing: %w", err))
	}

	res.Reputation, res.Registration = a.gather(ctx, name)

	update := models.CompletedUpdate(res.Reputation.Value, res.Registration.Value, a.clock())
	if err := a.store.Upsert(ctx, name, update); err != nil {
		return a.fail(ctx, span, res, fmt.Errorf("persist results: %w", err))
	}

	res.Status = models.StatusReady
	span.SetAttributes(
		attribute.String("status", res.Status.String()),
		attribute.Bool("reputation.degraded", res.Reputation.Degraded),
		attribute.Bool("registration.degraded", res.Registration.Degraded),
	)
	a.metrics.IncrementAnalysis(res.Status.String())
	a.logger.InfoContext(ctx, "domain analysis completed",
		"domain", name.String(),
		"detections", res.Reputation.Value.DetectionCount,
		"reputation_degraded", res.Reputation.Degraded,
		"registration_degraded", res.Registration.Degraded,
	)
	return res
}

// gather queries both providers concurrently. Each goroutine converts a panic
// into a degraded outcome so one provider cannot take down the other.
func (a *Analyzer) gather(ctx context.Context, name domain.Name) (providers.Outcome[models.Reputation], providers.Outcome[models.Registration]) {
	var (
		g   errgroup.Group
		rep providers.Outcome[models.Reputation]
		reg providers.Outcome[models.Registration]
	)

	g.Go(func() error {
		ctx, span := a.tracer.Start(ctx, "analysis.reputation")
		defer span.End()
		defer func() {
			if r := recover(); r != nil {
				rep = providers.Fallback(models.EmptyReputation(), fmt.Errorf("reputation provider panicked: %v", r))
			}
			span.SetAttributes(attribute.Bool("degraded", rep.Degraded))
			a.metrics.IncrementProviderOutcome("reputation", rep.Variant())
		}()
		rep = a.reputation.Check(ctx, name)
		return nil
	})

	g.Go(func() error {
		ctx, span := a.tracer.Start(ctx, "analysis.registration")
		defer span.End()
		defer func() {
			if r := recover(); r != nil {
				reg = providers.Fallback(models.Registration{}, fmt.Errorf("registration provider panicked: %v", r))
			}
			span.SetAttributes(attribute.Bool("degraded", reg.Degraded))
			a.metrics.IncrementProviderOutcome("registration", reg.Variant())
		}()
		reg = a.registration.Lookup(ctx, name)
		return nil
	})

	_ = g.Wait()
	return rep, reg
}

// fail records ERROR on a best-effort basis; lastScannedAt is left untouched.
func (a *Analyzer) fail(ctx context.Context, span trace.Span, res Result, cause error) Result {
	res.Status = models.StatusError
	res.Err = cause
	span.RecordError(cause)
	span.SetStatus(codes.Error, "analysis failed")
	span.SetAttributes(attribute.String("status", res.Status.String()))
	a.metrics.IncrementAnalysis(res.Status.String())

	if err := a.store.Upsert(ctx, res.Name, models.StatusUpdate(models.StatusError)); err != nil {
		a.logger.ErrorContext(ctx, "failed to record analysis error",
			"domain", res.Name.String(),
			"error", err,
		)
	}
	a.logger.ErrorContext(ctx, "domain analysis failed",
		"domain", res.Name.String(),
		"error", cause,
	)
	return res
}
