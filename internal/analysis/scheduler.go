package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"domainwatch/internal/analysis/metrics"
	"domainwatch/pkg/domain"
)

const (
	DefaultSchedule   = "0 3 * * *"
	DefaultStaleAfter = 30 * 24 * time.Hour
)

// StaleLister selects domains due for re-analysis.
type StaleLister interface {
	ListStale(ctx context.Context, cutoff time.Time) ([]domain.Name, error)
}

// AnalysisRequester is satisfied by *Dispatcher.
type AnalysisRequester interface {
	RequestAnalysis(name domain.Name) bool
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Selected     int
	Started      int
	Deduplicated int
}

// Scheduler periodically re-analyzes records whose last scan is older than
// the stale threshold.
type Scheduler struct {
	store      StaleLister
	dispatcher AnalysisRequester
	schedule   string
	staleAfter time.Duration
	clock      func() time.Time
	logger     *slog.Logger
	metrics    *metrics.Metrics
	cron       *cron.Cron
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedule sets a standard five-field cron expression, evaluated in UTC.
func WithSchedule(expr string) SchedulerOption {
	return func(s *Scheduler) { s.schedule = expr }
}

func WithStaleAfter(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.staleAfter = d }
}

func WithSchedulerClock(clock func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.clock = clock }
}

func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

func WithSchedulerMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

func NewScheduler(store StaleLister, dispatcher AnalysisRequester, opts ...SchedulerOption) (*Scheduler, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	s := &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		schedule:   DefaultSchedule,
		staleAfter: DefaultStaleAfter,
		clock:      time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.staleAfter <= 0 {
		return nil, fmt.Errorf("stale threshold must be positive, got %s", s.staleAfter)
	}

	cronLog := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return nil, fmt.Errorf("invalid scan schedule %q: %w", s.schedule, err)
	}
	return s, nil
}

// Start begins running sweeps on the schedule.
func (s *Scheduler) Start() {
	s.logger.Info("scan scheduler started", "schedule", s.schedule, "stale_after", s.staleAfter)
	s.cron.Start()
}

// Stop halts the schedule. The returned context is done once a running sweep
// has returned; passes it dispatched keep running on the dispatcher.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	if _, err := s.Sweep(context.Background()); err != nil {
		s.logger.Error("scheduled sweep aborted", "error", err)
	}
}

// Sweep selects every record never scanned or last scanned before
// now - staleAfter and dispatches each one independently. A listing failure
// aborts this sweep only.
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	cutoff := s.clock().Add(-s.staleAfter)
	names, err := s.store.ListStale(ctx, cutoff)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stale domains: %w", err)
	}

	res := SweepResult{Selected: len(names)}
	for _, name := range names {
		if s.dispatcher.RequestAnalysis(name) {
			res.Started++
		} else {
			res.Deduplicated++
		}
	}
	s.metrics.SetSweepSelected(res.Selected)
	s.logger.InfoContext(ctx, "stale sweep dispatched",
		"cutoff", cutoff,
		"selected", res.Selected,
		"started", res.Started,
		"deduplicated", res.Deduplicated,
	)
	return res, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
