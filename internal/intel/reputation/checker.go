package reputation

import (
	"context"
	"io"
	"log/slog"
	"time"

	"domainwatch/internal/domains/models"
	"domainwatch/internal/intel/providers"
	"domainwatch/internal/intel/retry"
	"domainwatch/pkg/domain"
)

// Fetcher performs one reputation lookup.
type Fetcher interface {
	Fetch(ctx context.Context, name domain.Name) (models.Reputation, error)
}

// Checker runs a Fetcher under the rate-limit retry policy and never fails:
// terminal errors degrade to the empty reputation.
type Checker struct {
	fetcher   Fetcher
	retryOpts []retry.Option
	policy    *retry.Policy
	logger    *slog.Logger
	onRetry   func(attempt int, delay time.Duration)
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

func WithLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) { c.logger = logger }
}

// WithRetryOptions tunes the retry policy (budget, step, timer).
func WithRetryOptions(opts ...retry.Option) CheckerOption {
	return func(c *Checker) { c.retryOpts = append(c.retryOpts, opts...) }
}

// WithRetryHook is called before every rate-limit retry, typically to count it.
func WithRetryHook(fn func(attempt int, delay time.Duration)) CheckerOption {
	return func(c *Checker) { c.onRetry = fn }
}

func NewChecker(fetcher Fetcher, opts ...CheckerOption) *Checker {
	c := &Checker{
		fetcher: fetcher,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.policy = retry.New(append(c.retryOpts, retry.WithNotify(c.notify))...)
	return c
}

func (c *Checker) Check(ctx context.Context, name domain.Name) providers.Outcome[models.Reputation] {
	var rep models.Reputation
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		rep, err = c.fetcher.Fetch(ctx, name)
		return err
	})
	if err != nil {
		c.logger.WarnContext(ctx, "reputation lookup failed, using fallback",
			"domain", name.String(),
			"category", providers.GetCategory(err),
			"error", err,
		)
		return providers.Fallback(models.EmptyReputation(), err)
	}
	return providers.Succeeded(rep)
}

func (c *Checker) notify(attempt int, err error, delay time.Duration) {
	c.logger.Warn("reputation provider rate limited, retrying",
		"attempt", attempt,
		"delay", delay,
		"error", err,
	)
	if c.onRetry != nil {
		c.onRetry(attempt, delay)
	}
}
