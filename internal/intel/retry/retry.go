// Package retry re-runs provider calls that were rate limited, waiting a
// linearly growing delay between attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"domainwatch/internal/intel/providers"
)

const (
	DefaultMaxRetries = 3
	DefaultStep       = 2 * time.Second
)

// NotifyFunc observes each scheduled retry. attempt is the number of the
// attempt that just failed, starting at 1.
type NotifyFunc func(attempt int, err error, delay time.Duration)

// Policy retries rate-limited operations up to MaxRetries times, sleeping
// Step×n before retry n. It is safe for concurrent use.
type Policy struct {
	maxRetries uint64
	step       time.Duration
	newTimer   func() backoff.Timer
	notify     NotifyFunc
}

// Option configures a Policy.
type Option func(*Policy)

func WithMaxRetries(n uint64) Option {
	return func(p *Policy) { p.maxRetries = n }
}

func WithStep(d time.Duration) Option {
	return func(p *Policy) { p.step = d }
}

// WithTimer replaces the wall-clock timer. The factory is called once per Do.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(p *Policy) { p.newTimer = newTimer }
}

func WithNotify(fn NotifyFunc) Option {
	return func(p *Policy) { p.notify = fn }
}

// New returns a policy with 3 retries and a 2s step unless overridden.
func New(opts ...Option) *Policy {
	p := &Policy{
		maxRetries: DefaultMaxRetries,
		step:       DefaultStep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do runs op until it succeeds, fails with a non rate-limit error, or the
// retry budget is spent. The last error is returned unchanged.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var timer backoff.Timer
	if p.newTimer != nil {
		timer = p.newTimer()
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&linear{step: p.step}, p.maxRetries), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err != nil && !providers.IsRateLimited(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		if p.notify != nil {
			p.notify(attempt, err, delay)
		}
	}
	return backoff.RetryNotifyWithTimer(operation, b, notify, timer)
}

// linear yields step, 2×step, 3×step, ...
type linear struct {
	step    time.Duration
	attempt int
}

func (l *linear) NextBackOff() time.Duration {
	l.attempt++
	return time.Duration(l.attempt) * l.step
}

func (l *linear) Reset() {
	l.attempt = 0
}
