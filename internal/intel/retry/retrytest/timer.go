// Package retrytest provides a backoff timer that fires immediately and
// remembers every delay it was asked to wait.
package retrytest

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Recorder hands out instant timers and collects their requested delays.
type Recorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

// NewTimer satisfies retry.WithTimer.
func (r *Recorder) NewTimer() backoff.Timer {
	return &instantTimer{rec: r, c: make(chan time.Time, 1)}
}

// Delays returns a copy of the delays requested so far.
func (r *Recorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.delays))
	copy(out, r.delays)
	return out
}

type instantTimer struct {
	rec *Recorder
	c   chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.rec.mu.Lock()
	t.rec.delays = append(t.rec.delays, d)
	t.rec.mu.Unlock()
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}
