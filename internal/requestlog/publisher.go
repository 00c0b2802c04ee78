package requestlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrPublisherClosed is returned by Emit after Close.
var ErrPublisherClosed = errors.New("request log publisher is closed")

// Publisher stamps entries and hands them to a Store, either inline or
// through a bounded background buffer. Store failures are logged and never
// propagate to the inbound request.
type Publisher struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time

	buffer    chan Entry
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) { p.clock = clock }
}

// WithAsyncBuffer appends from a background worker. When the buffer is full
// the entry is dropped and logged rather than blocking the request.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan Entry, size)
		}
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit fills ID, Timestamp and Client, then records the entry.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = p.clock()
	}
	if entry.Client == "" {
		entry.Client = SummarizeClient(entry.UserAgent)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if p.buffer == nil {
		if err := p.store.Append(ctx, entry); err != nil {
			p.logFailure(ctx, entry, err)
			return err
		}
		return nil
	}

	select {
	case p.buffer <- entry:
	default:
		p.logger.WarnContext(ctx, "request log buffer full, dropping entry",
			"domain", entry.Domain,
			"status", string(entry.Status),
			"request_id", entry.RequestID,
		)
	}
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for entry := range p.buffer {
		if err := p.store.Append(context.Background(), entry); err != nil {
			p.logFailure(context.Background(), entry, err)
		}
	}
}

func (p *Publisher) logFailure(ctx context.Context, entry Entry, err error) {
	p.logger.ErrorContext(ctx, "failed to append request log entry",
		"domain", entry.Domain,
		"status", string(entry.Status),
		"request_id", entry.RequestID,
		"error", err,
	)
}

// Close stops accepting entries and flushes the buffer.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}
