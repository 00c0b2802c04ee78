// Package query answers inbound domain lookups: it validates the name,
// serves READY records, dispatches analysis for everything else and writes
// one request log entry per call.
package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"domainwatch/internal/analysis"
	"domainwatch/internal/domains/models"
	"domainwatch/internal/requestlog"
	"domainwatch/pkg/domain"
	"domainwatch/pkg/platform/sentinel"
	"domainwatch/pkg/requestcontext"
)

// Methods recorded in the request log.
const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

// RecordReader loads a domain record.
type RecordReader interface {
	Get(ctx context.Context, name domain.Name) (*models.Record, error)
}

// EntryEmitter writes request log entries.
type EntryEmitter interface {
	Emit(ctx context.Context, entry requestlog.Entry) error
}

// Answer is what a caller sees. Record is set only when Status is READY.
type Answer struct {
	Domain domain.Name
	Status requestlog.Status
	Record *models.Record
}

// Service implements the inbound query interface.
type Service struct {
	records    RecordReader
	dispatcher analysis.AnalysisRequester
	requestLog EntryEmitter
	staleAfter time.Duration
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithStaleAfter sets the age after which a READY record served on read also
// triggers a background refresh. Zero disables refresh-on-read.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Service) { s.staleAfter = d }
}

func New(records RecordReader, dispatcher analysis.AnalysisRequester, requestLog EntryEmitter, opts ...Option) (*Service, error) {
	if records == nil {
		return nil, errors.New("record store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if requestLog == nil {
		return nil, errors.New("request log is required")
	}
	s := &Service{
		records:    records,
		dispatcher: dispatcher,
		requestLog: requestLog,
		staleAfter: analysis.DefaultStaleAfter,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the READY record, or dispatches analysis and reports OnAnalysis.
// An invalid name returns a bad_request error and touches no record.
func (s *Service) Get(ctx context.Context, raw string) (*Answer, error) {
	name, err := domain.ParseName(raw)
	if err != nil {
		s.emit(ctx, strings.ToLower(raw), MethodGet, requestlog.StatusInvalid)
		return nil, err
	}

	rec, err := s.records.Get(ctx, name)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		rec = nil
	case err != nil:
		return nil, fmt.Errorf("load domain record: %w", err)
	}

	if rec == nil || rec.Status != models.StatusReady {
		s.dispatch(ctx, name)
		s.emit(ctx, name.String(), MethodGet, requestlog.StatusOnAnalysis)
		return &Answer{Domain: name, Status: requestlog.StatusOnAnalysis}, nil
	}

	if s.staleAfter > 0 && rec.IsStale(requestcontext.Now(ctx), s.staleAfter) {
		s.dispatch(ctx, name)
	}
	s.emit(ctx, name.String(), MethodGet, requestlog.StatusReady)
	return &Answer{Domain: name, Status: requestlog.StatusReady, Record: rec}, nil
}

// Trigger dispatches analysis regardless of the current record state.
func (s *Service) Trigger(ctx context.Context, raw string) (*Answer, error) {
	name, err := domain.ParseName(raw)
	if err != nil {
		s.emit(ctx, strings.ToLower(raw), MethodPost, requestlog.StatusInvalid)
		return nil, err
	}
	s.dispatch(ctx, name)
	s.emit(ctx, name.String(), MethodPost, requestlog.StatusOnAnalysis)
	return &Answer{Domain: name, Status: requestlog.StatusOnAnalysis}, nil
}

func (s *Service) dispatch(ctx context.Context, name domain.Name) {
	started := s.dispatcher.RequestAnalysis(name)
	s.logger.DebugContext(ctx, "analysis requested",
		"domain", name.String(),
		"started", started,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) emit(ctx context.Context, domainValue, method string, status requestlog.Status) {
	err := s.requestLog.Emit(ctx, requestlog.Entry{
		Domain:    domainValue,
		Method:    method,
		Status:    status,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "request log entry not recorded",
			"domain", domainValue,
			"status", string(status),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
