// Package requestlog records one append-only entry per inbound query: the
// domain asked about, how it was asked, and the status returned.
package requestlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the externally visible answer recorded for a request.
type Status string

const (
	StatusInvalid    Status = "INVALID"
	StatusOnAnalysis Status = "OnAnalysis"
	StatusReady      Status = "READY"
)

// Entry is one request log row. Domain holds the normalized name, or the raw
// input for INVALID entries.
type Entry struct {
	ID        uuid.UUID
	Timestamp time.Time
	Domain    string
	Method    string
	Status    Status
	RequestID string
	ClientIP  string
	UserAgent string
	Client    string // compact browser/OS summary of UserAgent
}

// Store appends entries. Entries are never updated or deleted.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}
