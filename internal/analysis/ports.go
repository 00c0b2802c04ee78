package analysis

import (
	"context"
	"time"

	"domainwatch/internal/domains/models"
	"domainwatch/internal/intel/providers"
	"domainwatch/pkg/domain"
)

// RecordStore persists one record per domain. Upsert must create the record
// when absent and overwrite only the fields the update supplies.
type RecordStore interface {
	Get(ctx context.Context, name domain.Name) (*models.Record, error)
	Upsert(ctx context.Context, name domain.Name, u models.Update) error
	ListStale(ctx context.Context, cutoff time.Time) ([]domain.Name, error)
}

// ReputationChecker returns a reputation verdict, degraded on failure.
type ReputationChecker interface {
	Check(ctx context.Context, name domain.Name) providers.Outcome[models.Reputation]
}

// RegistrationLookup returns WHOIS registration data, degraded on failure.
type RegistrationLookup interface {
	Lookup(ctx context.Context, name domain.Name) providers.Outcome[models.Registration]
}
