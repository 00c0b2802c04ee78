package models

import (
	"slices"
	"time"

	"domainwatch/pkg/domain"
)

// Status is the analysis lifecycle state of a domain record.
//
//	UNSEEN -> ANALYZING -> READY | ERROR
//
// ANALYZING is re-entrant: READY and ERROR records re-enter it on the next pass.
type Status string

const (
	StatusUnseen    Status = "UNSEEN"
	StatusAnalyzing Status = "ANALYZING"
	StatusReady     Status = "READY"
	StatusError     Status = "ERROR"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUnseen, StatusAnalyzing, StatusReady, StatusError:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Reputation is the normalized threat-intel verdict for a domain.
type Reputation struct {
	DetectionCount int      `json:"detection_count"`
	EngineCount    int      `json:"engine_count"`
	FlaggedEngines []string `json:"flagged_engines"` // sorted, no duplicates
}

// NewReputation normalizes the flagged engine set.
func NewReputation(detections, engines int, flagged []string) Reputation {
	set := slices.Clone(flagged)
	slices.Sort(set)
	set = slices.Compact(set)
	if set == nil {
		set = []string{}
	}
	return Reputation{
		DetectionCount: max(detections, 0),
		EngineCount:    max(engines, 0),
		FlaggedEngines: set,
	}
}

// EmptyReputation is the fallback value used when the provider could not answer.
func EmptyReputation() Reputation {
	return NewReputation(0, 0, nil)
}

// Registration is the WHOIS-derived ownership data. Every field may be unknown.
type Registration struct {
	Owner     *string    `json:"owner"`
	CreatedAt *time.Time `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Record is the single persisted row per domain.
type Record struct {
	Name          domain.Name
	Status        Status
	Reputation    *Reputation
	Registration  *Registration
	LastScannedAt *time.Time
	UpdatedAt     time.Time
}

// IsStale reports whether the record has never completed a pass or the last
// completed pass is strictly older than threshold.
func (r *Record) IsStale(now time.Time, threshold time.Duration) bool {
	if r.LastScannedAt == nil {
		return true
	}
	return r.LastScannedAt.Before(now.Add(-threshold))
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Reputation != nil {
		rep := *r.Reputation
		rep.FlaggedEngines = slices.Clone(r.Reputation.FlaggedEngines)
		out.Reputation = &rep
	}
	if r.Registration != nil {
		reg := Registration{
			Owner:     clonePtr(r.Registration.Owner),
			CreatedAt: clonePtr(r.Registration.CreatedAt),
			ExpiresAt: clonePtr(r.Registration.ExpiresAt),
		}
		out.Registration = &reg
	}
	out.LastScannedAt = clonePtr(r.LastScannedAt)
	return &out
}

// Update is a partial upsert. Nil fields are left untouched on the stored record.
type Update struct {
	Status        *Status
	Reputation    *Reputation
	Registration  *Registration
	LastScannedAt *time.Time
}

// StatusUpdate changes only the status.
func StatusUpdate(s Status) Update {
	return Update{Status: &s}
}

// CompletedUpdate publishes a finished pass in one write.
func CompletedUpdate(rep Reputation, reg Registration, scannedAt time.Time) Update {
	status := StatusReady
	return Update{
		Status:        &status,
		Reputation:    &rep,
		Registration:  &reg,
		LastScannedAt: &scannedAt,
	}
}

// Apply overwrites the supplied fields on rec. LastScannedAt never moves backwards.
func (u Update) Apply(rec *Record) {
	if u.Status != nil {
		rec.Status = *u.Status
	}
	if u.Reputation != nil {
		rep := NewReputation(u.Reputation.DetectionCount, u.Reputation.EngineCount, u.Reputation.FlaggedEngines)
		rec.Reputation = &rep
	}
	if u.Registration != nil {
		reg := Registration{
			Owner:     clonePtr(u.Registration.Owner),
			CreatedAt: clonePtr(u.Registration.CreatedAt),
			ExpiresAt: clonePtr(u.Registration.ExpiresAt),
		}
		rec.Registration = &reg
	}
	if u.LastScannedAt != nil {
		if rec.LastScannedAt == nil || u.LastScannedAt.After(*rec.LastScannedAt) {
			t := *u.LastScannedAt
			rec.LastScannedAt = &t
		}
	}
}

// NewRecord is the record created on first upsert, before the update is applied.
func NewRecord(name domain.Name) *Record {
	return &Record{Name: name, Status: StatusUnseen}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
