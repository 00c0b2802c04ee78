package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"domainwatch/internal/analysis/mocks"
	"domainwatch/internal/domains/models"
	"domainwatch/internal/domains/store"
	"domainwatch/pkg/domain"
)

// =============================================================================
// Scheduler Test Suite
// =============================================================================
// Justification for unit tests: the sweep decides which records get
// re-analyzed. Tests pin the staleness cutoff, the per-domain independence of
// dispatches, and that a failed listing only aborts the current sweep.

type SchedulerSuite struct {
	suite.Suite
	now time.Time
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
}

// recordingRequester remembers requested names and dedups like the dispatcher.
type recordingRequester struct {
	requested []domain.Name
	busy      map[domain.Name]bool
}

func (r *recordingRequester) RequestAnalysis(name domain.Name) bool {
	r.requested = append(r.requested, name)
	return !r.busy[name]
}

func (s *SchedulerSuite) seed(records *store.InMemoryStore, name string, scannedDaysAgo int) domain.Name {
	n := domain.MustParseName(name)
	u := models.StatusUpdate(models.StatusAnalyzing)
	if scannedDaysAgo >= 0 {
		u = models.CompletedUpdate(models.EmptyReputation(), models.Registration{}, s.now.AddDate(0, 0, -scannedDaysAgo))
	}
	s.Require().NoError(records.Upsert(context.Background(), n, u))
	return n
}

func (s *SchedulerSuite) TestNewScheduler() {
	records := store.NewInMemoryStore()
	req := &recordingRequester{}

	s.Run("nil store returns error", func() {
		_, err := NewScheduler(nil, req)
		s.ErrorContains(err, "record store is required")
	})

	s.Run("nil dispatcher returns error", func() {
		_, err := NewScheduler(records, nil)
		s.ErrorContains(err, "dispatcher is required")
	})

	s.Run("invalid schedule returns error", func() {
		_, err := NewScheduler(records, req, WithSchedule("every night"))
		s.ErrorContains(err, "invalid scan schedule")
	})

	s.Run("non positive threshold returns error", func() {
		_, err := NewScheduler(records, req, WithStaleAfter(0))
		s.Error(err)
	})

	s.Run("defaults are nightly and thirty days", func() {
		sched, err := NewScheduler(records, req)
		s.Require().NoError(err)
		s.Equal("0 3 * * *", sched.schedule)
		s.Equal(30*24*time.Hour, sched.staleAfter)
	})
}

func (s *SchedulerSuite) TestSweep_SelectsStaleAndNeverScanned() {
	records := store.NewInMemoryStore()
	old := s.seed(records, "old.com", 31)
	s.seed(records, "fresh.com", 29)
	never := s.seed(records, "never.com", -1)
	req := &recordingRequester{}

	sched, err := NewScheduler(records, req, WithSchedulerClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	res, err := sched.Sweep(context.Background())

	s.Require().NoError(err)
	s.Equal(SweepResult{Selected: 2, Started: 2}, res)
	s.ElementsMatch([]domain.Name{old, never}, req.requested)
}

func (s *SchedulerSuite) TestSweep_CountsDeduplicatedDispatches() {
	records := store.NewInMemoryStore()
	busy := s.seed(records, "busy.com", 45)
	s.seed(records, "idle.com", 45)
	req := &recordingRequester{busy: map[domain.Name]bool{busy: true}}

	sched, err := NewScheduler(records, req, WithSchedulerClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	res, err := sched.Sweep(context.Background())

	s.Require().NoError(err)
	s.Equal(SweepResult{Selected: 2, Started: 1, Deduplicated: 1}, res)
}

func (s *SchedulerSuite) TestSweep_ListingFailureAbortsSweep() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()
	records := mocks.NewMockRecordStore(ctrl)
	records.EXPECT().ListStale(gomock.Any(), s.now.Add(-DefaultStaleAfter)).Return(nil, errors.New("timeout"))
	req := &recordingRequester{}

	sched, err := NewScheduler(records, req, WithSchedulerClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	_, err = sched.Sweep(context.Background())

	s.ErrorContains(err, "list stale domains")
	s.Empty(req.requested)
}

func (s *SchedulerSuite) TestStartStop() {
	sched, err := NewScheduler(store.NewInMemoryStore(), &recordingRequester{}, WithSchedule("*/5 * * * *"))
	s.Require().NoError(err)

	sched.Start()
	ctx := sched.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		s.Fail("scheduler did not stop")
	}
}
