package httptransport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"domainwatch/internal/analysis"
	"domainwatch/internal/analysis/metrics"
	"domainwatch/internal/domains/store"
	"domainwatch/internal/intel/registration"
	"domainwatch/internal/intel/reputation"
	"domainwatch/internal/intel/retry"
	"domainwatch/internal/intel/retry/retrytest"
	platformmetrics "domainwatch/internal/platform/metrics"
	"domainwatch/internal/platform/middleware"
	"domainwatch/internal/query"
	"domainwatch/internal/requestlog"
	logmemory "domainwatch/internal/requestlog/store/memory"
	"domainwatch/pkg/testutil"
)

const vtReport = `{"data": {"attributes": {
  "last_analysis_stats": {"malicious": 2, "suspicious": 1},
  "last_analysis_results": {
    "Sophos":      {"category": "malicious"},
    "BitDefender": {"category": "suspicious"},
    "Fortinet":    {"category": "malicious"},
    "Google":      {"category": "harmless"}
  }}}}`

const whoisReport = `{"org": "Example Org", "creation_date": [808372800], "expiration_date": 1723608000}`

// RouterFlowSuite drives the full stack (router, query service, dispatcher,
// analyzer, providers) against fake provider servers and in-memory stores.
//
// Justification: handler tests mock the service; this suite proves the parts
// agree on the wire, including the OnAnalysis -> READY transition.
type RouterFlowSuite struct {
	suite.Suite
	router     http.Handler
	dispatcher *analysis.Dispatcher
	records    *store.InMemoryStore
	log        *logmemory.InMemoryStore
	registry   *prometheus.Registry
	vtCalls    atomic.Int32
}

func TestRouterFlowSuite(t *testing.T) {
	suite.Run(t, new(RouterFlowSuite))
}

func (s *RouterFlowSuite) SetupTest() {
	s.vtCalls.Store(0)
	vt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.vtCalls.Add(1)
		_, _ = w.Write([]byte(vtReport))
	}))
	s.T().Cleanup(vt.Close)
	whois := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(whoisReport))
	}))
	s.T().Cleanup(whois.Close)

	vtClient, err := reputation.New(reputation.Config{APIKey: "vt", BaseURL: vt.URL})
	s.Require().NoError(err)
	timer := &retrytest.Recorder{}
	checker := reputation.NewChecker(vtClient, reputation.WithRetryOptions(retry.WithTimer(timer.NewTimer)))
	whoisClient, err := registration.New(registration.Config{APIKey: "whois", BaseURL: whois.URL})
	s.Require().NoError(err)

	s.registry = prometheus.NewRegistry()
	m := metrics.New(s.registry)
	s.records = store.NewInMemoryStore()
	analyzer, err := analysis.NewAnalyzer(s.records, checker, whoisClient, analysis.WithMetrics(m))
	s.Require().NoError(err)
	s.dispatcher, err = analysis.NewDispatcher(analyzer, analysis.WithDispatcherMetrics(m))
	s.Require().NoError(err)

	s.log = logmemory.NewInMemoryStore()
	svc, err := query.New(s.records, s.dispatcher, requestlog.NewPublisher(s.log))
	s.Require().NoError(err)

	s.router = NewRouter(RouterConfig{
		Handler:     New(svc, nil),
		Gatherer:    s.registry,
		HTTPMetrics: platformmetrics.NewHTTP(s.registry),
	})
}

func (s *RouterFlowSuite) waitForAnalyses() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.dispatcher.Wait(ctx))
}

// =============================================================================
// Lookup flow
// =============================================================================

func (s *RouterFlowSuite) TestUnknownDomainBecomesReady() {
	t := s.T()
	rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/get?domain=Example.com"))
	testutil.AssertStatusOK(t, rr)
	first := testutil.UnmarshalResponse[map[string]any](t, rr)
	s.Equal("example.com", (*first)["domain"])
	s.Equal("OnAnalysis", (*first)["status"])

	s.waitForAnalyses()

	rr = testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/get?domain=example.com"))
	testutil.AssertStatusOK(t, rr)
	body := testutil.UnmarshalResponse[lookupResponse](t, rr)
	s.Equal("READY", body.Status)
	s.Require().NotNil(body.Reputation)
	s.Equal(3, body.Reputation.Detections)
	s.Equal(4, body.Reputation.Engines)
	s.Equal([]string{"BitDefender", "Fortinet", "Sophos"}, body.Reputation.FlaggedEngines)
	s.Require().NotNil(body.Registration.Owner)
	s.Equal("Example Org", *body.Registration.Owner)
	s.Require().NotNil(body.Registration.Created)
	s.Equal(int64(808372800), body.Registration.Created.Unix())
	s.Require().NotNil(body.LastUpdated)
	s.Equal(int32(1), s.vtCalls.Load())

	entries, err := s.log.ListByDomain(context.Background(), "example.com")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(requestlog.StatusOnAnalysis, entries[0].Status)
	s.Equal(requestlog.StatusReady, entries[1].Status)
}

func (s *RouterFlowSuite) TestPostTriggersAnalysis() {
	t := s.T()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/post", map[string]string{"domain": "example.net"})
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "OnAnalysis")
	s.waitForAnalyses()

	rec, err := s.records.Get(context.Background(), "example.net")
	s.Require().NoError(err)
	s.Equal("READY", rec.Status.String())

	entries, err := s.log.ListByDomain(context.Background(), "example.net")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("POST", entries[0].Method)
	s.Equal("203.0.113.9", entries[0].ClientIP)
	s.NotEmpty(entries[0].RequestID)
	s.Equal(rr.Header().Get(middleware.RequestIDHeader), entries[0].RequestID)
}

func (s *RouterFlowSuite) TestReanalysisWithUnchangedUpstreamIsIdempotent() {
	t := s.T()
	ctx := context.Background()
	trigger := func() {
		rr := testutil.DoRequest(s.router,
			testutil.NewJSONRequest(t, http.MethodPost, "/post", map[string]string{"domain": "example.io"}))
		testutil.AssertStatusOK(t, rr)
		s.waitForAnalyses()
	}

	trigger()
	first, err := s.records.Get(ctx, "example.io")
	s.Require().NoError(err)
	trigger()
	second, err := s.records.Get(ctx, "example.io")
	s.Require().NoError(err)

	s.Equal(first.Reputation, second.Reputation)
	s.Equal(first.Registration, second.Registration)
	s.Require().NotNil(second.LastScannedAt)
	s.False(second.LastScannedAt.Before(*first.LastScannedAt))
	s.Equal(int32(2), s.vtCalls.Load())
}

func (s *RouterFlowSuite) TestInvalidDomainIsRejected() {
	t := s.T()
	rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/get?domain=not_a_domain"))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	errResp := testutil.UnmarshalErrorResponse(t, rr)
	s.Equal("bad_request", errResp["error"])
	s.Equal("invalid domain", errResp["error_description"])
	s.Equal(0, s.records.Len())
	s.Equal(int32(0), s.vtCalls.Load())

	entries, err := s.log.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(requestlog.StatusInvalid, entries[0].Status)
}

// =============================================================================
// Operational endpoints
// =============================================================================

func (s *RouterFlowSuite) TestHealthAndMetrics() {
	t := s.T()
	rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "ok")

	testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/get?domain=example.com"))
	s.waitForAnalyses()

	rr = testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	s.Contains(rr.Body.String(), "domainwatch_analyses_total")
	s.Contains(rr.Body.String(), `domainwatch_http_requests_total{method="GET",route="/get",status="200"} 1`)
}

func (s *RouterFlowSuite) TestRequestIDIsEchoed() {
	t := s.T()
	req := testutil.NewRequest(t, http.MethodGet, "/healthz")
	req.Header.Set(middleware.RequestIDHeader, "req-123")

	rr := testutil.DoRequest(s.router, req)

	s.Equal("req-123", rr.Header().Get(middleware.RequestIDHeader))
}

func (s *RouterFlowSuite) TestBrowserFacingHeaders() {
	t := s.T()
	preflight := testutil.NewRequest(t, http.MethodOptions, "/get?domain=example.com")
	preflight.Header.Set("Origin", "https://dashboard.example.com")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rr := testutil.DoRequest(s.router, preflight)

	s.Contains([]string{"*", "https://dashboard.example.com"}, rr.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(rr.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	s.Equal(int32(0), s.vtCalls.Load())

	rr = testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/get?domain=example.com"))
	testutil.AssertStatusOK(t, rr)
	s.Equal("nosniff", rr.Header().Get("X-Content-Type-Options"))
	s.Equal("SAMEORIGIN", rr.Header().Get("X-Frame-Options"))
	s.Equal("no-referrer", rr.Header().Get("Referrer-Policy"))
}

func TestCORSRestrictsConfiguredOrigins(t *testing.T) {
	router := NewRouter(RouterConfig{CORSOrigins: []string{"https://dashboard.example.com"}})

	req := testutil.NewRequest(t, http.MethodGet, "/healthz")
	req.Header.Set("Origin", "https://other.example.net")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusOK(t, rr)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthzReportsFailingDependency(t *testing.T) {
	router := NewRouter(RouterConfig{
		Health: func(*http.Request) error { return errors.New("redis down") },
	})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestRecoveryRendersInternalError(t *testing.T) {
	r := NewRouter(RouterConfig{})
	mux, ok := r.(interface {
		Get(pattern string, h http.HandlerFunc)
	})
	require.True(t, ok)
	mux.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/boom"))

	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}
