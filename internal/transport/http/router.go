package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "domainwatch/internal/platform/metrics"
	"domainwatch/internal/platform/middleware"
	"domainwatch/pkg/platform/httputil"
	"domainwatch/pkg/platform/middleware/metadata"
	"domainwatch/pkg/platform/middleware/requesttime"
)

// DefaultRequestTimeout bounds every inbound request.
const DefaultRequestTimeout = 15 * time.Second

// HealthFunc reports whether a backing dependency is reachable.
type HealthFunc func(r *http.Request) error

// RouterConfig collects the pieces NewRouter mounts.
type RouterConfig struct {
	Handler        *Handler
	Logger         *slog.Logger
	Gatherer       prometheus.Gatherer // nil hides /metrics
	HTTPMetrics    *platformmetrics.HTTP
	Health         HealthFunc          // nil always reports ok
	RequestTimeout time.Duration
	CORSOrigins    []string // empty allows any origin
}

// NewRouter wires the middleware chain and all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(logger))
	r.Use(cfg.HTTPMetrics.Middleware)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", healthz(cfg.Health))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Handler != nil {
		cfg.Handler.Register(r)
	}
	return r
}

func healthz(check HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
