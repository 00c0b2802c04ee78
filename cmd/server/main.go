package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"domainwatch/internal/analysis"
	analysismetrics "domainwatch/internal/analysis/metrics"
	"domainwatch/internal/domains/store"
	"domainwatch/internal/intel/registration"
	"domainwatch/internal/intel/reputation"
	"domainwatch/internal/platform/config"
	"domainwatch/internal/platform/httpserver"
	"domainwatch/internal/platform/logger"
	platformmetrics "domainwatch/internal/platform/metrics"
	"domainwatch/internal/platform/postgres"
	platformredis "domainwatch/internal/platform/redis"
	"domainwatch/internal/query"
	"domainwatch/internal/requestlog"
	logkafka "domainwatch/internal/requestlog/store/kafka"
	logmemory "domainwatch/internal/requestlog/store/memory"
	logpostgres "domainwatch/internal/requestlog/store/postgres"
	httptransport "domainwatch/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("domainwatch stopped", "error", err)
		os.Exit(1)
	}
}

// closers run in reverse order of registration at shutdown.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var cleanup closers
	defer cleanup.closeAll()

	registry := platformmetrics.NewRegistry()
	m := analysismetrics.New(registry)

	records, health, err := buildRecordStore(ctx, cfg, &cleanup)
	if err != nil {
		return err
	}
	logStore, err := buildRequestLogStore(ctx, cfg, &cleanup)
	if err != nil {
		return err
	}

	vtOpts := []reputation.Option{}
	if rpm := cfg.VirusTotal.RequestsPerMinute; rpm > 0 {
		vtOpts = append(vtOpts, reputation.WithRateLimit(rate.NewLimiter(rate.Limit(float64(rpm)/60), 1)))
	}
	vtClient, err := reputation.New(reputation.Config{
		APIKey:  cfg.VirusTotal.APIKey,
		BaseURL: cfg.VirusTotal.BaseURL,
		Timeout: cfg.VirusTotal.Timeout,
	}, vtOpts...)
	if err != nil {
		return err
	}
	checker := reputation.NewChecker(vtClient,
		reputation.WithLogger(log),
		reputation.WithRetryHook(func(int, time.Duration) { m.IncrementReputationRetry() }),
	)

	whoisClient, err := registration.New(registration.Config{
		APIKey:  cfg.Whois.APIKey,
		BaseURL: cfg.Whois.BaseURL,
		Timeout: cfg.Whois.Timeout,
	}, registration.WithLogger(log))
	if err != nil {
		return err
	}

	analyzer, err := analysis.NewAnalyzer(records, checker, whoisClient,
		analysis.WithLogger(log),
		analysis.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	dispatcher, err := analysis.NewDispatcher(analyzer,
		analysis.WithDispatcherLogger(log),
		analysis.WithDispatcherMetrics(m),
		analysis.WithMaxConcurrent(cfg.Analysis.MaxConcurrent),
	)
	if err != nil {
		return err
	}
	scheduler, err := analysis.NewScheduler(records, dispatcher,
		analysis.WithSchedule(cfg.Analysis.Schedule),
		analysis.WithStaleAfter(cfg.Analysis.StaleAfter),
		analysis.WithSchedulerLogger(log),
		analysis.WithSchedulerMetrics(m),
	)
	if err != nil {
		return err
	}

	publisher := requestlog.NewPublisher(logStore,
		requestlog.WithLogger(log),
		requestlog.WithAsyncBuffer(cfg.RequestLog.AsyncBuffer),
	)
	svc, err := query.New(records, dispatcher, publisher,
		query.WithLogger(log),
		query.WithStaleAfter(cfg.Analysis.StaleAfter),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Handler:        httptransport.New(svc, log),
		Logger:         log,
		Gatherer:       registry,
		HTTPMetrics:    platformmetrics.NewHTTP(registry),
		Health:         health,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	scheduler.Start()
	log.Info("starting domainwatch",
		"addr", cfg.Server.Addr,
		"record_store", cfg.Records.Backend,
		"request_log_sink", cfg.RequestLog.Sink,
	)

	serveErr := httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)

	<-scheduler.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn("analyses still running at shutdown", "pending", dispatcher.Pending(), "error", err)
	}
	publisher.Close()
	return serveErr
}

func buildRecordStore(ctx context.Context, cfg *config.Config, cleanup *closers) (analysis.RecordStore, httptransport.HealthFunc, error) {
	switch cfg.Records.Backend {
	case config.BackendPostgres:
		pool, err := postgres.OpenPool(ctx, cfg.Records.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		cleanup.add(pool.Close)
		s := store.NewPostgresStore(pool)
		if err := s.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate domain records: %w", err)
		}
		return s, func(r *http.Request) error { return pool.Ping(r.Context()) }, nil
	case config.BackendRedis:
		rc, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if rc == nil {
			return nil, nil, errors.New("REDIS_URL is required when RECORD_STORE=redis")
		}
		cleanup.add(func() { _ = rc.Close() })
		return store.NewRedisStore(rc.Client), func(r *http.Request) error { return rc.Health(r.Context()) }, nil
	default:
		return store.NewInMemoryStore(), nil, nil
	}
}

func buildRequestLogStore(ctx context.Context, cfg *config.Config, cleanup *closers) (requestlog.Store, error) {
	switch cfg.RequestLog.Sink {
	case config.BackendPostgres:
		db, err := postgres.OpenDB(ctx, cfg.Records.DatabaseURL)
		if err != nil {
			return nil, err
		}
		cleanup.add(func() { _ = db.Close() })
		s := logpostgres.New(db)
		if err := s.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate request log: %w", err)
		}
		return s, nil
	case config.BackendKafka:
		cl, err := logkafka.NewClient(cfg.RequestLog.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		cleanup.add(cl.Close)
		if err := logkafka.EnsureTopic(ctx, cl, cfg.RequestLog.KafkaTopic,
			cfg.RequestLog.KafkaPartitions, cfg.RequestLog.KafkaReplication); err != nil {
			return nil, err
		}
		return logkafka.New(cl, cfg.RequestLog.KafkaTopic), nil
	default:
		return logmemory.NewInMemoryStore(), nil
	}
}
