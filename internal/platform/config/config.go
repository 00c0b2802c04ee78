// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by RECORD_STORE and REQUEST_LOG_SINK.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendKafka    = "kafka"
)

type Config struct {
	Server     Server
	Logging    Logging
	Records    Records
	Redis      RedisConfig
	RequestLog RequestLog
	VirusTotal Provider
	Whois      Provider
	Analysis   Analysis
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	CORSOrigins     []string // empty allows any origin
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type Logging struct {
	Level  string
	Format string
}

// Records selects the domain record store.
type Records struct {
	Backend     string
	DatabaseURL string
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RequestLog selects the sink for request log entries.
type RequestLog struct {
	Sink             string
	KafkaBrokers     []string
	KafkaTopic       string
	KafkaPartitions  int32
	KafkaReplication int16
	AsyncBuffer      int
}

// Provider holds the credentials and endpoint of one external lookup provider.
type Provider struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int // 0 = unlimited
}

type Analysis struct {
	Schedule      string
	StaleAfter    time.Duration
	MaxConcurrent int64 // 0 = unlimited
}

// Load reads .env when present, then the process environment, and validates the result.
func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables without validating it.
func FromEnv() (*Config, error) {
	p := &parser{}
	addr := getEnv("ADDR", "")
	if addr == "" {
		addr = ":" + getEnv("PORT", "3000")
	}

	cfg := &Config{
		Server: Server{
			Addr:            addr,
			CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
			RequestTimeout:  p.duration("REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Logging: Logging{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Records: Records{
			Backend:     strings.ToLower(getEnv("RECORD_STORE", BackendMemory)),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		RequestLog: RequestLog{
			Sink:             strings.ToLower(getEnv("REQUEST_LOG_SINK", BackendMemory)),
			KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "")),
			KafkaTopic:       getEnv("KAFKA_TOPIC", "domainwatch.request-log"),
			KafkaPartitions:  int32(p.int("KAFKA_TOPIC_PARTITIONS", 3)),
			KafkaReplication: int16(p.int("KAFKA_TOPIC_REPLICATION", 1)),
			AsyncBuffer:      p.int("REQUEST_LOG_BUFFER", 0),
		},
		VirusTotal: Provider{
			APIKey:            getEnv("VIRUSTOTAL_API_KEY", ""),
			BaseURL:           getEnv("VIRUSTOTAL_BASE_URL", ""),
			Timeout:           p.duration("VIRUSTOTAL_TIMEOUT", 30*time.Second),
			RequestsPerMinute: p.int("VIRUSTOTAL_REQUESTS_PER_MINUTE", 0),
		},
		Whois: Provider{
			APIKey:  getEnv("WHOIS_API_KEY", ""),
			BaseURL: getEnv("WHOIS_BASE_URL", ""),
			Timeout: p.duration("WHOIS_TIMEOUT", 10*time.Second),
		},
		Analysis: Analysis{
			Schedule:      getEnv("SCAN_SCHEDULE", "0 3 * * *"),
			StaleAfter:    p.duration("STALE_AFTER", 30*24*time.Hour),
			MaxConcurrent: int64(p.int("MAX_CONCURRENT_ANALYSES", 0)),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configuration the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.VirusTotal.APIKey == "" {
		errs = append(errs, errors.New("VIRUSTOTAL_API_KEY is required"))
	}
	if c.Whois.APIKey == "" {
		errs = append(errs, errors.New("WHOIS_API_KEY is required"))
	}

	switch c.Records.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Records.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when RECORD_STORE=postgres"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when RECORD_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("RECORD_STORE %q is not one of memory, postgres, redis", c.Records.Backend))
	}

	switch c.RequestLog.Sink {
	case BackendMemory:
	case BackendPostgres:
		if c.Records.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when REQUEST_LOG_SINK=postgres"))
		}
	case BackendKafka:
		if len(c.RequestLog.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when REQUEST_LOG_SINK=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("REQUEST_LOG_SINK %q is not one of memory, postgres, kafka", c.RequestLog.Sink))
	}

	if c.Analysis.StaleAfter <= 0 {
		errs = append(errs, errors.New("STALE_AFTER must be positive"))
	}
	if c.VirusTotal.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("VIRUSTOTAL_REQUESTS_PER_MINUTE must not be negative"))
	}
	if c.Analysis.MaxConcurrent < 0 {
		errs = append(errs, errors.New("MAX_CONCURRENT_ANALYSES must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects every malformed value so one startup reports them all.
type parser struct {
	errs []error
}

func (p *parser) int(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return defaultValue
	}
	return v
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return defaultValue
	}
	return v
}
