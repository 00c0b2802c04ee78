// Package registration looks up WHOIS ownership and lifecycle dates for a
// domain through the API Ninjas WHOIS endpoint.
package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"domainwatch/internal/domains/models"
	"domainwatch/internal/intel/providers"
	"domainwatch/pkg/domain"
)

const (
	ProviderID     = "whois"
	DefaultBaseURL = "https://api.api-ninjas.com"
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config holds the provider credentials and endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client performs one bounded WHOIS lookup per call and never retries.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// New validates the configuration and builds a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("whois: %w", providers.ErrMissingCredential)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type whoisResponse struct {
	Org            any             `json:"org"`
	Registrar      any             `json:"registrar"`
	CreationDate   json.RawMessage `json:"creation_date"`
	ExpirationDate json.RawMessage `json:"expiration_date"`
}

// Lookup returns the registration data, or an all-unknown degraded outcome on
// any failure.
func (c *Client) Lookup(ctx context.Context, name domain.Name) providers.Outcome[models.Registration] {
	reg, err := c.fetch(ctx, name)
	if err != nil {
		c.logger.WarnContext(ctx, "whois lookup failed, using fallback",
			"domain", name.String(),
			"category", providers.GetCategory(err),
			"error", err,
		)
		return providers.Fallback(models.Registration{}, err)
	}
	return providers.Succeeded(reg)
}

func (c *Client) fetch(ctx context.Context, name domain.Name) (models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/v1/whois?domain=" + url.QueryEscape(name.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Registration{}, providers.NewProviderError(providers.ErrorInternal, ProviderID, "build request", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Registration{}, providers.FromTransport(ProviderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return models.Registration{}, providers.FromStatus(ProviderID, resp.StatusCode)
	}

	var body whoisResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return models.Registration{}, providers.NewProviderError(providers.ErrorBadData, ProviderID, "decode response", err)
	}

	return models.Registration{
		Owner:     firstNonEmpty(body.Org, body.Registrar),
		CreatedAt: epochSeconds(body.CreationDate),
		ExpiresAt: epochSeconds(body.ExpirationDate),
	}, nil
}

func firstNonEmpty(values ...any) *string {
	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return &s
		}
	}
	return nil
}

// maxEpochSeconds is 9999-12-31T23:59:59Z, the last instant every store can encode.
const maxEpochSeconds = 253402300799

// epochSeconds accepts a number or an array of numbers (first element wins).
// Zero, negative, out of range, missing and anything else is unknown.
func epochSeconds(raw json.RawMessage) *time.Time {
	if len(raw) == 0 {
		return nil
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return nil
		}
		if err := json.Unmarshal(list[0], &secs); err != nil {
			return nil
		}
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 || secs > maxEpochSeconds {
		return nil
	}
	t := time.UnixMilli(int64(secs * 1000)).UTC()
	return &t
}
