// Package reputation fetches threat-intelligence verdicts for domains from
// VirusTotal and reduces them to detection counts and flagged engines.
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"domainwatch/internal/domains/models"
	"domainwatch/internal/intel/providers"
	"domainwatch/pkg/domain"
)

const (
	ProviderID     = "virustotal"
	DefaultBaseURL = "https://www.virustotal.com"
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

// Config holds the provider credentials and endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client issues single, unretried VirusTotal domain lookups.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRateLimit paces every outbound attempt, retries included.
func WithRateLimit(l *rate.Limiter) Option {
	return func(cl *Client) { cl.limiter = l }
}

// New validates the configuration and builds a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("virustotal: %w", providers.ErrMissingCredential)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type domainReport struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
			} `json:"last_analysis_stats"`
			LastAnalysisResults map[string]engineResult `json:"last_analysis_results"`
		} `json:"attributes"`
	} `json:"data"`
}

type engineResult struct {
	Category string `json:"category"`
}

// Fetch performs exactly one lookup. Failures come back as *providers.ProviderError.
func (c *Client) Fetch(ctx context.Context, name domain.Name) (models.Reputation, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return models.Reputation{}, providers.NewProviderError(providers.ErrorTimeout, ProviderID, "rate limiter wait", err)
		}
	}

	endpoint := c.baseURL + "/api/v3/domains/" + url.PathEscape(name.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Reputation{}, providers.NewProviderError(providers.ErrorInternal, ProviderID, "build request", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Reputation{}, providers.FromTransport(ProviderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return models.Reputation{}, providers.FromStatus(ProviderID, resp.StatusCode)
	}

	var report domainReport
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&report); err != nil {
		return models.Reputation{}, providers.NewProviderError(providers.ErrorBadData, ProviderID, "decode response", err)
	}
	return normalize(report), nil
}

func normalize(report domainReport) models.Reputation {
	attrs := report.Data.Attributes
	var flagged []string
	for engine, result := range attrs.LastAnalysisResults {
		if result.Category == "malicious" || result.Category == "suspicious" {
			flagged = append(flagged, engine)
		}
	}
	return models.NewReputation(
		attrs.LastAnalysisStats.Malicious+attrs.LastAnalysisStats.Suspicious,
		len(attrs.LastAnalysisResults),
		flagged,
	)
}
