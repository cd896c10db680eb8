// Package caseapi wraps the upstream case-management REST API for caseflow.
//
// It fetches case records by GUID and maps the upstream failure modes onto
// sentinel errors so the HTTP layer can surface not-found, rate-limited and
// upstream-degraded cases with distinct statuses.
package caseapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sesamtech/caseflow/internal/models"
)

// Sentinel errors for the classified upstream outcomes. Anything else is a
// generic failure.
var (
	// ErrCaseNotFound means the GUID is unknown upstream.
	ErrCaseNotFound = errors.New("case not found")
	// ErrRateLimited means the upstream API rejected the call with 429.
	ErrRateLimited = errors.New("case API rate limited")
	// ErrUpstream means the upstream API returned a server error.
	ErrUpstream = errors.New("case API server error")
)

// DefaultTimeout bounds a single case fetch.
const DefaultTimeout = 15 * time.Second

// Opts holds configuration options for the case-management client.
type Opts struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// Option defines a configuration option for the case-management client.
type Option func(*Opts)

// WithBaseURL sets the upstream API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *Opts) { o.BaseURL = baseURL }
}

// WithAccessToken sets the upstream API access token.
func WithAccessToken(token string) Option {
	return func(o *Opts) { o.AccessToken = token }
}

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Client fetches case records from the upstream case-management API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewClient creates a case-management client. Options missing from opts fall
// back to environment variables (CASE_API_BASE_URL, CASE_API_TOKEN).
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("CASE_API_BASE_URL")
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("CASE_API_TOKEN")
	}
	slog.Debug("caseapi.NewClient: config loaded",
		"base_url_set", cfg.BaseURL != "",
		"access_token_set", cfg.AccessToken != "")

	if cfg.BaseURL == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("case API base URL and access token must be provided")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{httpClient: httpClient, baseURL: cfg.BaseURL, accessToken: cfg.AccessToken}, nil
}

// FetchCase retrieves the case record for the given GUID.
func (c *Client) FetchCase(ctx context.Context, guid string) (*models.CaseEnvelope, error) {
	query := url.Values{}
	query.Set("accessToken", c.accessToken)
	query.Set("guid", guid)
	apiURL := fmt.Sprintf("%s/api/v3/case?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build case request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Client.FetchCase: request failed", "error", err, "guid", guid)
		return nil, fmt.Errorf("case request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		slog.Warn("Client.FetchCase: case not found", "guid", guid)
		return nil, ErrCaseNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		slog.Warn("Client.FetchCase: rate limited", "guid", guid)
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		slog.Error("Client.FetchCase: upstream server error", "status", resp.StatusCode, "guid", guid)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		slog.Error("Client.FetchCase: unexpected status", "status", resp.StatusCode, "guid", guid)
		return nil, fmt.Errorf("unexpected case API status %d", resp.StatusCode)
	}

	var envelope models.CaseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		slog.Error("Client.FetchCase: failed to decode case record", "error", err, "guid", guid)
		return nil, fmt.Errorf("failed to decode case record: %w", err)
	}

	slog.Debug("Client.FetchCase: case fetched", "guid", guid, "case_number", envelope.Data.CaseNumber, "service_type_id", envelope.Data.ServiceTypeID)
	return &envelope, nil
}
