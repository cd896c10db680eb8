// Package soap implements the HTTP client for the stock lookup service.
package soap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sesamtech/caseflow/internal/models"
	"github.com/sesamtech/caseflow/internal/util"
)

// SOAPAction header value for the single remote operation the adapter speaks.
const soapAction = "http://tempuri.org/IInternal_API/SwapStockLookUpVer2"

// DefaultTimeout bounds the single lookup attempt. The adapter never retries;
// a timed-out lookup degrades to unavailable like every other failure.
const DefaultTimeout = 15 * time.Second

// Opts holds configuration options for the stock lookup client.
type Opts struct {
	Endpoint    string
	Credentials Credentials
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// Option defines a configuration option for the stock lookup client.
type Option func(*Opts)

// WithEndpoint sets the SOAP endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(o *Opts) { o.Endpoint = endpoint }
}

// WithCredentials sets the fixed account credentials embedded in requests.
func WithCredentials(creds Credentials) Option {
	return func(o *Opts) { o.Credentials = creds }
}

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Client performs swap stock lookups against the legacy SOAP service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	creds      Credentials
}

// NewClient creates a stock lookup client. Options missing from opts fall
// back to environment variables (SOAP_API_ENDPOINT, SOAP_USERNAME,
// SOAP_PASSWORD, SOAP_SESAM_DB, SOAP_STOCK_NAME).
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("SOAP_API_ENDPOINT")
	}
	if cfg.Credentials.UserName == "" {
		cfg.Credentials.UserName = os.Getenv("SOAP_USERNAME")
	}
	if cfg.Credentials.Password == "" {
		cfg.Credentials.Password = os.Getenv("SOAP_PASSWORD")
	}
	if cfg.Credentials.SesamDB == "" {
		cfg.Credentials.SesamDB = os.Getenv("SOAP_SESAM_DB")
	}
	if cfg.Credentials.StockName == "" {
		cfg.Credentials.StockName = os.Getenv("SOAP_STOCK_NAME")
	}
	slog.Debug("soap.NewClient: config loaded",
		"endpoint_set", cfg.Endpoint != "",
		"username_set", cfg.Credentials.UserName != "",
		"password_set", cfg.Credentials.Password != "",
		"sesam_db_set", cfg.Credentials.SesamDB != "",
		"stock_name_set", cfg.Credentials.StockName != "")

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("SOAP endpoint must be provided")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
		// Some legacy stock endpoints still serve expired or self-signed
		// certificates; verification can be disabled explicitly.
		if util.ParseBoolEnv("SOAP_TLS_SKIP_VERIFY", false) {
			slog.Warn("soap.NewClient: TLS certificate verification disabled")
			httpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}

	return &Client{httpClient: httpClient, endpoint: cfg.Endpoint, creds: cfg.Credentials}, nil
}

// CheckStock looks up swap stock for the given model and brand. It performs a
// single attempt and never fails hard: network errors, non-2xx statuses and
// malformed responses all degrade to the empty unavailable result, with the
// cause logged. "Stock unknown" must read as "unavailable", not as an error.
func (c *Client) CheckStock(ctx context.Context, model, brand string) models.StockResult {
	envelope := BuildEnvelope(model, brand, c.creds)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(envelope))
	if err != nil {
		slog.Error("Client.CheckStock: failed to build request", "error", err, "model", model, "brand", brand)
		return models.EmptyStockResult()
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Client.CheckStock: lookup request failed", "error", err, "model", model, "brand", brand)
		return models.EmptyStockResult()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("Client.CheckStock: lookup returned non-2xx status", "status", resp.StatusCode, "model", model, "brand", brand)
		return models.EmptyStockResult()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Client.CheckStock: failed to read response body", "error", err, "model", model, "brand", brand)
		return models.EmptyStockResult()
	}

	result := Normalize(body)
	slog.Debug("Client.CheckStock: lookup completed", "model", model, "brand", brand, "is_available", result.IsAvailable, "color_count", len(result.Colors))
	return result
}
