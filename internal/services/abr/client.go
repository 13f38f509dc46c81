package abr

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"autoname/internal/config"
	"autoname/internal/services"
)

const maxErrorBody = 512

// Config captures the runtime settings required to query the ABR.
type Config struct {
	GUID              string
	BaseURL           string
	RequestsPerSecond float64
	TimeoutSeconds    int
}

// ConfigFrom extracts client settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		GUID:              cfg.ABR.GUID,
		BaseURL:           cfg.ABR.BaseURL,
		RequestsPerSecond: cfg.ABR.RequestsPerSecond,
		TimeoutSeconds:    cfg.ABR.TimeoutSeconds,
	}
}

// Client queries the Australian Business Register XML search service.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter overrides the request pacing limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient constructs an ABR client. RequestsPerSecond of zero disables pacing.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.GUID = strings.TrimSpace(cfg.GUID)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.GUID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "abr", "init", "authentication guid required", nil)
	}
	if cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "abr", "init", "base url required", nil)
	}

	var timeout time.Duration
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchByABN looks up the business entity registered against abn. A
// service-reported exception is returned in Response.Exception rather than as
// an error; errors indicate transport or decoding failures.
func (c *Client) SearchByABN(ctx context.Context, abn string) (Response, error) {
	abn = NormalizeABN(abn)
	if abn == "" {
		return Response{}, services.Wrap(services.ErrValidation, "abr", "search", "abn required", nil)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, fmt.Errorf("abr rate limit wait: %w", err)
		}
	}

	query := url.Values{}
	query.Set("searchString", abn)
	query.Set("includeHistoricalDetails", "Y")
	query.Set("authenticationGuid", c.cfg.GUID)
	endpoint := c.cfg.BaseURL + "/ABRSearchByABN?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build abr request: %w", err)
	}
	req.Header.Set("Accept", "text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, services.Wrap(services.ErrExternalService, "abr", "search", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Response{}, services.Wrap(services.ErrExternalService, "abr", "search",
			fmt.Sprintf("http %d", resp.StatusCode), errors.New(strings.TrimSpace(string(snippet))))
	}

	var payload payloadSearchResults
	if err := xml.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Response{}, services.Wrap(services.ErrExternalService, "abr", "search", "decode response", err)
	}
	return payload.Response, nil
}

// NormalizeABN removes the spaces commonly printed inside ABNs.
func NormalizeABN(abn string) string {
	return strings.Join(strings.Fields(abn), "")
}
