package sypht

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"autoname/internal/config"
	"autoname/internal/services"
)

const (
	// FieldDate is the extraction field carrying the document's issue date.
	FieldDate = "document.date"
	// FieldSupplierABN is the extraction field carrying the supplier's ABN.
	FieldSupplierABN = "document.supplierABN"

	maxErrorBody = 512
)

// Config captures the runtime settings required to talk to Sypht.
type Config struct {
	ClientID       string
	ClientSecret   string
	BaseURL        string
	AuthURL        string
	Audience       string
	FieldSets      []string
	TimeoutSeconds int
}

// ConfigFrom extracts client settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		ClientID:       cfg.Sypht.ClientID,
		ClientSecret:   cfg.Sypht.ClientSecret,
		BaseURL:        cfg.Sypht.BaseURL,
		AuthURL:        cfg.Sypht.AuthURL,
		Audience:       cfg.Sypht.Audience,
		FieldSets:      append([]string(nil), cfg.Sypht.FieldSets...),
		TimeoutSeconds: cfg.Sypht.TimeoutSeconds,
	}
}

// Client uploads documents to Sypht and fetches their extracted fields.
// Requests are authenticated with OAuth2 client credentials; tokens are
// cached and refreshed by the oauth2 transport.
type Client struct {
	cfg         Config
	base        *http.Client
	httpClient  *http.Client
	credentials clientcredentials.Config
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for both token and API requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.base = client
		}
	}
}

// NewClient constructs a Sypht client. A zero TimeoutSeconds leaves requests
// without a deadline.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.AuthURL = strings.TrimRight(strings.TrimSpace(cfg.AuthURL), "/")
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sypht", "init", "client id and secret required", nil)
	}
	if cfg.BaseURL == "" || cfg.AuthURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sypht", "init", "base and auth urls required", nil)
	}
	if len(cfg.FieldSets) == 0 {
		cfg.FieldSets = []string{"document"}
	}

	client := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(client)
	}
	if client.base == nil {
		client.base = &http.Client{}
	}

	credentials := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.AuthURL + "/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	if cfg.Audience != "" {
		credentials.EndpointParams = url.Values{"audience": {cfg.Audience}}
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, client.base)
	client.credentials = credentials
	client.httpClient = oauth2.NewClient(tokenCtx, credentials.TokenSource(tokenCtx))
	if cfg.TimeoutSeconds > 0 {
		client.httpClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return client, nil
}

// Authenticate requests a fresh access token without touching the API. It is
// used by readiness checks to validate credentials.
func (c *Client) Authenticate(ctx context.Context) error {
	token, err := c.credentials.Token(context.WithValue(ctx, oauth2.HTTPClient, c.base))
	if err != nil {
		return services.Wrap(services.ErrExternalService, "sypht", "authenticate", "token request failed", err)
	}
	if !token.Valid() {
		return services.Wrap(services.ErrExternalService, "sypht", "authenticate", "token response invalid", nil)
	}
	return nil
}

type uploadResponse struct {
	FileID string `json:"fileId"`
}

// Upload submits a document for extraction and returns its job handle.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	if content == nil {
		return "", services.Wrap(services.ErrValidation, "sypht", "upload", "document content required", nil)
	}
	fieldSets, err := json.Marshal(c.cfg.FieldSets)
	if err != nil {
		return "", fmt.Errorf("encode fieldsets: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("fileToUpload", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", services.Wrap(services.ErrTransient, "sypht", "upload", "read document", err)
	}
	if err := writer.WriteField("fieldSets", string(fieldSets)); err != nil {
		return "", fmt.Errorf("write fieldsets: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/fileupload", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var decoded uploadResponse
	if err := c.doJSON(req, "upload", &decoded); err != nil {
		return "", err
	}
	handle := strings.TrimSpace(decoded.FileID)
	if handle == "" {
		return "", services.Wrap(services.ErrExternalService, "sypht", "upload", "response missing fileId", nil)
	}
	return handle, nil
}

type resultsResponse struct {
	Status  string `json:"status"`
	Results struct {
		Fields []struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		} `json:"fields"`
	} `json:"results"`
}

// FetchResults requests the final extraction for handle and returns its
// fields. The final-results endpoint holds the request open until extraction
// completes; a response whose status is present but not finalised is an
// error rather than an empty result. Fields whose value is null are omitted.
func (c *Client) FetchResults(ctx context.Context, handle string) (Results, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, services.Wrap(services.ErrValidation, "sypht", "fetch", "job handle required", nil)
	}
	endpoint := c.cfg.BaseURL + "/result/final/" + url.PathEscape(handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build results request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var decoded resultsResponse
	if err := c.doJSON(req, "fetch", &decoded); err != nil {
		return nil, err
	}
	if status := strings.TrimSpace(decoded.Status); status != "" && !isFinalStatus(status) {
		return nil, services.Wrap(services.ErrExternalService, "sypht", "fetch",
			fmt.Sprintf("results not final (status %s)", status), nil)
	}

	results := make(Results, len(decoded.Results.Fields))
	for _, field := range decoded.Results.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		if value, ok := fieldValue(field.Value); ok {
			results[name] = value
		}
	}
	return results, nil
}

func isFinalStatus(status string) bool {
	switch strings.ToUpper(status) {
	case "FINALISED", "FINALIZED", "COMPLETE", "COMPLETED":
		return true
	default:
		return false
	}
}

func (c *Client) doJSON(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "sypht", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return services.Wrap(services.ErrExternalService, "sypht", operation,
			fmt.Sprintf("http %d", resp.StatusCode), errors.New(strings.TrimSpace(string(snippet))))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalService, "sypht", operation, "decode response", err)
	}
	return nil
}

func fieldValue(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return text, true
	}
	return string(trimmed), true
}
