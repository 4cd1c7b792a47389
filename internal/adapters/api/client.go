package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/cryptodoc/cryptodoc-cli/internal/adapters/resilience"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/observability/metrics"
)

// DefaultBaseURL is the development backend
const DefaultBaseURL = "http://localhost:8080"

const service = "cryptodoc"

// TokenSource returns the current bearer token, empty when signed out
type TokenSource func() string

// Config configures the backend client
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Resilience        resilience.Config
	UserAgent         string
}

// Client is the HTTP adapter for the document backend. It keeps no state
// between calls besides connection reuse, rate limiting and breaker counts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	exec       *resilience.Executor
	metrics    *metrics.ClientMetrics
	tokens     TokenSource
	userAgent  string
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records every request
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTokenSource sends "Authorization: Bearer" when the source returns a token
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func New(cfg Config, opts ...Option) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "cryptodoc-cli"
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, max(1, int(cfg.RequestsPerSecond))),
		exec:       resilience.NewExecutor(cfg.Resilience),
		userAgent:  userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend operation
type call struct {
	op         string // human readable, "list documents"
	kind       error
	method     string
	path       string
	body       []byte
	bodyType   string
	idempotent bool
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	classifier := resilience.ClassifyHTTP
	if !cl.idempotent {
		classifier = resilience.NeverRetry
	}

	err := c.exec.Execute(ctx, cl.op, func(ctx context.Context) error {
		return c.attempt(ctx, cl, out)
	}, classifier)

	if resilience.IsCircuitOpen(err) {
		c.metrics.RecordCircuitOpen(service, metricName(cl.op))
		return domain.NewOpError(cl.kind, cl.op, 0, "The server is not responding, try again shortly", err)
	}
	if err != nil && !isOpError(err) {
		// cancellation before the first attempt
		return domain.NewOpError(cl.kind, cl.op, 0, "", err)
	}
	return err
}

func (c *Client) attempt(ctx context.Context, cl call, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.NewOpError(cl.kind, cl.op, 0, "", err)
	}

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return domain.NewOpError(cl.kind, cl.op, 0, "", fmt.Errorf("create request: %w", err))
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if cl.bodyType != "" {
		req.Header.Set("Content-Type", cl.bodyType)
	}
	if c.tokens != nil {
		if token := c.tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	done := c.metrics.Start(service, metricName(cl.op))
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		done(0)
		slog.Warn("api_request", "operation", cl.op, "request_id", requestID, "error", err)
		return domain.NewOpError(cl.kind, cl.op, 0, "", err)
	}
	defer resp.Body.Close()
	done(resp.StatusCode)

	slog.Debug("api_request",
		"operation", cl.op,
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(cl, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeJSON(cl, resp, out)
}

// decodeJSON refuses anything that is not JSON, such as an HTML interstitial
// page served with a 200.
func decodeJSON(cl call, resp *http.Response, out any) error {
	if !isJSON(resp.Header.Get("Content-Type")) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 100))
		slog.Warn("non_json_response",
			"operation", cl.op,
			"content_type", resp.Header.Get("Content-Type"),
			"body", strings.TrimSpace(string(snippet)),
		)
		return domain.NewOpError(domain.ErrFormat, cl.op, resp.StatusCode, "",
			fmt.Errorf("content type %q", resp.Header.Get("Content-Type")))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return domain.NewOpError(domain.ErrFormat, cl.op, resp.StatusCode, "", fmt.Errorf("decode: %w", err))
	}
	return nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// statusError builds the typed error of a non-success response, keeping the
// server message when the body carries one.
func statusError(cl call, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var message string
	if isJSON(resp.Header.Get("Content-Type")) {
		var body map[string]any
		if json.Unmarshal(raw, &body) == nil {
			message = record(body).lookup([]string{"error", "message", "detail", "details"})
		}
	} else if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "text/plain" {
		if text := strings.TrimSpace(string(raw)); len(text) <= 200 {
			message = text
		}
	}

	return domain.NewOpError(cl.kind, cl.op, resp.StatusCode, message, nil)
}

func isOpError(err error) bool {
	var opErr *domain.OpError
	return errors.As(err, &opErr)
}

func metricName(op string) string {
	return strings.ReplaceAll(op, " ", "_")
}
