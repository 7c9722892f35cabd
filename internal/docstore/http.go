package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"azadi/pkg/platform/circuit"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	maxResponseBytes   = 32 << 20
	errorSnippetBytes  = 256
)

type HTTPConfig struct {
	// BaseURL is the database root, e.g. https://example.firebaseio.com.
	BaseURL string
	// AuthToken is sent as the auth query parameter when set.
	AuthToken string
	// Timeout bounds each call. Zero means 15s.
	Timeout time.Duration
	// MaxResponseBytes caps a response body. Zero means 32 MiB.
	MaxResponseBytes int64
}

// HTTPClient speaks the REST protocol of a hosted realtime JSON database:
// every node is addressable as <base>/<path>.json.
type HTTPClient struct {
	base    *url.URL
	auth    string
	timeout time.Duration
	maxBody int64
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	tracer  trace.Tracer
}

type HTTPOption func(*HTTPClient)

func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(c *HTTPClient) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

func NewHTTPClient(cfg HTTPConfig, opts ...HTTPOption) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("docstore: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("docstore: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("docstore: unsupported scheme %q", base.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = maxResponseBytes
	}
	c := &HTTPClient{
		base:    base,
		auth:    cfg.AuthToken,
		timeout: timeout,
		maxBody: maxBody,
		http:    &http.Client{},
		breaker: circuit.New("docstore"),
		logger:  slog.Default(),
		tracer:  otel.Tracer("azadi/internal/docstore"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Driver() Driver { return DriverHTTP }

func (c *HTTPClient) Fetch(ctx context.Context, path string) (Value, error) {
	body, err := c.do(ctx, OpFetch, http.MethodGet, path, nil)
	if err != nil {
		return Value{}, err
	}
	v, err := Decode(body)
	if err != nil {
		return Value{}, fmt.Errorf("fetch %s: %w", path, err)
	}
	return v, nil
}

func (c *HTTPClient) Put(ctx context.Context, path string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	_, err = c.do(ctx, OpPut, http.MethodPut, path, payload)
	return err
}

func (c *HTTPClient) Patch(ctx context.Context, path string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	_, err = c.do(ctx, OpPatch, http.MethodPatch, path, payload)
	return err
}

func (c *HTTPClient) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, OpDelete, http.MethodDelete, path, nil)
	return err
}

func (c *HTTPClient) endpoint(path string) string {
	u := *c.base
	u.Path = c.base.Path + "/" + path + ".json"
	if c.auth != "" {
		q := u.Query()
		q.Set("auth", c.auth)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *HTTPClient) do(ctx context.Context, op Op, method, path string, payload []byte) ([]byte, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	if !c.breaker.Allow() {
		return nil, &TransportError{Op: op, Path: clean, Err: ErrCircuitOpen}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx, span := c.tracer.Start(ctx, "docstore."+string(op), trace.WithAttributes(
		attribute.String("docstore.path", clean),
		attribute.String("http.request.method", method),
	))
	defer span.End()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(clean), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(ctx, span, &TransportError{Op: op, Path: clean, Err: err})
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, c.fail(ctx, span, &TransportError{Op: op, Path: clean, Status: resp.StatusCode, Err: err})
	}
	// A truncated body would decode as a shape error and read as empty.
	if int64(len(data)) > c.maxBody {
		return nil, c.fail(ctx, span, &TransportError{
			Op:     op,
			Path:   clean,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBody),
		})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := data
		if len(snippet) > errorSnippetBytes {
			snippet = snippet[:errorSnippetBytes]
		}
		return nil, c.fail(ctx, span, &TransportError{
			Op:     op,
			Path:   clean,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		})
	}

	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "docstore circuit closed", "breaker", c.breaker.Name())
	}
	return data, nil
}

// fail records a failed call. Only retryable failures count against the
// breaker; a 4xx says nothing about the store's health.
func (c *HTTPClient) fail(ctx context.Context, span trace.Span, te *TransportError) error {
	span.RecordError(te)
	span.SetStatus(codes.Error, te.Error())
	if te.Retryable() {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "docstore circuit opened",
				"breaker", c.breaker.Name(),
				"error", te,
			)
		}
	}
	return te
}
