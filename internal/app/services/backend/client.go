// Package backend is the HTTP client for the KAAY-JANG REST API. The API is
// treated as opaque: this package only encodes requests, decodes responses
// and maps failures onto the typed errors in models.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/observability/metrics"
)

const (
	requestIDHeader = "X-Request-Id"
	maxErrorBody    = 64 << 10
)

// Client talks to the REST backend. Authenticated calls take the bearer
// token explicitly so the client holds no session state of its own.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one backend request.
type call struct {
	op     string
	method string
	path   string
	token  string
	body   any
	out    any
	// mapErr turns a decoded non-2xx response into the error returned to
	// callers. Nil uses defaultError.
	mapErr func(status int, detail string) error
}

func (c *Client) do(ctx context.Context, cl call) error {
	start := time.Now()
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("op", cl.op))
	defer func() {
		m.BackendRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return errors.Wrapf(err, "%s: encode request", cl.op)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", cl.op)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	l := c.logger.With(
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.String("request_id", req.Header.Get(requestIDHeader)),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		m.BackendErrorsTotal.Add(ctx, 1, attrs)
		l.Debug("Backend unreachable", zap.Error(err))
		return &models.NetworkError{Op: cl.op, Err: errors.Wrap(err, cl.method+" "+cl.path)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.BackendErrorsTotal.Add(ctx, 1, attrs)
		detail := readDetail(resp.Body)
		l.Debug("Backend rejected request", zap.Int("status", resp.StatusCode), zap.String("detail", detail))
		mapErr := cl.mapErr
		if mapErr == nil {
			mapErr = defaultError
		}
		return mapErr(resp.StatusCode, detail)
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return errors.Wrapf(err, "%s: decode response", cl.op)
	}
	return nil
}

// defaultError maps 401 to an AuthenticationError and everything else to an
// APIError.
func defaultError(status int, detail string) error {
	if status == http.StatusUnauthorized {
		return &models.AuthenticationError{Status: status, Message: detail}
	}
	return &models.APIError{Status: status, Message: detail}
}

// readDetail extracts the FastAPI error detail, which is either a string or
// a list of validation errors.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
