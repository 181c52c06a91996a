// Package ankiconnect is the request bridge to the AnkiConnect automation
// service. Every tool funnels through Client.Invoke.
package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/localrivet/ankimcp/internal/errortypes"
	"github.com/localrivet/ankimcp/internal/journal"
	"github.com/localrivet/ankimcp/internal/telemetry"
)

const (
	// DefaultURL is where AnkiConnect listens out of the box.
	DefaultURL = "http://localhost:8765"

	// APIVersion is the AnkiConnect protocol version sent with every request.
	APIVersion = 6
)

// Invoker performs a single AnkiConnect action.
type Invoker interface {
	Invoke(ctx context.Context, action string, params map[string]any) (json.RawMessage, error)
}

// Config holds the immutable bridge settings.
type Config struct {
	// URL of the AnkiConnect endpoint.
	URL string
	// Timeout applied to each request. Zero keeps the transport default.
	Timeout time.Duration
	// StrictErrors makes a non-null envelope "error" fail the call even when
	// the HTTP status is successful.
	StrictErrors bool
}

// Client implements Invoker over HTTP.
type Client struct {
	url          string
	strictErrors bool
	httpClient   *http.Client
	metrics      *telemetry.MetricsCollector
	journal      journal.Recorder
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records per-call metrics in m.
func WithMetrics(m *telemetry.MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithJournal records every call outcome in r.
func WithJournal(r journal.Recorder) Option {
	return func(c *Client) {
		c.journal = r
	}
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}

	c := &Client{
		url:          url,
		strictErrors: cfg.StrictErrors,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint address the client posts to.
func (c *Client) URL() string {
	return c.url
}

type request struct {
	Action  string         `json:"action"`
	Version int            `json:"version"`
	Params  map[string]any `json:"params"`
}

// envelope is the response body. A missing key leaves the RawMessage nil,
// while a JSON null decodes to the literal "null".
type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// Invoke sends one request for action and returns the envelope's result
// verbatim. Failures are transport, protocol or remote AppErrors.
func (c *Client) Invoke(ctx context.Context, action string, params map[string]any) (json.RawMessage, error) {
	requestID := uuid.New().String()
	start := time.Now()

	c.logger.Debug("Invoking AnkiConnect action", "action", action, "request_id", requestID)

	result, err := c.do(ctx, action, params)
	c.observe(requestID, action, start, err)

	if err != nil {
		var appErr *errortypes.AppError
		if errors.As(err, &appErr) {
			appErr.WithField("action", action).WithField("request_id", requestID)
		}
		return nil, err
	}

	c.logger.Debug("AnkiConnect action completed", "action", action, "request_id", requestID,
		"duration", time.Since(start))
	return result, nil
}

// InvokeInto invokes action and decodes its result into out.
func (c *Client) InvokeInto(ctx context.Context, action string, params map[string]any, out any) error {
	return Decode(ctx, c, action, params, out)
}

// Decode invokes action on inv and decodes the result into out. A result
// that does not fit out is a protocol error.
func Decode(ctx context.Context, inv Invoker, action string, params map[string]any, out any) error {
	raw, err := inv.Invoke(ctx, action, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errortypes.ProtocolError(err, "unexpected result shape").
			WithField("action", action)
	}
	return nil
}

func (c *Client) do(ctx context.Context, action string, params map[string]any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}

	body, err := json.Marshal(request{Action: action, Version: APIVersion, Params: params})
	if err != nil {
		return nil, errortypes.InternalError(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errortypes.TransportError(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errortypes.TransportError(err, "failed to reach AnkiConnect").
			WithField("url", c.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errortypes.TransportError(
			fmt.Errorf("unexpected status %s", resp.Status),
			"AnkiConnect returned a non-success status").
			WithField("status_code", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errortypes.ProtocolError(err, "failed to read response body")
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, errortypes.ProtocolError(err, "failed to decode response body")
	}

	if c.strictErrors {
		if msg, ok := remoteError(env.Error); ok {
			return nil, errortypes.RemoteError(errors.New(msg), "AnkiConnect returned an error")
		}
	}

	if env.Result == nil {
		return nil, errortypes.ProtocolError(errors.New(`missing "result" field`), "incomplete response body")
	}

	return env.Result, nil
}

// remoteError reports whether raw carries a non-null error and returns its
// message.
func remoteError(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg, true
	}
	return string(raw), true
}

func (c *Client) observe(requestID, action string, start time.Time, err error) {
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.IncrementCounter(telemetry.MetricCalls, 1)
		c.metrics.IncrementCounter(telemetry.MetricActionPrefix+action, 1)
		c.metrics.RecordTimer(telemetry.MetricResponseTime, elapsed)
		c.metrics.RecordTimestamp(telemetry.MetricLastCall)

		if err == nil {
			c.metrics.IncrementCounter(telemetry.MetricCallsSuccess, 1)
			c.metrics.RecordTimestamp(telemetry.MetricLastSuccess)
		} else {
			c.metrics.IncrementCounter(telemetry.MetricCallsFailure, 1)
			switch errortypes.TypeOf(err) {
			case errortypes.ErrorTypeTransport:
				c.metrics.IncrementCounter(telemetry.MetricFailureTransport, 1)
			case errortypes.ErrorTypeProtocol:
				c.metrics.IncrementCounter(telemetry.MetricFailureProtocol, 1)
			case errortypes.ErrorTypeRemote:
				c.metrics.IncrementCounter(telemetry.MetricFailureRemote, 1)
			}
		}
	}

	if c.journal == nil {
		return
	}

	entry := journal.Entry{
		RequestID: requestID,
		Action:    action,
		Outcome:   journal.OutcomeSuccess,
		Duration:  elapsed,
		Timestamp: start,
	}
	if err != nil {
		entry.Outcome = journal.OutcomeFailure
		entry.ErrorType = string(errortypes.TypeOf(err))
		entry.Error = err.Error()
	}
	if jerr := c.journal.Record(entry); jerr != nil {
		c.logger.Warn("Failed to record bridge call", "action", action, "request_id", requestID, "error", jerr)
	}
}
