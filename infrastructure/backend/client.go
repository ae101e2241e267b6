// Package backend implements ports.Backend over the REST API that owns
// companies, jobs, CVs and tailored resumes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"careerflow/application/ports"
	"careerflow/infrastructure/config"
	pkgerrors "careerflow/pkg/errors"
)

// maxResponseSize bounds how much of a response body is read
const maxResponseSize = 16 << 20

// maxPages bounds how many pages of a paginated list are followed
const maxPages = 100

// Recorder receives per-call metrics
type Recorder interface {
	RecordBackendCall(operation string, duration time.Duration, err error)
	SetBreakerState(name string, state int)
}

// Client talks to the backend REST API. Every call runs through one
// circuit breaker; 4xx answers do not count as failures.
type Client struct {
	baseURL       string
	http          *http.Client
	breaker       *gobreaker.CircuitBreaker
	timeout       time.Duration
	tailorTimeout time.Duration
	recorder      Recorder
	logger        *zap.Logger
	tracer        trace.Tracer
}

var _ ports.Backend = (*Client)(nil)

// NewClient creates a backend client. A nil httpClient uses a plain
// http.Client; per-call deadlines come from cfg.
func NewClient(cfg config.BackendConfig, httpClient *http.Client, recorder Recorder, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          httpClient,
		timeout:       cfg.Timeout,
		tailorTimeout: cfg.TailorTimeout,
		recorder:      recorder,
		logger:        logger,
		tracer:        otel.Tracer("careerflow/backend"),
	}
	c.breaker = newBreaker("backend", cfg.Breaker, c.onStateChange)
	return c
}

func newBreaker(name string, cfg config.BreakerConfig, onChange func(string, gobreaker.State, gobreaker.State)) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: onChange,
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && se.StatusCode < 500
		},
	})
}

func (c *Client) onStateChange(name string, from, to gobreaker.State) {
	c.logger.Warn("Circuit breaker state changed",
		zap.String("name", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if c.recorder != nil {
		c.recorder.SetBreakerState(name, int(to))
	}
}

// StatusError is a non-2xx backend answer
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend answered %d: %s", e.Operation, e.StatusCode, e.Message)
}

// request describes one backend call
type request struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	timeout     time.Duration
}

func jsonRequest(op, method, path string, payload interface{}) (request, error) {
	r := request{op: op, method: method, path: path}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return r, fmt.Errorf("%s: encode request: %w", op, err)
		}
		r.body = body
		r.contentType = "application/json"
	}
	return r, nil
}

// do runs one call through the breaker and decodes a JSON answer into out
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	data, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return pkgerrors.NewBackendError(r.op, "the backend sent an unreadable answer", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, r request) (_ []byte, err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "backend."+r.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("url.path", r.path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.recorder != nil {
			c.recorder.RecordBackendCall(r.op, time.Since(start), err)
		}
	}()

	timeout := r.timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, r)
	})
	if err != nil {
		return nil, c.classify(r.op, err)
	}
	data, _ := out.([]byte)
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, r request) ([]byte, error) {
	url := r.path
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = c.baseURL + r.path
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.NewNetworkError(r.op+": request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", r.op, err)
	}

	c.logger.Debug("Backend call",
		zap.String("operation", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
	)

	if resp.StatusCode >= 300 {
		return nil, &StatusError{
			Operation:  r.op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, data),
		}
	}
	return data, nil
}

// classify maps transport and status failures onto the error taxonomy
func (c *Client) classify(op string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return pkgerrors.NewBackendError(op, "the backend is temporarily unavailable after repeated failures", err).
			WithRetryable(true)
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.NewBackendError(op, "the backend did not answer in time", err).WithRetryable(true)
	}

	var se *StatusError
	if !errors.As(err, &se) {
		return pkgerrors.NewBackendError(op, "the backend could not be reached", err).WithRetryable(true)
	}
	switch {
	case se.StatusCode == http.StatusConflict,
		se.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(se.Message), "already exists"):
		return pkgerrors.ErrDuplicateName.Clone().WithMessage(se.Message).WithCause(se)
	case se.StatusCode == http.StatusNotFound:
		return pkgerrors.NewNotFoundError(op).WithCause(se)
	default:
		return pkgerrors.NewBackendError(op, se.Message, se).WithDetail("status", se.StatusCode)
	}
}

// errorMessage pulls a readable message out of a REST framework error body:
// {"detail": "..."}, {"error": "..."} or {"field": ["..."]}.
func errorMessage(status int, body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
		var parts []string
		for field, v := range payload {
			switch msgs := v.(type) {
			case []interface{}:
				for _, m := range msgs {
					parts = append(parts, fmt.Sprintf("%s: %v", field, m))
				}
			case string:
				parts = append(parts, fmt.Sprintf("%s: %s", field, msgs))
			}
		}
		if len(parts) > 0 {
			slices.Sort(parts)
			return strings.Join(parts, "; ")
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}

// page is a paginated list envelope
type page struct {
	Results json.RawMessage `json:"results"`
	Next    *string         `json:"next"`
}

// listAll reads a list endpoint that answers either a bare array or a
// paginated envelope, following next links.
func listAll[T any](ctx context.Context, c *Client, op, path string) ([]T, error) {
	var all []T
	next := path
	for i := 0; next != "" && i < maxPages; i++ {
		data, err := c.send(ctx, request{op: op, method: http.MethodGet, path: next})
		if err != nil {
			return nil, err
		}
		next = ""

		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 {
			break
		}
		items := trimmed
		if trimmed[0] == '{' {
			var p page
			if err := json.Unmarshal(trimmed, &p); err != nil {
				return nil, pkgerrors.NewBackendError(op, "the backend sent an unreadable list", err)
			}
			items = p.Results
			if p.Next != nil {
				next = *p.Next
			}
		}
		var batch []T
		if len(items) > 0 {
			if err := json.Unmarshal(items, &batch); err != nil {
				return nil, pkgerrors.NewBackendError(op, "the backend sent an unreadable list", err)
			}
		}
		all = append(all, batch...)
	}
	return all, nil
}
