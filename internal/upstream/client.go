// Package upstream is the REST client of the ERP API.
//
// Every call carries the request context so a client disconnect aborts the
// upstream request. Only GET requests are retried. Responses may be bare
// arrays and objects or wrapped in {"data": ...}; both are accepted.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/straye-as/erp-desk/internal/config"
	"github.com/straye-as/erp-desk/internal/domain"
	"go.uber.org/zap"
)

const defaultHealthCheckTimeout = 5 * time.Second

// Observer receives the outcome of each upstream call. Status is 0 when no
// response was received.
type Observer interface {
	ObserveUpstream(op string, status int, elapsed time.Duration)
}

// Client talks to the upstream ERP API
type Client struct {
	http        *resty.Client
	logger      *zap.Logger
	observer    Observer
	forwardAuth bool
}

// Option configures a Client
type Option func(*Client)

// WithObserver records call outcomes, typically into prometheus
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates an upstream client from configuration
func NewClient(cfg *config.UpstreamConfig, logger *zap.Logger, opts ...Option) *Client {
	wait := cfg.RetryWaitDuration()
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(wait*8).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(retryIdempotent)

	c := &Client{
		http:        hc,
		logger:      logger,
		forwardAuth: cfg.ForwardAuth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryIdempotent retries GETs on transport errors, 429 and 5xx
func retryIdempotent(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if err != nil {
		return true
	}
	return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
}

type call struct {
	op     string
	method string
	path   string
	params map[string]string
	body   any
	// entity and id describe the record for NotFoundError
	entity domain.EntityType
	id     string
}

func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(cl.params) > 0 {
		req.SetPathParams(cl.params)
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}
	if c.forwardAuth {
		if token := TokenFromContext(ctx); token != "" {
			req.SetAuthToken(token)
		}
	}

	start := time.Now()
	resp, err := req.Execute(cl.method, cl.path)
	elapsed := time.Since(start)

	status := 0
	if resp != nil && resp.RawResponse != nil {
		status = resp.StatusCode()
	}
	if c.observer != nil {
		c.observer.ObserveUpstream(cl.op, status, elapsed)
	}

	if err != nil {
		c.logger.Warn("Upstream request failed",
			zap.String("op", cl.op),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, &domain.NetworkError{Op: cl.op, Err: err}
	}

	if status == http.StatusNotFound && cl.id != "" {
		return nil, &domain.NotFoundError{Entity: cl.entity, ID: cl.id}
	}
	if resp.IsError() {
		msg := errorMessage(resp.Body())
		c.logger.Warn("Upstream returned error",
			zap.String("op", cl.op),
			zap.Int("status_code", status),
			zap.String("message", msg),
		)
		return nil, &domain.NetworkError{Op: cl.op, StatusCode: status, Message: msg}
	}

	c.logger.Debug("Upstream request completed",
		zap.String("op", cl.op),
		zap.Int("status_code", status),
		zap.Duration("elapsed", elapsed),
	)
	return resp.Body(), nil
}

// ============================================================================
// Records
// ============================================================================

// List fetches every record of an entity collection
func (c *Client) List(ctx context.Context, entity domain.EntityType) ([]domain.RawRecord, error) {
	body, err := c.do(ctx, call{
		op:     "list " + string(entity),
		method: http.MethodGet,
		path:   "/{entity}",
		params: map[string]string{"entity": string(entity)},
	})
	if err != nil {
		return nil, err
	}
	records, err := decodeList(body)
	if err != nil {
		return nil, &domain.NetworkError{Op: "list " + string(entity), Err: err}
	}
	return records, nil
}

// GetByID fetches a single record
func (c *Client) GetByID(ctx context.Context, entity domain.EntityType, id string) (domain.RawRecord, error) {
	op := "get " + string(entity)
	body, err := c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/{entity}/{id}",
		params: map[string]string{"entity": string(entity), "id": id},
		entity: entity,
		id:     id,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject(op, body)
}

// Create posts a new record and returns the created record
func (c *Client) Create(ctx context.Context, entity domain.EntityType, payload map[string]any) (domain.RawRecord, error) {
	op := "create " + string(entity)
	body, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/{entity}",
		params: map[string]string{"entity": string(entity)},
		body:   payload,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject(op, body)
}

// Update replaces a record and returns the stored record
func (c *Client) Update(ctx context.Context, entity domain.EntityType, id string, payload map[string]any) (domain.RawRecord, error) {
	op := "update " + string(entity)
	body, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPut,
		path:   "/{entity}/{id}",
		params: map[string]string{"entity": string(entity), "id": id},
		body:   payload,
		entity: entity,
		id:     id,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject(op, body)
}

// Remove deletes a record
func (c *Client) Remove(ctx context.Context, entity domain.EntityType, id string) error {
	_, err := c.do(ctx, call{
		op:     "delete " + string(entity),
		method: http.MethodDelete,
		path:   "/{entity}/{id}",
		params: map[string]string{"entity": string(entity), "id": id},
		entity: entity,
		id:     id,
	})
	return err
}

// ============================================================================
// Interactions
// ============================================================================

// ListInteractions fetches the interactions of an inquiry
func (c *Client) ListInteractions(ctx context.Context, inquiryID string) ([]domain.RawRecord, error) {
	body, err := c.do(ctx, call{
		op:     "list interactions",
		method: http.MethodGet,
		path:   "/inquiries/{id}/interactions",
		params: map[string]string{"id": inquiryID},
		entity: domain.EntityInquiry,
		id:     inquiryID,
	})
	if err != nil {
		return nil, err
	}
	records, err := decodeList(body)
	if err != nil {
		return nil, &domain.NetworkError{Op: "list interactions", Err: err}
	}
	return records, nil
}

// AddInteraction logs a new interaction against an inquiry
func (c *Client) AddInteraction(ctx context.Context, inquiryID string, payload map[string]any) (domain.RawRecord, error) {
	body, err := c.do(ctx, call{
		op:     "create interaction",
		method: http.MethodPost,
		path:   "/inquiries/{id}/interactions",
		params: map[string]string{"id": inquiryID},
		body:   payload,
		entity: domain.EntityInquiry,
		id:     inquiryID,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject("create interaction", body)
}

// DeleteInteraction removes an interaction by its own id
func (c *Client) DeleteInteraction(ctx context.Context, interactionID string) error {
	_, err := c.do(ctx, call{
		op:     "delete interaction",
		method: http.MethodDelete,
		path:   "/interactions/{id}",
		params: map[string]string{"id": interactionID},
		entity: domain.EntityInteraction,
		id:     interactionID,
	})
	return err
}

// ============================================================================
// Health
// ============================================================================

// HealthStatus is the result of probing the upstream API
type HealthStatus struct {
	Status  string `json:"status"`
	Latency int64  `json:"latency_ms"`
	Error   string `json:"error,omitempty"`
}

// HealthCheck probes the upstream health endpoint
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	_, err := c.do(ctx, call{op: "health", method: http.MethodGet, path: "/health"})
	status := &HealthStatus{Status: "healthy", Latency: time.Since(start).Milliseconds()}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// ============================================================================
// Decoding
// ============================================================================

// unwrap strips a {"data": ...} envelope when present
func unwrap(body []byte) (any, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}
	if m, ok := v.(map[string]any); ok {
		if data, ok := m["data"]; ok {
			return data, nil
		}
	}
	return v, nil
}

func decodeList(body []byte) ([]domain.RawRecord, error) {
	v, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	// Some list endpoints page their results under items or results
	if m, ok := v.(map[string]any); ok {
		for _, key := range []string{"items", "results", "records"} {
			if inner, ok := m[key]; ok {
				v = inner
				break
			}
		}
	}
	switch t := v.(type) {
	case nil:
		return []domain.RawRecord{}, nil
	case []any:
		out := make([]domain.RawRecord, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, domain.RawRecord(m))
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}

func decodeObject(op string, body []byte) (domain.RawRecord, error) {
	v, err := unwrap(body)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	switch t := v.(type) {
	case nil:
		return domain.RawRecord{}, nil
	case map[string]any:
		return domain.RawRecord(t), nil
	default:
		return nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("expected an object, got %T", v)}
	}
}

// errorMessage extracts a human readable message from an error body
func errorMessage(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err == nil {
		for _, key := range []string{"detail", "message", "error", "title"} {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
