// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// Structured query fields returned when the extractor cannot tell.
const (
	TypeUnknown    = "unknown"
	WeatherUnknown = "unknown"
)

// maxResponseBytes bounds the extractor response body.
const maxResponseBytes = 1 << 20

// Extraction is the pinned output schema of the LLM adapter.
type Extraction struct {
	Provinces []string `json:"provinces" validate:"max=16,dive,required,max=64"`
	Type      string   `json:"type" validate:"omitempty,oneof=beach forest mountain island city unknown"`
	Weather   string   `json:"weather" validate:"omitempty,oneof=warm hot cool cold unknown"`
}

// Extractor turns a free-text query into structured fields.
type Extractor interface {
	Extract(ctx context.Context, query string) (*Extraction, error)
}

// LLMConfig configures the HTTP extractor.
type LLMConfig struct {
	// Endpoint receives POST {"model", "query"} and answers with an Extraction.
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
	// Model is forwarded to the endpoint unchanged.
	Model string `koanf:"model"`
	// APIKey, when set, is sent as a bearer token.
	APIKey string `koanf:"api_key"`
	// Timeout bounds one extraction including rate-limit wait.
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
	// RatePerSecond and Burst limit outgoing calls. Zero rate disables limiting.
	RatePerSecond float64 `koanf:"rate_per_second" validate:"min=0"`
	Burst         int     `koanf:"burst" validate:"min=0"`
}

// DefaultLLMConfig returns a disabled extractor configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Timeout:       2 * time.Second,
		RatePerSecond: 5,
		Burst:         10,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *LLMConfig) Enabled() bool {
	return c.Endpoint != ""
}

type extractRequest struct {
	Model string `json:"model,omitempty"`
	Query string `json:"query"`
}

// LLMExtractor calls an external structured-extraction endpoint. Calls are
// rate limited and pass through a circuit breaker:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
type LLMExtractor struct {
	cfg     LLMConfig
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*Extraction]
	name    string
}

// NewLLMExtractor creates an extractor for cfg.Endpoint.
func NewLLMExtractor(cfg LLMConfig) *LLMExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMConfig().Timeout
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	name := "llm-extractor"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	e := &LLMExtractor{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		name:    name,
	}
	e.cb = gobreaker.NewCircuitBreaker[*Extraction](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("Opening LLM extractor circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, fromStr, toStr)
		},
	})
	return e
}

// Extract sends query to the endpoint. Every failure is reported as
// apperr.CodeUnavailable so callers can fall back to the phrase alone.
func (e *LLMExtractor) Extract(ctx context.Context, query string) (*Extraction, error) {
	const op = "query.Extract"

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, &apperr.Error{Code: apperr.CodeUnavailable, Op: op, Message: "rate limited", Err: err}
	}

	out, err := e.cb.Execute(func() (*Extraction, error) {
		return e.call(ctx, query)
	})
	if err != nil {
		msg := "extractor request failed"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			msg = "extractor circuit open"
		}
		return nil, &apperr.Error{Code: apperr.CodeUnavailable, Op: op, Message: msg, Err: err}
	}
	return out, nil
}

func (e *LLMExtractor) call(ctx context.Context, query string) (*Extraction, error) {
	body, err := json.Marshal(extractRequest{Model: e.cfg.Model, Query: query})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256)) //nolint:errcheck // best-effort error context
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out Extraction
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if verr := validation.ValidateStruct(&out); verr != nil {
		return nil, fmt.Errorf("invalid response: %w", verr)
	}
	if out.Type == "" {
		out.Type = TypeUnknown
	}
	if out.Weather == "" {
		out.Weather = WeatherUnknown
	}
	return &out, nil
}

// State returns the circuit breaker state name.
func (e *LLMExtractor) State() string {
	return stateToString(e.cb.State())
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
