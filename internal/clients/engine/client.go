// Package engine provides the HTTP client for the professional forecast
// simulation engine. The engine is the only source of real simulated paths;
// callers treat it as a black box returning a distributional summary.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// CallError classifies an engine call failure. Transient failures (network
// errors, timeouts, 5xx) may be retried; everything else is permanent.
type CallError struct {
	Op         string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("engine %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a CallError marked retryable.
func IsTransient(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Transient
}

// Client calls the professional forecast engine over HTTP.
type Client struct {
	baseURL     string
	client      *http.Client
	log         zerolog.Logger
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// NewClient creates a new forecast engine client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
		log:         log.With().Str("client", "forecast-engine").Logger(),
		maxAttempts: 3,
		backoff:     progressiveBackoff,
	}
}

// progressiveBackoff returns 1s, 2s, 4s for attempts 1, 2, 3.
func progressiveBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

// GenerateForecast posts the request to the engine and decodes its response.
// Transient failures are retried with progressive backoff; 4xx responses and
// undecodable payloads are returned immediately as permanent errors. The
// caller's context aborts both in-flight calls and backoff sleeps.
func (c *Client) GenerateForecast(ctx context.Context, req ForecastRequest) (*ForecastResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &CallError{Op: "encode request", Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.doRequest(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsTransient(err) {
			c.log.Warn().Err(err).Msg("Engine call failed permanently")
			return nil, err
		}

		if attempt < c.maxAttempts {
			delay := c.backoff(attempt)
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("Engine call failed, retrying")

			select {
			case <-ctx.Done():
				return nil, &CallError{Op: "wait for retry", Transient: true, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
	}

	c.log.Error().Err(lastErr).Int("attempts", c.maxAttempts).Msg("Engine retries exhausted")
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*ForecastResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/professional-forecast", bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Network failures and client timeouts are transient by definition
		return nil, &CallError{Op: "call", Transient: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount of the body for the error message
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &CallError{
			Op:         "call",
			StatusCode: resp.StatusCode,
			Transient:  resp.StatusCode >= 500,
			Err:        fmt.Errorf("%s", string(detail)),
		}
	}

	var forecastResp ForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecastResp); err != nil {
		return nil, &CallError{Op: "decode response", Err: err}
	}

	return &forecastResp, nil
}
