package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrCircuitOpen      = errors.New("circuit breaker open")
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Body   []byte
}

func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// HTTPGetter is the only network primitive the weather sources depend on.
type HTTPGetter interface {
	Get(ctx context.Context, rawURL string, params url.Values, headers http.Header, timeout time.Duration) (*Response, error)
}

type BaseClient struct {
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	userAgent      string
	maxRetries     int
	retryDelay     time.Duration
	multiplier     float64
}

type ClientConfig struct {
	UserAgent      string
	MaxRetries     int
	RetryDelay     time.Duration
	Multiplier     float64
	Threshold      int
	BreakerTimeout time.Duration
}

var _ HTTPGetter = (*BaseClient)(nil)

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	return newBaseClient(name, config, &http.Client{}, logger)
}

func newBaseClient(name string, config ClientConfig, httpClient HTTPClient, logger *zap.Logger) *BaseClient {
	threshold := uint32(config.Threshold)
	if threshold == 0 {
		threshold = 3
	}

	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	multiplier := config.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	return &BaseClient{
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		userAgent:      config.UserAgent,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		multiplier:     multiplier,
	}
}

// Get performs a GET bounded by timeout. Any HTTP status is returned as a
// Response; only transport failures, timeouts and an open breaker are errors.
// 429 and 5xx responses are retried with exponential backoff and count as
// breaker failures.
func (c *BaseClient) Get(ctx context.Context, rawURL string, params url.Values, headers http.Header, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	var response *Response
	_, execErr := c.circuitBreaker.Execute(func() (interface{}, error) {
		resp, err := c.doGetWithRetry(ctx, rawURL, headers)
		response = resp
		if err != nil {
			return nil, err
		}
		if resp.Status >= 500 {
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.Status)
		}
		return resp, nil
	})

	if errors.Is(execErr, gobreaker.ErrOpenState) || errors.Is(execErr, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, execErr)
	}
	if response != nil {
		return response, nil
	}
	return nil, execErr
}

func (c *BaseClient) doGetWithRetry(ctx context.Context, rawURL string, headers http.Header) (*Response, error) {
	var lastErr error
	var lastResp *Response

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.retryDelay) * math.Pow(c.multiplier, float64(attempt-1)))
			c.logger.Debug("Retrying request",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request failed: %w", err)
		}
		for key, values := range headers {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			lastResp = nil
			c.logger.Warn("HTTP request failed",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			lastResp = nil
			continue
		}

		lastResp = &Response{Status: resp.StatusCode, Body: body}
		lastErr = nil

		c.logger.Debug("Request completed",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
			zap.Int("body_size", len(body)))

		// Only rate limiting and server errors are worth another attempt.
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return lastResp, nil
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, fmt.Errorf("max retries exceeded, last error: %w", lastErr)
}
