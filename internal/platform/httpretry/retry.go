package httpretry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Config tunes the exponential backoff for one logical call. Zero values
// fall back to the defaults below.
type Config struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	Timeout           time.Duration
	BackoffMultiplier float64
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 1 * time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = 2
	}
	return c
}

// HTTPError carries a non-2xx response. Statuses in the 4xx range are never
// retried; they indicate a malformed request, not a transient fault.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) isClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Client issues HTTP requests with per-attempt timeouts and exponential
// backoff between attempts.
type Client struct {
	http   *http.Client
	logger *logrus.Logger
}

func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		http:   &http.Client{},
		logger: logger,
	}
}

// PostJSON sends body as JSON and returns the raw response body.
func (c *Client) PostJSON(ctx context.Context, url string, body any, serviceName string, cfg Config) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request for %s: %w", serviceName, err)
	}

	return c.executeWithRetry(ctx, serviceName, cfg, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req)
	})
}

// GetJSON fetches url and returns the raw response body.
func (c *Client) GetJSON(ctx context.Context, url string, serviceName string, cfg Config) ([]byte, error) {
	return c.executeWithRetry(ctx, serviceName, cfg, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		return c.do(req)
	})
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

func (c *Client) executeWithRetry(ctx context.Context, serviceName string, cfg Config, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	cfg = cfg.withDefaults()

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxRetries+1; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		data, err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 1 {
				c.logger.Infof("%s succeeded after %d attempts", serviceName, attempt)
			}
			return data, nil
		}

		lastErr = err

		if httpErr, ok := err.(*HTTPError); ok && httpErr.isClientError() {
			c.logger.Errorf("%s client error (no retry): %v", serviceName, err)
			return nil, err
		}

		if attempt > cfg.MaxRetries {
			break
		}

		c.logger.Warnf("%s attempt %d failed, retrying in %s: %v", serviceName, attempt, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	c.logger.Errorf("%s failed after %d retries: %v", serviceName, cfg.MaxRetries, lastErr)
	return nil, lastErr
}
