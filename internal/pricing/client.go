package pricing

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBackoff = 500 * time.Millisecond

// StatusError is returned for upstream responses that are not worth retrying.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// client wraps resty with a rate limiter and bounded retries. Each provider owns one.
type client struct {
	http       *resty.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func newClient(baseURL string, timeout time.Duration, rps float64, burst, maxRetries int, logger *zap.Logger) *client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &client{
		http:       resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		logger:     logger,
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: maxRetries,
		backoff:    defaultBackoff,
	}
}

// get runs a GET with the limiter and retry policy, decoding a successful body into result.
func (c *client) get(ctx context.Context, path string, params map[string]string, result any) error {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		SetHeader("Accept", "application/json")
	_, err := c.doRequest(ctx, http.MethodGet, path, req)
	return err
}

// doRequest retries on 429, 418, 5xx and transport errors, honouring Retry-After.
// Other error statuses come back as *StatusError without a retry.
func (c *client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	attempts := c.maxRetries + 1

	for i := 0; i < attempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.http.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == http.StatusTeapot {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
			if !shouldRetry {
				return nil, &StatusError{Code: statusCode, Body: resp.String()}
			}
			err = &StatusError{Code: statusCode, Body: resp.String()}
		}

		if i == attempts-1 {
			break
		}
		if retryAfter == 0 {
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.backoff
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, err)
}
