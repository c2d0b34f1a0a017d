// Package mlservice is the HTTP client for the external income prediction service.
package mlservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/pkg/logger"
	"github.com/okian/incomelens/pkg/metrics"
	"golang.org/x/time/rate"
)

// Default client configuration constants.
const (
	defaultHealthTimeout  = 5 * time.Second
	defaultPredictTimeout = 15 * time.Second
	maxBodyBytes          = 4 << 20

	healthPath  = "/health"
	predictPath = "/predict"

	endpointHealth  = "health"
	endpointPredict = "predict"
)

// ErrInvalidBaseURL is returned by New for an unusable base URL.
var ErrInvalidBaseURL = errors.New("mlservice: invalid base url")

var errServerStatus = errors.New("server error status")

// Client talks to the prediction service. It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	healthTimeout  time.Duration
	predictTimeout time.Duration
	maxRetries     int
	log            logger.Logger
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:        strings.TrimRight(u.String(), "/"),
		httpClient:     &http.Client{},
		limiter:        rate.NewLimiter(rate.Inf, 0),
		healthTimeout:  defaultHealthTimeout,
		predictTimeout: defaultPredictTimeout,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Health probes GET /health. Only 200 counts as healthy; the request is
// cancelled once the health timeout elapses. Time spent waiting on the rate
// limiter does not count against that timeout.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodGet, healthPath, nil, endpointHealth, c.healthTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrServiceUnavailable, err)
	}
	if res.status != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", model.ErrServiceUnavailable, res.status)
	}
	return nil
}

// Predict posts the features to /predict and normalizes the response.
func (c *Client) Predict(ctx context.Context, features model.Features) (*model.ServiceResponse, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}

	res, err := c.do(ctx, http.MethodPost, predictPath, payload, endpointPredict, c.predictTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrServiceUnavailable, err)
	}

	if res.status < 200 || res.status > 299 {
		return nil, &model.RequestFailedError{
			StatusCode: res.status,
			Detail:     errorDetail(res.body, res.status),
		}
	}

	return decodeResponse(res.body)
}

type response struct {
	status int
	body   []byte
}

// do sends one request through the limiter, retrying transport errors and
// 5xx responses up to maxRetries times. The last 5xx response is returned
// as a result, not an error. A positive timeout bounds each attempt's round
// trip; the limiter wait runs under ctx alone.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, endpoint string, timeout time.Duration) (*response, error) {
	var (
		res     *response
		attempt int
	)

	op := func() error {
		if attempt > 0 {
			metrics.RecordMLRetry()
			c.log.Debug(ctx, "retrying prediction service call",
				logger.String("endpoint", endpoint),
				logger.Int("attempt", attempt),
			)
		}
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		reqCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if id := logger.RequestID(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordMLRequest(endpoint, "error", sinceMs(start))
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			metrics.RecordMLRequest(endpoint, "error", sinceMs(start))
			return err
		}
		metrics.RecordMLRequest(endpoint, statusClass(resp.StatusCode), sinceMs(start))

		res = &response{status: resp.StatusCode, body: data}
		if resp.StatusCode >= http.StatusInternalServerError {
			return errServerStatus
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), //nolint:gosec // maxRetries is non-negative
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, errServerStatus) && res != nil {
			return res, nil
		}
		return nil, err
	}
	return res, nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
