// Package httpx is the shared GET transport for exchange REST APIs. Every
// request is paced by a token bucket and guarded by a circuit breaker.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/metrics"
)

const maxErrorBody = 512

// Config tunes a Client.
type Config struct {
	Exchange domain.Exchange
	Timeout  time.Duration
	// RequestsPerSecond <= 0 disables pacing.
	RequestsPerSecond float64
	Burst             int
	// BreakerFailures is the number of consecutive upstream failures that
	// opens the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client performs GET requests against one exchange.
type Client struct {
	exchange   domain.Exchange
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// New creates a Client. Zero values in cfg fall back to conservative
// defaults.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        strings.ToLower(string(cfg.Exchange)),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: countsAsSuccess,
	})

	return &Client{
		exchange:   cfg.Exchange,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		breaker:    breaker,
	}
}

// countsAsSuccess keeps caller-side problems (cancellation, 4xx other than
// 429) from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		return te.StatusCode >= 400 && te.StatusCode < 500 && te.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// Get fetches rawURL and returns the body of a 2xx response. Non-2xx
// responses are reported as *domain.TransportError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, rawURL)
	})
	metrics.UpstreamDuration.WithLabelValues(string(c.exchange)).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequests.WithLabelValues(string(c.exchange), outcome(err)).Inc()

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: circuit open: %w", strings.ToLower(string(c.exchange)), err)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &domain.TransportError{
			Exchange:   c.exchange,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		return strconv.Itoa(te.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "error"
}
