package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// BackoffConfig is the retry policy for upstream calls. Delays double from
// InitialInterval and are capped at MaxInterval.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// delay returns the wait before retry number attempt (0-based).
func (b BackoffConfig) delay(attempt int) time.Duration {
	d := b.InitialInterval << uint(attempt)
	if b.MaxInterval > 0 && (d > b.MaxInterval || d <= 0) {
		d = b.MaxInterval
	}
	return d
}

// HTTPClientConfig pairs the outbound client with its retry policy.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// DefaultBackoff applies to every provider unless SetBackoff overrides it.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errNoAPIKey      = errors.New("api key is not configured")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequestWithResilience sends the request built by newRequest until it gets
// a usable answer. Transport errors, 429 and 5xx go through the circuit breaker
// and are retried with backoff. Other non-2xx statuses end the call at once
// without counting against the breaker: 404 as weather.ErrLocationNotFound,
// the rest as errUnexpected. On success the caller owns the response body.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	newRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := newRequest()
		if err != nil {
			return nil, err
		}

		out, err := cb.Execute(func() (interface{}, error) {
			return sendOnce(cfg.Client, req.WithContext(ctx))
		})
		if err == nil {
			return acceptResponse(out.(*http.Response))
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		wait := time.NewTimer(cfg.Backoff.delay(attempt))
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, ctx.Err()
		case <-wait.C:
		}
	}
}

// sendOnce performs one round trip. Only answers worth retrying are errors
// here, so the breaker never trips on client mistakes.
func sendOnce(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		drainAndClose(resp)
		return nil, errRateLimited
	case resp.StatusCode >= 500:
		drainAndClose(resp)
		return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
	}
	return resp, nil
}

// acceptResponse passes 2xx through and turns other statuses into errors.
func acceptResponse(resp *http.Response) (*http.Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	drainAndClose(resp)
	if resp.StatusCode == http.StatusNotFound {
		return nil, weather.ErrLocationNotFound
	}
	return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// observe records the outcome of one provider call.
func observe(provider, endpoint string, started time.Time, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, weather.ErrLocationNotFound):
		outcome = metrics.OutcomeNotFound
	case err != nil:
		outcome = metrics.OutcomeError
	}
	metrics.ObserveUpstream(provider, endpoint, outcome, started)
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
