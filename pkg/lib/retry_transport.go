package lib

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetryTransport is an http.RoundTripper for rate-limited LLM APIs.
// It retries 429 and 503 responses, waiting for the reset hinted by the
// provider headers (OpenAI x-ratelimit-* or a standard Retry-After).
type RetryTransport struct {
	base       http.RoundTripper
	logger     *zerolog.Logger
	maxRetries int
	// usage, when set, records token usage of successful responses.
	usage *UsageTracker
	// fallbackDelay is used when the response carries no reset hint.
	fallbackDelay time.Duration
}

func NewRetryTransport(logger *zerolog.Logger) *RetryTransport {
	return &RetryTransport{
		base:          http.DefaultTransport,
		logger:        logger,
		maxRetries:    5,
		fallbackDelay: time.Second,
	}
}

// NewRetryingHTTPClient wraps a RetryTransport into an http.Client.
// usage may be nil.
func NewRetryingHTTPClient(logger *zerolog.Logger, timeout time.Duration, usage *UsageTracker) *http.Client {
	transport := NewRetryTransport(logger)
	transport.usage = usage

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func (r *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = b
	}

	for attempt := range r.maxRetries {
		attemptReq := req.Clone(req.Context())
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := r.base.RoundTrip(attemptReq)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("url", req.URL.Redacted()).
				Int("attempt", attempt).
				Msg("LLM request failed")
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
			r.logger.Debug().
				Int("status_code", resp.StatusCode).
				Int("attempt", attempt).
				Msg("LLM request completed")
			if r.usage != nil && resp.StatusCode == http.StatusOK {
				if _, err := r.usage.TrackUsage(resp); err != nil {
					r.logger.Debug().Err(err).Msg("Could not track LLM usage")
				}
			}
			return resp, nil
		}

		headers := parseRateLimitHeaders(resp)
		resp.Body.Close()

		delay := r.backoff(headers, attempt)
		r.logger.Debug().
			Int("status_code", resp.StatusCode).
			Int("remaining_requests", headers.RemainingRequests).
			Int("remaining_tokens", headers.RemainingTokens).
			Dur("delay", delay).
			Int("attempt", attempt).
			Msg("LLM rate limited, retrying with backoff")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("max retries exceeded for rate limited request")
}

func (r *RetryTransport) backoff(headers *rateLimitHeaders, attempt int) time.Duration {
	jitter := time.Duration(rand.Intn(250)) * time.Millisecond

	if headers.RemainingRequests >= 0 && headers.RemainingRequests <= 1 && headers.ResetRequests > 0 {
		return headers.ResetRequests + jitter
	}
	if headers.RemainingTokens >= 0 && headers.RemainingTokens <= 1 && headers.ResetTokens > 0 {
		return headers.ResetTokens + jitter
	}
	if headers.RetryAfter > 0 {
		return headers.RetryAfter + jitter
	}

	return r.fallbackDelay * time.Duration(attempt+1)
}

type rateLimitHeaders struct {
	RemainingRequests int
	ResetRequests     time.Duration
	RemainingTokens   int
	ResetTokens       time.Duration
	RetryAfter        time.Duration
}

func parseRateLimitHeaders(resp *http.Response) *rateLimitHeaders {
	// See: https://platform.openai.com/docs/guides/rate-limits#rate-limits-in-headers
	return &rateLimitHeaders{
		RemainingRequests: parseInt(resp.Header.Get("x-ratelimit-remaining-requests")),
		ResetRequests:     parseReset(resp.Header.Get("x-ratelimit-reset-requests")),
		RemainingTokens:   parseInt(resp.Header.Get("x-ratelimit-remaining-tokens")),
		ResetTokens:       parseReset(resp.Header.Get("x-ratelimit-reset-tokens")),
		RetryAfter:        parseReset(resp.Header.Get("Retry-After")),
	}
}

// parseInt converts a numeric header string to int; returns -1 on failure.
func parseInt(s string) int {
	if s == "" {
		return -1
	}

	if i, err := strconv.Atoi(s); err == nil {
		return i
	}

	return -1
}

// parseReset accepts seconds ("1.5") or a Go duration ("6m0s").
func parseReset(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	return 0
}
