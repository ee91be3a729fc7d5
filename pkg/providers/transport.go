package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"
)

// TransportConfig configures the HTTP transport used to reach an
// OpenAI-compatible backend.
type TransportConfig struct {
	// Name identifies the backend in logs and errors
	Name string

	// BaseURL is the API endpoint base URL (e.g. "https://host/v1")
	BaseURL string

	// APIKey is sent as a bearer token when non-empty
	APIKey string

	// Timeout bounds the wait for response headers on every request and the
	// whole exchange for unary requests. A streamed body is not bounded by
	// it. Zero disables it.
	Timeout time.Duration

	// MaxRetries is the number of retries for network errors and 5xx
	// responses. Zero means a single attempt.
	MaxRetries int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt
	// (default: 1s)
	RetryBaseDelay time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration

	// HTTPClient overrides the client built from the fields above
	HTTPClient *http.Client
}

// HTTPTransport sends JSON requests to a backend. It owns connection
// pooling, authentication headers and retries so that the translation
// layer above it never has to.
type HTTPTransport struct {
	config TransportConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPTransport creates a transport with a pooled HTTP client.
func NewHTTPTransport(config TransportConfig, logger *slog.Logger) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = time.Second
	}

	client := config.HTTPClient
	if client == nil {
		transport := &http.Transport{
			MaxIdleConns:          config.MaxIdleConns,
			MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
			IdleConnTimeout:       config.IdleConnTimeout,
			ForceAttemptHTTP2:     true,
			ResponseHeaderTimeout: config.Timeout,
		}
		client = &http.Client{Transport: transport}
	}

	return &HTTPTransport{
		config: config,
		client: client,
		logger: logger,
	}
}

// Name returns the configured backend name.
func (t *HTTPTransport) Name() string {
	return t.config.Name
}

// Config returns the transport configuration.
func (t *HTTPTransport) Config() TransportConfig {
	return t.config
}

// DoRequest performs an HTTP request. Network errors and 5xx responses are
// retried with exponential backoff up to MaxRetries; 4xx responses are
// mapped to typed errors and returned immediately. A canceled ctx returns
// ctx.Err(); a deadline that expires during an attempt, or a header wait
// longer than Timeout, returns a *TimeoutError.
func (t *HTTPTransport) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= t.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * t.config.RetryBaseDelay
			t.logger.Debug("retrying request",
				"provider", t.config.Name,
				"attempt", attempt,
				"max_retries", t.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if t.config.APIKey != "" && req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+t.config.APIKey)
		}

		t.logger.Debug("sending request to provider",
			"provider", t.config.Name,
			"method", method,
			"url", url,
		)

		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, t.contextError(ctx)
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				lastErr = t.timeoutError()
			} else {
				lastErr = &ProviderError{
					Provider: t.config.Name,
					Message:  "request failed",
					Cause:    err,
				}
			}
			t.logger.Warn("request failed",
				"provider", t.config.Name,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		errorBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, &AuthError{
				Provider: t.config.Name,
				Message:  string(errorBody),
			}

		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &RateLimitError{
				Provider:   t.config.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(errorBody),
			}

		case resp.StatusCode < 500:
			return nil, &ProviderError{
				Provider:   t.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}

		default:
			lastErr = &ProviderError{
				Provider:   t.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			t.logger.Warn("request returned error status",
				"provider", t.config.Name,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	return nil, lastErr
}

// DoJSONRequest marshals reqBody, performs the request and decodes the
// response into respBody. Timeout bounds the whole exchange, body included.
func (t *HTTPTransport) DoJSONRequest(ctx context.Context, method, url string, reqBody, respBody any, headers map[string]string) error {
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := t.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return t.contextError(ctx)
		}
		return &ParseError{
			Provider: t.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    t.config.Name,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// contextError maps a done ctx to the error callers see: cancellation is
// passed through, a deadline becomes a *TimeoutError.
func (t *HTTPTransport) contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return t.timeoutError()
}

func (t *HTTPTransport) timeoutError() *TimeoutError {
	return &TimeoutError{
		Provider: t.config.Name,
		Timeout:  t.config.Timeout,
	}
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
