package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransport(url string, maxRetries int) *HTTPTransport {
	return NewHTTPTransport(TransportConfig{
		Name:           "test-provider",
		BaseURL:        url,
		APIKey:         "sk-test",
		Timeout:        5 * time.Second,
		MaxRetries:     maxRetries,
		RetryBaseDelay: 5 * time.Millisecond,
	}, nil)
}

func TestHTTPTransport_RetryOn5xx(t *testing.T) {
	attemptCount := int32(0)

	// Fails twice with 500, then succeeds
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&attemptCount, 1)
		if count <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "internal server error"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "success"}`))
	}))
	defer server.Close()

	transport := testTransport(server.URL, 3)

	resp, err := transport.DoRequest(context.Background(), "POST", server.URL+"/test", []byte(`{"test": true}`), nil)
	require.NoError(t, err, "expected request to succeed after retries")
	defer resp.Body.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attemptCount), "expected 2 retries")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPTransport_NoRetryOn4xx(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		check      func(t *testing.T, err error)
	}{
		{
			name:       "400 bad request",
			statusCode: http.StatusBadRequest,
			check: func(t *testing.T, err error) {
				var e *ProviderError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, http.StatusBadRequest, e.StatusCode)
			},
		},
		{
			name:       "401 unauthorized",
			statusCode: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var e *AuthError
				assert.ErrorAs(t, err, &e)
			},
		},
		{
			name:       "403 forbidden",
			statusCode: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var e *AuthError
				assert.ErrorAs(t, err, &e)
			},
		},
		{
			name:       "429 rate limit",
			statusCode: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				var e *RateLimitError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 2*time.Second, e.RetryAfter)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attemptCount := int32(0)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attemptCount, 1)
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"error": "client error"}`))
			}))
			defer server.Close()

			transport := testTransport(server.URL, 3)
			_, err := transport.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), nil)
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, int32(1), atomic.LoadInt32(&attemptCount))
		})
	}
}

func TestHTTPTransport_MaxRetries(t *testing.T) {
	attemptCount := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attemptCount, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	transport := testTransport(server.URL, 2)
	_, err := transport.DoRequest(context.Background(), "GET", server.URL, nil, nil)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusServiceUnavailable, providerErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attemptCount))
}

func TestHTTPTransport_ZeroRetries(t *testing.T) {
	attemptCount := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attemptCount, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	transport := testTransport(server.URL, 0)
	_, err := transport.DoRequest(context.Background(), "GET", server.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attemptCount), "expected a single attempt")
}

func TestHTTPTransport_Headers(t *testing.T) {
	var gotAuth, gotContentType, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := testTransport(server.URL, 0)
	resp, err := transport.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), map[string]string{"X-Custom": "yes"})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "yes", gotCustom)
}

func TestHTTPTransport_ContextCanceledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	transport := NewHTTPTransport(TransportConfig{
		Name:           "test-provider",
		MaxRetries:     5,
		RetryBaseDelay: time.Second,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := transport.DoRequest(ctx, "GET", server.URL, nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "expected backoff to be interrupted")
}

func TestHTTPTransport_CancelIsNotTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	transport := testTransport(server.URL, 3)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := transport.DoRequest(ctx, "POST", server.URL, []byte(`{}`), nil)
	require.ErrorIs(t, err, context.Canceled)

	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr), "cancellation reported as %T", err)
	assert.Equal(t, "canceled", ErrorType(err))
}

func TestHTTPTransport_SlowHeadersTimeOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	transport := NewHTTPTransport(TransportConfig{
		Name:    "test-provider",
		Timeout: 50 * time.Millisecond,
	}, nil)

	start := time.Now()
	_, err := transport.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHTTPTransport_StreamOutlivesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()
		for i := 0; i < 4; i++ {
			time.Sleep(40 * time.Millisecond)
			_, _ = io.WriteString(w, "data: {}\n\n")
			flusher.Flush()
		}
	}))
	defer server.Close()

	transport := NewHTTPTransport(TransportConfig{
		Name:    "test-provider",
		Timeout: 50 * time.Millisecond,
	}, nil)

	resp, err := transport.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "stream body cut off by the request timeout")
	assert.Equal(t, 4, strings.Count(string(body), "data: {}"))
}

func TestHTTPTransport_DoJSONRequest(t *testing.T) {
	t.Run("decodes response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"value": 42}`))
		}))
		defer server.Close()

		var out struct {
			Value int `json:"value"`
		}
		transport := testTransport(server.URL, 0)
		require.NoError(t, transport.DoJSONRequest(context.Background(), "POST", server.URL, map[string]string{"a": "b"}, &out, nil))
		assert.Equal(t, 42, out.Value)
	})

	t.Run("malformed response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		var out map[string]any
		transport := testTransport(server.URL, 0)
		err := transport.DoJSONRequest(context.Background(), "POST", server.URL, nil, &out, nil)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "not json", parseErr.RawResponse)
	})

	t.Run("slow body times out", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, `{"value":`)
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		transport := NewHTTPTransport(TransportConfig{
			Name:    "test-provider",
			Timeout: 50 * time.Millisecond,
		}, nil)

		var out map[string]any
		err := transport.DoJSONRequest(context.Background(), "POST", server.URL, nil, &out, nil)

		var timeoutErr *TimeoutError
		assert.ErrorAs(t, err, &timeoutErr)
	})
}

func TestParseRetryAfter(t *testing.T) {
	assert.Zero(t, parseRetryAfter(""))
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Zero(t, parseRetryAfter("garbage"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	got := parseRetryAfter(future)
	assert.Positive(t, got)
	assert.LessOrEqual(t, got, time.Hour)
}
