// Package providers holds the pieces shared by backend adapters: the typed
// error taxonomy and the HTTP transport.
//
// # Errors
//
// Every failure the adapters surface is one of the structs in errors.go.
// Callers match them with errors.As:
//
//	var roleErr *providers.UnsupportedRoleError
//	if errors.As(err, &roleErr) {
//	    log.Printf("bad role %q", roleErr.Role)
//	}
//
// ErrorType maps an error to a short label suitable for metrics.
//
// # Transport
//
// HTTPTransport owns everything the translation layer deliberately does not:
// connection pooling, the bearer Authorization header, timeouts and retries
// with exponential backoff for network errors and 5xx responses. Status codes
// map to errors as follows:
//
//   - 401, 403: AuthError
//   - 429: RateLimitError (RetryAfter parsed from the header)
//   - other 4xx: ProviderError, returned immediately
//   - 5xx: ProviderError, retried up to MaxRetries
//
// Create a transport:
//
//	transport := providers.NewHTTPTransport(providers.TransportConfig{
//	    Name:       "deepseek",
//	    BaseURL:    "https://example.endpoints.huggingface.cloud/v1",
//	    APIKey:     os.Getenv("PATIENT_SEEK_API_KEY"),
//	    Timeout:    60 * time.Second,
//	    MaxRetries: 2,
//	}, slog.Default())
//	defer transport.Close()
package providers
