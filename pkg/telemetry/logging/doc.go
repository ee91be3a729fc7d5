// Package logging builds the structured loggers used across the module.
//
// New returns a plain *slog.Logger, so library code only ever depends on
// log/slog. The handler behind it adds request fields stored in the context
// and, with RedactSecrets, scrubs credentials and patient identifiers:
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "generate started",
//	    "api_key", "sk-abc123", // logged as "sk-a***"
//	)
//
// Built-in redaction rules:
//
//   - Bearer tokens: Bearer abc → Bearer ***
//   - API keys: sk-abc123 → sk-***
//   - Emails: jane@example.com → j***@example.com
//   - SSN: 123-45-6789 → ***-**-****
//   - Phone numbers: 555-123-4567 → ***-***-****
package logging
