// Package telemetry bundles the observability of a PatientSeek process.
//
// # Components
//
//   - logging: structured slog logging with secret redaction
//   - metrics: Prometheus metrics for generate calls
//
// # Usage
//
//	tel, err := telemetry.New(cfg.Telemetry, os.Stderr)
//	if err != nil {
//		return err
//	}
//
//	logger := tel.Logger()
//	logger.Info("starting", "version", version)
//
//	plugin, err := deepseek.New(deepseek.Options{
//		Logger:  logger,
//		Metrics: tel.Metrics(),
//	})
package telemetry
