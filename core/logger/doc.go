// Package logger provides structured logging based on Zap.
//
// The logger is built once at startup from the "log" configuration section and
// injected into every service. Sync passes log with the pass name and counts of
// added, updated and removed records; data-integrity anomalies include a dump of
// the offending record.
//
// # Context Awareness
//
// WithRayID attaches the request RayID (set by the rayid middleware) so that all
// logs produced while serving one HTTP trigger can be correlated.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync started")
package logger
