// Package metrics wraps Prometheus collector construction for the service.
//
// All collectors are registered with the default registry under the
// "media_sync" namespace and exposed through Handler.
package metrics
