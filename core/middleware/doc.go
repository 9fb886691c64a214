// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting the sync routes.
//   - rayid: a unique request id (ray id) per request, stored in the
//     context locals and echoed in the response headers for tracing.
package middleware
