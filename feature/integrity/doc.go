// Package integrity provides health checks of the library infrastructure.
//
// Unlike the sync feature, which reconciles content, this package validates
// the things the passes depend on.
//
// # Checks Provided
//
//   - Export: the server export documents exist in the storage bucket.
//   - Device: the device media root exists and holds album directories.
//   - Schema: the library tables carry every column the store needs.
//   - Library: the snapshot holds no asset without an origin.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/export : Runs the export check.
//   - GET /integrity/device : Runs the device check (supports ?fix=true).
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/library : Runs the library check.
package integrity
