// Package database handles the connection to the library database.
//
// It wraps GORM and configures either MySQL (shared deployments) or SQLite
// (single device deployments and tests) from the "database" configuration section.
//
// # Connect
//
// Connect opens the database, applies pool settings and verifies the connection
// with a ping bounded by the configured timeout. SQLite connections are limited
// to a single open connection so that in-memory databases are shared and writers
// are serialized.
//
// # Schema Inspection
//
// MissingColumns reports required columns absent from a table. The library store
// uses it after migrating to verify the schema it depends on.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
