// Package config provides configuration management for media-sync.
//
// It uses Viper to read environment variables, optionally loaded from a
// .env file. Nested keys map to upper case variables joined by underscores,
// e.g. SYNC_USER_ID sets sync.user_id.
//
// # Configuration Structure
//
//   - Server: HTTP port and API key
//   - Storage: MinIO/S3 credentials and bucket of the server export
//   - Log: logging level and format
//   - Database: library database driver and connection
//   - Sync: the user whose library is synced
//   - Remote: object prefix of the server export
//   - Device: root directory of the device media library
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.UserID)
package config
