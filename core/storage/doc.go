// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the narrow Client interface the server
// export is read through, so that tests can substitute core/storage/mocks.
// Both AWS S3 and self-hosted MinIO instances are supported.
//
// # Operations
//
//   - BucketExists: verifies access to the export bucket.
//   - GetObject: retrieves an export document as a stream.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	if err := storage.CheckBucket(ctx, client, config.Bucket); err != nil {
//	    return err
//	}
package storage
