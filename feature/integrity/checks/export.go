package checks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"media-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// RequiredExportDocuments lists the documents a server export must contain.
var RequiredExportDocuments = []string{
	"users.json",
	"albums/index.json",
}

// CheckExport returns the required export documents missing below prefix.
func CheckExport(ctx context.Context, client storage.Client, bucket, prefix string) ([]string, error) {
	if err := storage.CheckBucket(ctx, client, bucket); err != nil {
		return nil, err
	}

	var missing []string
	for _, doc := range RequiredExportDocuments {
		found, err := objectExists(ctx, client, bucket, path.Join(prefix, doc))
		if err != nil {
			return nil, err
		}
		if !found {
			missing = append(missing, doc)
		}
	}
	return missing, nil
}

// objectExists reads the first byte of an object; MinIO reports a missing
// key only once the object is read.
func objectExists(ctx context.Context, client storage.Client, bucket, name string) (bool, error) {
	reader, err := client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err == nil {
		defer reader.Close()
		_, err = reader.Read(make([]byte, 1))
	}
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true, nil
	case minio.ToErrorResponse(err).Code == "NoSuchKey":
		return false, nil
	default:
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
}
