package checks

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"media-sync/core/storage"
	"media-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckExport(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "media").Return(false, nil)

		_, err := CheckExport(context.Background(), mockClient, "media", "export")
		assert.ErrorIs(t, err, storage.ErrBucketMissing)
	})

	t.Run("Index Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "media").Return(true, nil)
		mockClient.On("GetObject", mock.Anything, "media", "export/users.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader("[]")), nil)
		mockClient.On("GetObject", mock.Anything, "media", "export/albums/index.json", mock.Anything).
			Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

		missing, err := CheckExport(context.Background(), mockClient, "media", "export")
		require.NoError(t, err)
		assert.Equal(t, []string{"albums/index.json"}, missing)
	})

	t.Run("All Present", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "media").Return(true, nil)
		mockClient.On("GetObject", mock.Anything, "media", mock.Anything, mock.Anything).
			Return(func() io.ReadCloser { return io.NopCloser(strings.NewReader("")) }, nil)

		missing, err := CheckExport(context.Background(), mockClient, "media", "export")
		require.NoError(t, err)
		assert.Empty(t, missing)
	})

	t.Run("Storage Failure", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "media").Return(true, nil)
		mockClient.On("GetObject", mock.Anything, "media", mock.Anything, mock.Anything).
			Return(nil, errors.New("connection reset"))

		_, err := CheckExport(context.Background(), mockClient, "media", "export")
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestCheckDevice(t *testing.T) {
	fs := afero.NewMemMapFs()

	report, err := CheckDevice(fs, "/media")
	require.NoError(t, err)
	assert.False(t, report.Exists)

	require.NoError(t, FixDevice(fs, "/media", zap.NewNop()))
	require.NoError(t, fs.MkdirAll("/media/cam", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/media/notes.txt", []byte("x"), 0o644))

	report, err = CheckDevice(fs, "/media")
	require.NoError(t, err)
	assert.True(t, report.Exists)
	assert.Equal(t, 1, report.Albums)

	_, err = CheckDevice(fs, "/media/notes.txt")
	assert.Error(t, err)
}
