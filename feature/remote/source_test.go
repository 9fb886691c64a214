package remote_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"media-sync/core/storage/mocks"
	"media-sync/feature/library/models"
	"media-sync/feature/remote"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newSource(objects map[string]string) (*remote.Source, *mocks.Client) {
	client := new(mocks.Client)
	for name, body := range objects {
		client.On("GetObject", mock.Anything, "media", name, mock.Anything).
			Return(func() io.ReadCloser { return io.NopCloser(strings.NewReader(body)) }, nil)
	}
	client.On("GetObject", mock.Anything, "media", mock.Anything, mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})
	return remote.NewSource(client, "media", "me", remote.Config{Prefix: "export"}, zap.NewNop()), client
}

func TestChangedAssets(t *testing.T) {
	ctx := context.Background()
	src, _ := newSource(map[string]string{
		"export/changes.json": `{
			"oldest": "2024-06-01T08:00:00Z",
			"upserted": [
				{"id": "r1", "ownerId": "me", "checksum": "c1", "updatedAt": "2024-06-01T10:00:00Z"},
				{"id": "r2", "ownerId": "stranger", "checksum": "c2", "updatedAt": "2024-06-01T10:00:00Z"},
				{"id": "r3", "ownerId": "me", "checksum": "c3", "updatedAt": "2024-06-01T08:30:00Z"}
			],
			"deleted": [
				{"id": "r4", "ownerId": "partner", "deletedAt": "2024-06-01T11:00:00Z"},
				{"id": "r5", "ownerId": "me", "deletedAt": "2024-06-01T08:10:00Z"}
			]
		}`,
	})

	t.Run("WithinLog", func(t *testing.T) {
		delta, err := src.ChangedAssets(ctx, []string{"me", "partner"}, t0)
		require.NoError(t, err)
		require.NotNil(t, delta)
		require.Len(t, delta.Upserted, 1)
		assert.Equal(t, "r1", *delta.Upserted[0].RemoteID)
		assert.Equal(t, []string{"r4"}, delta.Deleted)
	})

	t.Run("BeforeOldest", func(t *testing.T) {
		delta, err := src.ChangedAssets(ctx, []string{"me"}, t0.Add(-2*time.Hour))
		require.NoError(t, err)
		assert.Nil(t, delta)
	})

	t.Run("NothingNew", func(t *testing.T) {
		delta, err := src.ChangedAssets(ctx, []string{"me"}, t0.Add(5*time.Hour))
		require.NoError(t, err)
		require.NotNil(t, delta)
		assert.NotNil(t, delta.Upserted)
		assert.Empty(t, delta.Upserted)
		assert.Empty(t, delta.Deleted)
	})
}

func TestChangedAssets_NoLog(t *testing.T) {
	src, _ := newSource(nil)
	delta, err := src.ChangedAssets(context.Background(), []string{"me"}, t0)
	require.NoError(t, err)
	assert.Nil(t, delta)
}

func TestChangedAssets_StorageFailure(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "media", "export/changes.json", mock.Anything).
		Return(nil, errors.New("connection reset"))
	src := remote.NewSource(client, "media", "me", remote.Config{Prefix: "export"}, zap.NewNop())

	_, err := src.ChangedAssets(context.Background(), []string{"me"}, t0)
	assert.ErrorContains(t, err, "connection reset")
}

func TestLoadAssets(t *testing.T) {
	ctx := context.Background()
	src, _ := newSource(map[string]string{
		"export/assets/me.json": `[
			{"id": "r1", "checksum": "c1", "originalFileName": "a.jpg", "type": "image", "updatedAt": "2024-06-01T08:00:00Z", "isFavorite": true},
			{"id": "r2", "checksum": "c2", "updatedAt": "2024-06-01T10:00:00Z"}
		]`,
	})

	assets, err := src.LoadAssets(ctx, models.User{ID: "me"}, t0)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "me", assets[0].OwnerID)
	assert.Equal(t, "c1", assets[0].Checksum)
	assert.Equal(t, models.AssetTypeImage, assets[0].Type)
	assert.True(t, assets[0].IsFavorite)
	assert.Nil(t, assets[0].LocalID)

	// A user without an export has no assets.
	assets, err = src.LoadAssets(ctx, models.User{ID: "partner"}, t0)
	require.NoError(t, err)
	assert.NotNil(t, assets)
	assert.Empty(t, assets)
}

func TestRefreshUsers(t *testing.T) {
	src, _ := newSource(map[string]string{
		"export/users.json": `[{"id": "me", "name": "Me", "isPartnerSharedWith": false}, {"id": "partner", "isPartnerSharedWith": true}]`,
	})
	users, err := src.RefreshUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[1].IsPartnerSharedWith)

	missing, _ := newSource(nil)
	_, err = missing.RefreshUsers(context.Background())
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestListAlbumsAndDetail(t *testing.T) {
	ctx := context.Background()
	src, _ := newSource(map[string]string{
		"export/albums/index.json": `[
			{"id": "a1", "ownerId": "me", "albumName": "Mine", "shared": false, "assetCount": 0},
			{"id": "a2", "ownerId": "friend", "albumName": "Trip", "shared": true, "assetCount": 1},
			{"id": "a3", "ownerId": "me", "albumName": "Both", "shared": true, "assetCount": 0}
		]`,
		"export/albums/a2.json": `{
			"id": "a2", "ownerId": "friend", "albumName": "Trip", "shared": true, "assetCount": 1,
			"albumThumbnailAssetId": "r9",
			"assets": [{"id": "r9", "ownerId": "friend", "checksum": "c9"}],
			"sharedUsers": [{"id": "me"}]
		}`,
	})

	owned, err := src.ListAlbums(ctx, false)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	shared, err := src.ListAlbums(ctx, true)
	require.NoError(t, err)
	require.Len(t, shared, 2)
	assert.Equal(t, "Trip", shared[0].Name)

	detail, err := src.AlbumDetail(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.AssetCount)
	require.Len(t, detail.Assets, 1)
	assert.Equal(t, "c9", detail.Assets[0].Checksum)
	assert.Equal(t, "r9", *detail.ThumbnailAssetID)
	assert.Equal(t, "me", detail.SharedUsers[0].ID)

	_, err = src.AlbumDetail(ctx, "a404")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}
