package store

import (
	"context"
	"testing"
	"time"

	"media-sync/core/database"
	"media-sync/core/utils"
	"media-sync/feature/library/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func asset(owner, checksum string, localID, remoteID *string) *models.Asset {
	return &models.Asset{
		OwnerID:    owner,
		Checksum:   checksum,
		LocalID:    localID,
		RemoteID:   remoteID,
		FileName:   checksum + ".jpg",
		Type:       models.AssetTypeImage,
		CreatedAt:  t0,
		ModifiedAt: t0,
		UpdatedAt:  t0,
	}
}

func TestStore_PointLookups(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	_, err := s.UserByID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ETag(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AlbumByRemoteID(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)

	a := asset("u1", "c1", nil, utils.Ptr("r1"))
	require.NoError(t, s.Commit(ctx, &Changeset{
		PutUsers:  []models.User{{ID: "u1", UpdatedAt: t0}},
		PutAssets: []*models.Asset{a},
		PutETags:  []models.ETag{{ID: "u1", Time: utils.Ptr(t0)}},
	}))
	assert.NotZero(t, a.ID)

	user, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, user.UpdatedAt.Equal(t0))

	got, err := s.AssetByRemoteID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = s.AssetByIdentity(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	etag, err := s.ETag(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, etag.Time.Equal(t0))
}

func TestStore_AssetsByIdentity(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	require.NoError(t, s.Commit(ctx, &Changeset{PutAssets: []*models.Asset{
		asset("u1", "c1", utils.Ptr("l1"), nil),
		asset("u1", "c2", nil, utils.Ptr("r2")),
		asset("u2", "c1", nil, utils.Ptr("r3")),
	}}))

	found, err := s.AssetsByIdentity(ctx, []models.Asset{
		*asset("u1", "c1", nil, nil),
		*asset("u2", "c1", nil, nil),
		*asset("u2", "c9", nil, nil),
	})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "l1", *found["u1\x00c1"].LocalID)
	assert.Equal(t, "r3", *found["u2\x00c1"].RemoteID)
}

func TestStore_AlbumsAndMembership(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	a1 := asset("u1", "c1", nil, utils.Ptr("r1"))
	a2 := asset("u2", "c2", nil, utils.Ptr("r2"))
	a3 := asset("u1", "c3", utils.Ptr("l3"), nil)
	shared := &models.Album{RemoteID: utils.Ptr("ra1"), OwnerID: utils.Ptr("u2"), Name: "Trip", Shared: true}
	owned := &models.Album{RemoteID: utils.Ptr("ra2"), OwnerID: utils.Ptr("u1"), Name: "Mine"}
	device := &models.Album{LocalID: utils.Ptr("camera"), Name: "Camera"}

	require.NoError(t, s.Commit(ctx, &Changeset{
		PutUsers:   []models.User{{ID: "u1"}, {ID: "u2"}},
		PutAssets:  []*models.Asset{a1, a2, a3},
		NewAlbums:  []*models.Album{shared, owned, device},
		LinkAssets: []AssetLink{{Album: shared, Assets: []*models.Asset{a1, a2}}, {Album: device, Assets: []*models.Asset{a3}}},
		LinkUsers:  []UserLink{{Album: shared, UserIDs: []string{"u1"}}},
		Thumbnails: []Thumbnail{{Album: shared, Asset: a2}},
	}))

	albums, err := s.RemoteAlbums(ctx, true, "u1")
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Trip", albums[0].Name)
	assert.Equal(t, a2.ID, *albums[0].ThumbnailID)

	albums, err = s.RemoteAlbums(ctx, false, "u1")
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Mine", albums[0].Name)

	albums, err = s.LocalAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "camera", *albums[0].LocalID)

	members, err := s.AlbumAssets(ctx, shared.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	users, err := s.AlbumSharedUserIDs(ctx, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users)

	assetCount, userCount, err := s.AlbumCounts(ctx, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, assetCount)
	assert.Equal(t, 1, userCount)

	ids, err := s.LinkedAssetIDs(ctx, ScopeShared)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a1.ID, a2.ID}, ids)

	ids, err = s.LinkedAssetIDs(ctx, ScopeLocal)
	require.NoError(t, err)
	assert.Equal(t, []int64{a3.ID}, ids)

	partners, err := s.PartnerIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, partners)
}

func TestStore_SchemaReport(t *testing.T) {
	ctx := context.Background()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE etags (id TEXT PRIMARY KEY, time DATETIME)").Error)
	s := New(db)

	report, err := s.SchemaReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"asset_count"}, report["etags"])
	assert.Equal(t, requiredColumns["users"], report["users"])

	require.NoError(t, s.Migrate(ctx))
	report, err = s.SchemaReport(ctx)
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestStore_OriginlessAssets(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	require.NoError(t, s.Commit(ctx, &Changeset{PutAssets: []*models.Asset{
		asset("u1", "c1", utils.Ptr("l1"), nil),
		asset("u1", "c2", nil, nil),
	}}))

	n, err := s.OriginlessAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
