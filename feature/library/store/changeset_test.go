package store

import (
	"context"
	"errors"
	"testing"

	"media-sync/core/utils"
	"media-sync/feature/library/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return New(gormDB), mock
}

func TestChangeset_Empty(t *testing.T) {
	assert.True(t, (&Changeset{}).Empty())
	assert.False(t, (&Changeset{DeleteETags: []string{"x"}}).Empty())
	assert.False(t, (&Changeset{Thumbnails: []Thumbnail{{}}}).Empty())
}

func TestCommit_EmptyIsNoop(t *testing.T) {
	s, mock := setupMockStore(t)
	assert.NoError(t, s.Commit(context.Background(), &Changeset{}))
	assert.NoError(t, s.Commit(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_FailureRollsBackAndReportsStep(t *testing.T) {
	s, mock := setupMockStore(t)
	album := &models.Album{ID: 4}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `album_assets`").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := s.Commit(context.Background(), &Changeset{
		UnlinkAssets: []AssetLink{{Album: album, Assets: []*models.Asset{{ID: 9}}}},
		PutETags:     []models.ETag{{ID: "u1"}},
	})

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, StepUnlink, commitErr.Step)
	assert.ErrorContains(t, err, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_IsAtomic(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	require.NoError(t, s.Commit(ctx, &Changeset{
		PutUsers:  []models.User{{ID: "u1"}, {ID: "u2"}},
		PutAssets: []*models.Asset{asset("u1", "c1", nil, utils.Ptr("r1"))},
	}))

	// The duplicate identity fails the upsert step after the user was deleted.
	err := s.Commit(ctx, &Changeset{
		DeleteUsers: []string{"u2"},
		PutAssets:   []*models.Asset{asset("u1", "c1", nil, utils.Ptr("r9"))},
		PutETags:    []models.ETag{{ID: "u1", Time: utils.Ptr(t0)}},
	})
	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, StepUpsert, commitErr.Step)

	_, err = s.UserByID(ctx, "u2")
	assert.NoError(t, err)
	_, err = s.ETag(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommit_DeletesCascadeToLinks(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	a1 := asset("u1", "c1", utils.Ptr("l1"), nil)
	a2 := asset("u1", "c2", utils.Ptr("l2"), nil)
	album := &models.Album{LocalID: utils.Ptr("camera"), Name: "Camera"}
	other := &models.Album{RemoteID: utils.Ptr("ra"), Name: "Shared", Shared: true}
	require.NoError(t, s.Commit(ctx, &Changeset{
		PutUsers:   []models.User{{ID: "u1"}, {ID: "u2"}},
		PutAssets:  []*models.Asset{a1, a2},
		NewAlbums:  []*models.Album{album, other},
		LinkAssets: []AssetLink{{Album: album, Assets: []*models.Asset{a1, a2}}, {Album: other, Assets: []*models.Asset{a2}}},
		LinkUsers:  []UserLink{{Album: other, UserIDs: []string{"u1", "u2"}}},
		Thumbnails: []Thumbnail{{Album: album, Asset: a1}},
	}))

	require.NoError(t, s.Commit(ctx, &Changeset{
		DeleteAssets: []int64{a1.ID},
		DeleteUsers:  []string{"u2"},
	}))

	stored, err := s.AlbumByLocalID(ctx, "camera")
	require.NoError(t, err)
	assert.Nil(t, stored.ThumbnailID)

	members, err := s.AlbumAssets(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, a2.ID, members[0].ID)

	users, err := s.AlbumSharedUserIDs(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users)

	require.NoError(t, s.Commit(ctx, &Changeset{DeleteAlbums: []int64{other.ID}}))
	ids, err := s.LinkedAssetIDs(ctx, ScopeShared)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Assets are kept; only memberships go with the album.
	_, err = s.AssetByID(ctx, a2.ID)
	assert.NoError(t, err)
}

func TestCommit_UnlinkThenRelink(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	a1 := asset("u1", "c1", nil, utils.Ptr("r1"))
	album := &models.Album{RemoteID: utils.Ptr("ra"), Name: "A"}
	require.NoError(t, s.Commit(ctx, &Changeset{
		PutAssets:  []*models.Asset{a1},
		NewAlbums:  []*models.Album{album},
		LinkAssets: []AssetLink{{Album: album, Assets: []*models.Asset{a1}}},
	}))

	album.Name = "B"
	require.NoError(t, s.Commit(ctx, &Changeset{
		UnlinkAssets: []AssetLink{{Album: album, Assets: []*models.Asset{a1}}},
		LinkAssets:   []AssetLink{{Album: album, Assets: []*models.Asset{a1}}},
		UpdateAlbums: []*models.Album{album},
	}))

	members, err := s.AlbumAssets(ctx, album.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
	stored, err := s.AlbumByRemoteID(ctx, "ra")
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Name)
}

func TestCommit_VanishedAssetIsSkipped(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	kept := asset("u1", "c1", utils.Ptr("l1"), nil)
	album := &models.Album{LocalID: utils.Ptr("camera"), Name: "Camera"}
	require.NoError(t, s.Commit(ctx, &Changeset{
		PutAssets: []*models.Asset{kept},
		NewAlbums: []*models.Album{album},
	}))

	gone := asset("u1", "c9", nil, utils.Ptr("r9"))
	gone.ID = 999
	kept.FileName = "renamed.jpg"
	cs := &Changeset{
		PutAssets:  []*models.Asset{gone, kept},
		LinkAssets: []AssetLink{{Album: album, Assets: []*models.Asset{gone, kept}}},
		Thumbnails: []Thumbnail{{Album: album, Asset: gone}},
	}
	require.NoError(t, s.Commit(ctx, cs))

	require.Len(t, cs.Vanished, 1)
	assert.Equal(t, int64(999), cs.Vanished[0].ID)
	_, err := s.AssetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := s.AssetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed.jpg", stored.FileName)

	members, err := s.AlbumAssets(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, kept.ID, members[0].ID)

	a, err := s.AlbumByLocalID(ctx, "camera")
	require.NoError(t, err)
	assert.Nil(t, a.ThumbnailID)
}
