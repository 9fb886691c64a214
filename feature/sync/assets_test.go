package sync

import (
	"testing"
	"time"

	"media-sync/core/utils"
	"media-sync/feature/library/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func mk(id int64, checksum string, localID, remoteID *string) models.Asset {
	return models.Asset{
		ID:         id,
		OwnerID:    "me",
		Checksum:   checksum,
		LocalID:    localID,
		RemoteID:   remoteID,
		CreatedAt:  t0,
		ModifiedAt: t0,
		UpdatedAt:  t0,
	}
}

func TestDiffAssets_FastPaths(t *testing.T) {
	a := mk(1, "a", nil, utils.Ptr("ra"))

	d := DiffAssets(nil, nil, models.ChecksumKey, OriginRemote)
	assert.True(t, d.Empty())

	d = DiffAssets(nil, []models.Asset{a}, models.ChecksumKey, OriginUnspecified)
	assert.Empty(t, d.ToAdd)
	assert.Empty(t, d.ToUpdate)
	assert.Equal(t, []models.Asset{a}, d.ToRemove)

	d = DiffAssets([]models.Asset{a}, nil, models.ChecksumKey, OriginLocal)
	assert.Equal(t, []models.Asset{a}, d.ToAdd)
	assert.Empty(t, d.ToRemove)
}

func TestDiffAssets_OnlyInStorage(t *testing.T) {
	unified := mk(1, "a", utils.Ptr("la"), utils.Ptr("ra"))
	remoteOnly := mk(2, "b", nil, utils.Ptr("rb"))
	localOnly := mk(3, "c", utils.Ptr("lc"), nil)
	stored := []models.Asset{unified, remoteOnly, localOnly}

	tests := []struct {
		name        string
		origin      Origin
		wantUpdated []int64
		wantRemoved []int64
	}{
		{"Remote", OriginRemote, []int64{1, 3}, []int64{2}},
		{"Local", OriginLocal, []int64{1, 2}, []int64{3}},
		{"Unspecified", OriginUnspecified, nil, []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// One incoming asset that matches nothing keeps the general path.
			incoming := []models.Asset{mk(0, "z", nil, utils.Ptr("rz"))}
			d := DiffAssets(incoming, stored, models.ChecksumKey, tt.origin)

			assert.Equal(t, incoming, d.ToAdd)
			var updated []int64
			for _, u := range d.ToUpdate {
				updated = append(updated, u.ID)
			}
			assert.Equal(t, tt.wantUpdated, updated)
			assert.Equal(t, tt.wantRemoved, assetIDs(d.ToRemove))
		})
	}

	t.Run("DemotionClearsOnlyTheDroppedOrigin", func(t *testing.T) {
		d := DiffAssets([]models.Asset{mk(0, "z", nil, nil)}, []models.Asset{unified}, models.ChecksumKey, OriginRemote)
		assert.Len(t, d.ToUpdate, 1)
		assert.Nil(t, d.ToUpdate[0].RemoteID)
		assert.Equal(t, "la", *d.ToUpdate[0].LocalID)
		// The input is left untouched.
		assert.NotNil(t, unified.RemoteID)
	})
}

func TestDiffAssets_MatchedPairs(t *testing.T) {
	stored := []models.Asset{
		mk(1, "a", utils.Ptr("la"), nil),
		mk(2, "b", nil, utils.Ptr("rb")),
	}
	newer := mk(0, "b", nil, utils.Ptr("rb"))
	newer.UpdatedAt = t0.Add(time.Hour)
	newer.IsFavorite = true
	incoming := []models.Asset{
		mk(0, "a", nil, utils.Ptr("ra")),
		newer,
	}

	d := DiffAssets(incoming, stored, models.ChecksumKey, OriginRemote)
	assert.Empty(t, d.ToAdd)
	assert.Empty(t, d.ToRemove)
	assert.Len(t, d.ToUpdate, 2)

	unified := d.ToUpdate[0]
	assert.Equal(t, int64(1), unified.ID)
	assert.Equal(t, "la", *unified.LocalID)
	assert.Equal(t, "ra", *unified.RemoteID)

	updated := d.ToUpdate[1]
	assert.Equal(t, int64(2), updated.ID)
	assert.True(t, updated.IsFavorite)

	// Unchanged input is idempotent.
	d = DiffAssets([]models.Asset{mk(0, "b", nil, utils.Ptr("rb"))}, []models.Asset{mk(2, "b", nil, utils.Ptr("rb"))}, models.ChecksumKey, OriginRemote)
	assert.True(t, d.Empty())
}

func TestSharedAssetsToRemove(t *testing.T) {
	candidates := []models.Asset{mk(3, "c", nil, nil), mk(1, "a", nil, nil), mk(3, "c", nil, nil), mk(2, "b", nil, nil)}
	survivors := []models.Asset{mk(2, "b", nil, nil), mk(9, "z", nil, nil)}

	assert.Equal(t, []int64{1, 3}, SharedAssetsToRemove(candidates, survivors))
	assert.Equal(t, []int64{1, 2, 3}, SharedAssetsToRemove(candidates, nil))
	assert.Nil(t, SharedAssetsToRemove(nil, survivors))
}

func TestUnreferenced_DemotesByOrigin(t *testing.T) {
	unified := mk(1, "a", utils.Ptr("la"), utils.Ptr("ra"))
	localOnly := mk(2, "b", utils.Ptr("lb"), nil)
	linked := mk(3, "c", utils.Ptr("lc"), nil)
	candidates := []models.Asset{linked, localOnly, unified, localOnly}

	d := unreferenced(candidates, []models.Asset{{ID: 3}}, OriginLocal)
	require.Len(t, d.ToUpdate, 1)
	assert.Equal(t, int64(1), d.ToUpdate[0].ID)
	assert.Nil(t, d.ToUpdate[0].LocalID)
	assert.Equal(t, []int64{2}, assetIDs(d.ToRemove))

	// The same sets without an origin remove both.
	assert.Equal(t, []int64{1, 2}, SharedAssetsToRemove(candidates, []models.Asset{{ID: 3}}))
}

func TestRemoveDuplicates(t *testing.T) {
	s := &Service{logger: zap.NewNop(), clock: clockwork.NewFakeClock()}

	late := mk(0, "a", utils.Ptr("l-late"), nil)
	late.CreatedAt = t0.Add(time.Minute)
	early := mk(0, "a", utils.Ptr("l-early"), nil)
	sameCreatedLaterModified := mk(0, "a", utils.Ptr("l-mod"), nil)
	sameCreatedLaterModified.ModifiedAt = t0.Add(time.Second)
	other := mk(0, "b", utils.Ptr("l-b"), nil)

	out := s.removeDuplicates([]models.Asset{late, other, sameCreatedLaterModified, early})
	assert.Len(t, out, 2)
	assert.Equal(t, "l-early", *out[0].LocalID)
	assert.Equal(t, "l-b", *out[1].LocalID)
}
