package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"media-sync/feature/library/models"
	"media-sync/feature/library/store"

	"go.uber.org/zap"
)

// SharedAssetsToRemove returns the ids of candidates that are not among the
// survivors. Both lists may be unsorted and contain repeats.
func SharedAssetsToRemove(candidates, survivors []models.Asset) []int64 {
	if len(candidates) == 0 {
		return nil
	}
	return assetIDs(unreferenced(candidates, survivors, OriginUnspecified).ToRemove)
}

// unreferenced diffs the candidates against the survivors by id. Candidates
// that did not survive are removed, or demoted when they still have the
// other origin.
func unreferenced(candidates, survivors []models.Asset, origin Origin) DiffResult {
	if len(candidates) == 0 {
		return DiffResult{}
	}
	c := sortUnique(slices.Clone(candidates), models.IDKey)
	sv := sortUnique(slices.Clone(survivors), models.IDKey)
	return DiffAssets(sv, c, models.IDKey, origin)
}

// candidates accumulates deletion candidates across the albums of one pass.
type candidates struct {
	ids []int64
}

func (c *candidates) add(assets ...models.Asset) {
	for _, a := range assets {
		c.ids = append(c.ids, a.ID)
	}
}

// removeUnreferenced deletes or demotes the candidates that are no longer a
// member of any album in scope.
func (s *Service) removeUnreferenced(ctx context.Context, c *candidates, scope store.AlbumScope, origin Origin) (bool, error) {
	if len(c.ids) == 0 {
		return false, nil
	}
	slices.Sort(c.ids)
	stored, err := s.store.AssetsByIDs(ctx, slices.Compact(c.ids))
	if err != nil {
		return false, err
	}

	linked, err := s.store.LinkedAssetIDs(ctx, scope)
	if err != nil {
		return false, err
	}
	survivors := make([]models.Asset, len(linked))
	for i, id := range linked {
		survivors[i] = models.Asset{ID: id}
	}

	d := unreferenced(stored, survivors, origin)
	if len(d.ToUpdate) == 0 && len(d.ToRemove) == 0 {
		return false, nil
	}
	cs := &store.Changeset{
		PutAssets:    pointers(d.ToUpdate),
		DeleteAssets: assetIDs(d.ToRemove),
	}
	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to remove unreferenced assets: %w", err)
	}
	s.logger.Info("Removed unreferenced assets",
		zap.Stringer("origin", origin),
		zap.Int("demoted", len(d.ToUpdate)),
		zap.Int("deleted", len(d.ToRemove)),
	)
	return true, nil
}

// WipeLocal forgets everything the device contributed: device albums and
// local only assets are deleted, assets the server also holds are demoted.
func (s *Service) WipeLocal(ctx context.Context) bool {
	return s.exclusive(ctx, PassWipeLocal, func(ctx context.Context) (bool, error) {
		assets, err := s.store.AssetsWithLocalID(ctx)
		if err != nil {
			return false, err
		}
		albums, err := s.store.LocalAlbums(ctx)
		if err != nil {
			return false, err
		}
		if len(assets) == 0 && len(albums) == 0 {
			return false, nil
		}

		sortByKey(assets, models.IDKey)
		d := DiffAssets(nil, assets, models.IDKey, OriginLocal)
		cs := &store.Changeset{
			PutAssets:    pointers(d.ToUpdate),
			DeleteAssets: assetIDs(d.ToRemove),
		}
		for _, album := range albums {
			cs.DeleteETags = append(cs.DeleteETags, models.DeviceAlbumETagID(localAlbumKey(album)))
			cs.DeleteAlbums = append(cs.DeleteAlbums, album.ID)
		}

		if err := s.commit(ctx, cs); err != nil {
			return false, fmt.Errorf("failed to wipe local data: %w", err)
		}
		s.logger.Info("Local data wiped",
			zap.Int("albums", len(albums)),
			zap.Int("demoted", len(d.ToUpdate)),
			zap.Int("deleted", len(d.ToRemove)),
		)
		return true, nil
	})
}

// InsertAsset stores a single new sighting, unifying it with a stored row of
// the same owner and checksum when that row can take it.
func (s *Service) InsertAsset(ctx context.Context, asset models.Asset) bool {
	return s.exclusive(ctx, PassInsertAsset, func(ctx context.Context) (bool, error) {
		row, err := s.store.AssetByIdentity(ctx, asset.OwnerID, asset.Checksum)
		var put models.Asset
		switch {
		case errors.Is(err, store.ErrNotFound):
			put = asset
			put.ID = 0
		case err != nil:
			return false, err
		case row.CanUpdate(asset):
			put = row.UpdatedCopy(asset)
		default:
			return false, nil
		}
		if err := s.commit(ctx, &store.Changeset{PutAssets: []*models.Asset{&put}}); err != nil {
			return false, fmt.Errorf("failed to insert asset: %w", err)
		}
		return true, nil
	})
}
