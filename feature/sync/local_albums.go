package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"media-sync/core/reconcile"
	"media-sync/core/utils"
	"media-sync/feature/library/models"
	"media-sync/feature/library/store"

	"go.uber.org/zap"
)

func localAlbumKey(a models.Album) string { return utils.Deref(a.LocalID) }

// SyncLocalAlbums applies the device's album list to the snapshot. Assets
// whose device id is in excluded are ignored; a non-empty exclusion set
// disables the incremental path.
func (s *Service) SyncLocalAlbums(ctx context.Context, albums []models.Album, excluded map[string]struct{}) bool {
	return s.exclusive(ctx, PassLocalAlbums, func(ctx context.Context) (bool, error) {
		return s.syncLocalAlbums(ctx, albums, excluded)
	})
}

func (s *Service) syncLocalAlbums(ctx context.Context, albums []models.Album, excluded map[string]struct{}) (bool, error) {
	var onDevice []models.Album
	for _, a := range albums {
		if a.LocalID != nil {
			onDevice = append(onDevice, a)
		}
	}
	sortByKey(onDevice, localAlbumKey)
	onDevice = reconcile.Unique(onDevice, localAlbumKey, nil)

	stored, err := s.store.LocalAlbums(ctx)
	if err != nil {
		return false, err
	}
	sortByKey(stored, localAlbumKey)

	var (
		c       candidates
		changed bool
	)
	track := func(op string, localID string, ok bool, err error) bool {
		if err != nil {
			s.logger.Error("Device album sync failed",
				zap.String("op", op),
				zap.String("local_id", localID),
				zap.Error(err),
			)
			return false
		}
		changed = changed || ok
		return ok
	}
	reconcile.Diff(onDevice, stored, localAlbumKey, localAlbumKey,
		func(device, album models.Album) bool {
			ok, err := s.syncLocalAlbum(ctx, device, album, excluded, &c)
			return track("update", localAlbumKey(device), ok, err)
		},
		func(device models.Album) {
			ok, err := s.addLocalAlbum(ctx, device, excluded)
			track("add", localAlbumKey(device), ok, err)
		},
		func(album models.Album) {
			ok, err := s.removeLocalAlbum(ctx, album, &c)
			track("remove", localAlbumKey(album), ok, err)
		},
	)

	ok, err := s.removeUnreferenced(ctx, &c, store.ScopeLocal, OriginLocal)
	track("cleanup", "", ok, err)
	return changed, nil
}

// hashedAssets scans a device album and returns its assets owned by the user,
// deduplicated and ascending by checksum.
func (s *Service) hashedAssets(ctx context.Context, album models.Album, opts HashOptions) ([]models.Asset, error) {
	assets, err := s.device.HashedAssets(ctx, album, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	for i := range assets {
		assets[i].OwnerID = s.userID
		assets[i].ID = 0
		assets[i].RemoteID = nil
	}
	return s.removeDuplicates(assets), nil
}

func (s *Service) deviceCount(ctx context.Context, album models.Album) (int, error) {
	n, err := s.device.AssetCount(ctx, localAlbumKey(album))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return n, nil
}

// knownCount returns the device asset count recorded at the last sync of an album.
func (s *Service) knownCount(ctx context.Context, album models.Album) (*int, error) {
	etag, err := s.store.ETag(ctx, models.DeviceAlbumETagID(localAlbumKey(album)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return etag.AssetCount, nil
}

func countETag(album models.Album, count int) models.ETag {
	return models.ETag{ID: models.DeviceAlbumETagID(localAlbumKey(album)), AssetCount: utils.Ptr(count)}
}

func (s *Service) syncLocalAlbum(ctx context.Context, device, album models.Album, excluded map[string]struct{}, c *candidates) (bool, error) {
	total, err := s.deviceCount(ctx, device)
	if err != nil {
		return false, err
	}
	known, err := s.knownCount(ctx, album)
	if err != nil {
		return false, err
	}
	if device.Name == album.Name && device.ModifiedAt.Equal(album.ModifiedAt) && known != nil && *known == total {
		return false, nil
	}

	if len(excluded) == 0 {
		ok, err := s.syncLocalAlbumFast(ctx, device, album, total, known)
		if err != nil || ok {
			return ok, err
		}
	}
	return s.syncLocalAlbumFull(ctx, device, album, total, excluded, c)
}

// syncLocalAlbumFast links only the assets modified since the last sync. It
// applies when the device count grew by exactly the number of such assets;
// a deletion balanced by an addition goes unnoticed.
func (s *Service) syncLocalAlbumFast(ctx context.Context, device, album models.Album, total int, known *int) (bool, error) {
	if known == nil || !device.ModifiedAt.After(album.ModifiedAt) || total <= *known {
		return false, nil
	}
	from := album.ModifiedAt.Add(time.Second)
	until := device.ModifiedAt
	added, err := s.hashedAssets(ctx, device, HashOptions{ModifiedFrom: &from, ModifiedUntil: &until})
	if err != nil {
		return false, err
	}
	if total != *known+len(added) {
		s.logger.Debug("Fast path count mismatch, running full sync",
			zap.String("local_id", localAlbumKey(device)),
			zap.Int("total", total),
			zap.Int("known", *known),
			zap.Int("added", len(added)),
		)
		return false, nil
	}

	upsert, existing, err := s.linkWithExisting(ctx, added)
	if err != nil {
		return false, err
	}
	a := album
	a.Name = device.Name
	a.ModifiedAt = device.ModifiedAt
	cs := &store.Changeset{
		PutAssets:    upsert,
		LinkAssets:   []store.AssetLink{{Album: &a, Assets: append(upsert, existing...)}},
		UpdateAlbums: []*models.Album{&a},
		PutETags:     []models.ETag{countETag(a, total)},
	}
	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to update device album %s: %w", localAlbumKey(a), err)
	}
	s.logger.Info("Device album updated incrementally",
		zap.String("local_id", localAlbumKey(a)),
		zap.Int("added", len(added)),
	)
	return true, nil
}

func (s *Service) syncLocalAlbumFull(ctx context.Context, device, album models.Album, total int, excluded map[string]struct{}, c *candidates) (bool, error) {
	onDevice, err := s.hashedAssets(ctx, device, HashOptions{Excluded: excluded})
	if err != nil {
		return false, err
	}
	members, err := s.store.AlbumAssets(ctx, album.ID)
	if err != nil {
		return false, err
	}
	var inDB []models.Asset
	for _, m := range members {
		if m.OwnerID == s.userID {
			inDB = append(inDB, m)
		}
	}
	sortByKey(inDB, models.ChecksumKey)

	d := DiffAssets(onDevice, inDB, models.ChecksumKey, OriginUnspecified)
	a := album
	if d.Empty() && device.Name == album.Name && device.ModifiedAt.Equal(album.ModifiedAt) {
		// Only excluded assets changed.
		if err := s.commit(ctx, &store.Changeset{PutETags: []models.ETag{countETag(a, total)}}); err != nil {
			return false, fmt.Errorf("failed to store count of device album %s: %w", localAlbumKey(a), err)
		}
		return false, nil
	}

	upsert, existing, err := s.linkWithExisting(ctx, d.ToAdd)
	if err != nil {
		return false, err
	}
	updated := pointers(d.ToUpdate)
	a.Name = device.Name
	a.ModifiedAt = device.ModifiedAt

	cs := &store.Changeset{
		PutAssets:    append(updated, upsert...),
		UpdateAlbums: []*models.Album{&a},
		PutETags:     []models.ETag{countETag(a, total)},
	}
	if len(d.ToRemove) > 0 {
		cs.UnlinkAssets = []store.AssetLink{{Album: &a, Assets: pointers(d.ToRemove)}}
	}
	if linked := append(upsert, existing...); len(linked) > 0 {
		cs.LinkAssets = []store.AssetLink{{Album: &a, Assets: linked}}
	}

	removed := make(map[int64]struct{}, len(d.ToRemove))
	for _, r := range d.ToRemove {
		removed[r.ID] = struct{}{}
	}
	thumbnailGone := false
	if a.ThumbnailID != nil {
		_, thumbnailGone = removed[*a.ThumbnailID]
	}
	if a.ThumbnailID == nil || thumbnailGone {
		cs.Thumbnails = []store.Thumbnail{{Album: &a, Asset: firstByChecksum(onDevice, upsert, existing, updated, pointers(inDB))}}
	}

	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to update device album %s: %w", localAlbumKey(a), err)
	}
	c.add(d.ToRemove...)
	s.logger.Info("Device album synced",
		zap.String("local_id", localAlbumKey(a)),
		zap.Int("added", len(d.ToAdd)),
		zap.Int("updated", len(d.ToUpdate)),
		zap.Int("removed", len(d.ToRemove)),
	)
	return true, nil
}

// firstByChecksum returns the stored row of the first device asset.
func firstByChecksum(onDevice []models.Asset, rows ...[]*models.Asset) *models.Asset {
	if len(onDevice) == 0 {
		return nil
	}
	for _, list := range rows {
		for _, r := range list {
			if r.Checksum == onDevice[0].Checksum {
				return r
			}
		}
	}
	return nil
}

func (s *Service) addLocalAlbum(ctx context.Context, device models.Album, excluded map[string]struct{}) (bool, error) {
	total, err := s.deviceCount(ctx, device)
	if err != nil {
		return false, err
	}
	assets, err := s.hashedAssets(ctx, device, HashOptions{Excluded: excluded})
	if err != nil {
		return false, err
	}
	upsert, existing, err := s.linkWithExisting(ctx, assets)
	if err != nil {
		return false, err
	}

	album := &models.Album{
		LocalID:    device.LocalID,
		Name:       device.Name,
		CreatedAt:  device.CreatedAt,
		ModifiedAt: device.ModifiedAt,
	}
	if album.CreatedAt.IsZero() {
		album.CreatedAt = device.ModifiedAt
	}
	cs := &store.Changeset{
		PutAssets: upsert,
		NewAlbums: []*models.Album{album},
		PutETags:  []models.ETag{countETag(*album, total)},
	}
	if linked := append(upsert, existing...); len(linked) > 0 {
		cs.LinkAssets = []store.AssetLink{{Album: album, Assets: linked}}
		cs.Thumbnails = []store.Thumbnail{{Album: album, Asset: firstByChecksum(assets, linked)}}
	}
	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to add device album %s: %w", localAlbumKey(device), err)
	}
	s.logger.Info("Device album added",
		zap.String("local_id", localAlbumKey(device)),
		zap.Int("assets", len(assets)),
	)
	return true, nil
}

// removeLocalAlbum drops a device album the device no longer reports. Its
// device backed members become deletion candidates.
func (s *Service) removeLocalAlbum(ctx context.Context, album models.Album, c *candidates) (bool, error) {
	members, err := s.store.AlbumAssets(ctx, album.ID)
	if err != nil {
		return false, err
	}
	var local []models.Asset
	for _, m := range members {
		if m.IsLocal() {
			local = append(local, m)
		}
	}

	cs := &store.Changeset{
		DeleteAlbums: []int64{album.ID},
		DeleteETags:  []string{models.DeviceAlbumETagID(localAlbumKey(album))},
	}
	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to remove device album %s: %w", localAlbumKey(album), err)
	}
	c.add(local...)
	s.logger.Info("Device album removed",
		zap.String("local_id", localAlbumKey(album)),
		zap.Int("candidates", len(local)),
	)
	return true, nil
}
