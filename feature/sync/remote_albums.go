package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"media-sync/core/reconcile"
	"media-sync/core/utils"
	"media-sync/feature/library/models"
	"media-sync/feature/library/store"

	"go.uber.org/zap"
)

func remoteAlbumKey(a RemoteAlbum) string { return a.ID }

func storedRemoteAlbumKey(a models.Album) string { return utils.Deref(a.RemoteID) }

func identity(s string) string { return s }

// SyncRemoteAlbums applies the server's album list to the snapshot, either
// the albums shared with the user or the ones it owns.
func (s *Service) SyncRemoteAlbums(ctx context.Context, albums []RemoteAlbum, shared bool) bool {
	return s.exclusive(ctx, PassRemoteAlbums, func(ctx context.Context) (bool, error) {
		return s.syncRemoteAlbums(ctx, albums, shared)
	})
}

func (s *Service) syncRemoteAlbums(ctx context.Context, albums []RemoteAlbum, shared bool) (bool, error) {
	incoming := slices.Clone(albums)
	sortByKey(incoming, remoteAlbumKey)
	incoming = reconcile.Unique(incoming, remoteAlbumKey, nil)

	stored, err := s.store.RemoteAlbums(ctx, shared, s.userID)
	if err != nil {
		return false, err
	}
	sortByKey(stored, storedRemoteAlbumKey)

	keep, err := s.keptOwners(ctx)
	if err != nil {
		return false, err
	}

	var (
		c       candidates
		changed bool
	)
	track := func(op string, albumID string, ok bool, err error) bool {
		if err != nil {
			s.logger.Error("Remote album sync failed",
				zap.String("op", op),
				zap.String("album_id", albumID),
				zap.Error(err),
			)
			return false
		}
		changed = changed || ok
		return ok
	}
	reconcile.Diff(incoming, stored, remoteAlbumKey, storedRemoteAlbumKey,
		func(dto RemoteAlbum, album models.Album) bool {
			ok, err := s.syncRemoteAlbum(ctx, dto, album, keep, &c)
			return track("update", dto.ID, ok, err)
		},
		func(dto RemoteAlbum) {
			ok, err := s.addRemoteAlbum(ctx, dto, keep, &c)
			track("add", dto.ID, ok, err)
		},
		func(album models.Album) {
			ok, err := s.removeRemoteAlbum(ctx, album, keep, &c)
			track("remove", storedRemoteAlbumKey(album), ok, err)
		},
	)

	if shared {
		ok, err := s.removeUnreferenced(ctx, &c, store.ScopeShared, OriginRemote)
		track("cleanup", "", ok, err)
	}
	return changed, nil
}

// keptOwners returns the owners whose assets are never removed when an album
// stops referencing them: the user and its partners.
func (s *Service) keptOwners(ctx context.Context) (map[string]struct{}, error) {
	owners, err := s.visibleUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(owners))
	for _, id := range owners {
		keep[id] = struct{}{}
	}
	return keep, nil
}

func addForeign(c *candidates, keep map[string]struct{}, assets []models.Asset) {
	for _, a := range assets {
		if _, ok := keep[a.OwnerID]; !ok {
			c.add(a)
		}
	}
}

// remoteAlbumChanged compares an album summary with the stored album.
func (s *Service) remoteAlbumChanged(ctx context.Context, dto RemoteAlbum, album models.Album) (bool, error) {
	assetCount, userCount, err := s.store.AlbumCounts(ctx, album.ID)
	if err != nil {
		return false, err
	}
	var thumbnail *string
	if album.ThumbnailID != nil {
		a, err := s.store.AssetByID(ctx, *album.ThumbnailID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
		if a != nil {
			thumbnail = a.RemoteID
		}
	}
	return dto.AssetCount != assetCount ||
		dto.Name != album.Name ||
		!utils.PtrEqual(dto.ThumbnailAssetID, thumbnail) ||
		dto.Shared != album.Shared ||
		len(dto.SharedUsers) != userCount ||
		!dto.UpdatedAt.Equal(album.ModifiedAt) ||
		!utils.TimePtrEqual(dto.StartDate, album.StartDate) ||
		!utils.TimePtrEqual(dto.EndDate, album.EndDate) ||
		!utils.TimePtrEqual(dto.LastModifiedAssetTimestamp, album.LastModifiedAssetTimestamp), nil
}

func applyRemoteAlbum(a *models.Album, dto RemoteAlbum) {
	a.RemoteID = utils.Ptr(dto.ID)
	a.OwnerID = utils.Ptr(dto.OwnerID)
	a.Name = dto.Name
	a.CreatedAt = dto.CreatedAt
	a.ModifiedAt = dto.UpdatedAt
	a.StartDate = dto.StartDate
	a.EndDate = dto.EndDate
	a.LastModifiedAssetTimestamp = dto.LastModifiedAssetTimestamp
	a.Shared = dto.Shared
	a.ActivityEnabled = dto.ActivityEnabled
}

func sharedUserIDs(dto RemoteAlbum) []string {
	ids := make([]string, 0, len(dto.SharedUsers))
	for _, u := range dto.SharedUsers {
		ids = append(ids, u.ID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// remoteThumbnail finds the stored row of the album cover among the given
// assets, falling back to a lookup by server id.
func (s *Service) remoteThumbnail(ctx context.Context, remoteID *string, assets ...[]*models.Asset) (*models.Asset, error) {
	if remoteID == nil {
		return nil, nil
	}
	for _, list := range assets {
		for _, a := range list {
			if utils.PtrEqual(a.RemoteID, remoteID) {
				return a, nil
			}
		}
	}
	a, err := s.store.AssetByRemoteID(ctx, *remoteID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// loadDetail returns the album with its complete asset list, or nil when the
// server reports an inconsistent one.
func (s *Service) loadDetail(ctx context.Context, remoteID string) (*RemoteAlbum, error) {
	detail, err := s.remote.AlbumDetail(ctx, remoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: no detail for album %s", ErrUpstreamUnavailable, remoteID)
	}
	if detail.AssetCount != len(detail.Assets) {
		anomaliesTotal.WithLabelValues("inconsistent_album").Inc()
		s.logger.Warn("Album asset count does not match its assets, skipping",
			zap.String("album_id", remoteID),
			zap.Int("asset_count", detail.AssetCount),
			zap.Int("assets", len(detail.Assets)),
			zap.Any("album", detail),
		)
		return nil, nil
	}
	return detail, nil
}

func (s *Service) syncRemoteAlbum(ctx context.Context, dto RemoteAlbum, album models.Album, keep map[string]struct{}, c *candidates) (bool, error) {
	changed, err := s.remoteAlbumChanged(ctx, dto, album)
	if err != nil || !changed {
		return false, err
	}
	detail, err := s.loadDetail(ctx, dto.ID)
	if err != nil || detail == nil {
		return false, err
	}

	incoming := sortUnique(slices.Clone(detail.Assets), models.OwnerChecksumKey)
	stored, err := s.store.AlbumAssets(ctx, album.ID)
	if err != nil {
		return false, err
	}
	sortByKey(stored, models.OwnerChecksumKey)
	d := DiffAssets(incoming, stored, models.OwnerChecksumKey, OriginUnspecified)

	storedUsers, err := s.store.AlbumSharedUserIDs(ctx, album.ID)
	if err != nil {
		return false, err
	}
	slices.Sort(storedUsers)
	var usersToLink, usersToUnlink []string
	reconcile.Diff(sharedUserIDs(*detail), storedUsers, identity, identity, nil,
		func(id string) { usersToLink = append(usersToLink, id) },
		func(id string) { usersToUnlink = append(usersToUnlink, id) },
	)

	upsert, existing, err := s.linkWithExisting(ctx, d.ToAdd)
	if err != nil {
		return false, err
	}
	updated := pointers(d.ToUpdate)

	a := album
	applyRemoteAlbum(&a, *detail)
	thumbnail, err := s.remoteThumbnail(ctx, detail.ThumbnailAssetID, upsert, existing, updated, pointers(stored))
	if err != nil {
		return false, err
	}

	cs := &store.Changeset{
		PutAssets:    append(updated, upsert...),
		UpdateAlbums: []*models.Album{&a},
		Thumbnails:   []store.Thumbnail{{Album: &a, Asset: thumbnail}},
	}
	if len(d.ToRemove) > 0 {
		cs.UnlinkAssets = []store.AssetLink{{Album: &a, Assets: pointers(d.ToRemove)}}
	}
	if len(usersToUnlink) > 0 {
		cs.UnlinkUsers = []store.UserLink{{Album: &a, UserIDs: usersToUnlink}}
	}
	if linked := append(upsert, existing...); len(linked) > 0 {
		cs.LinkAssets = []store.AssetLink{{Album: &a, Assets: linked}}
	}
	if len(usersToLink) > 0 {
		cs.LinkUsers = []store.UserLink{{Album: &a, UserIDs: usersToLink}}
	}
	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to update album %s: %w", dto.ID, err)
	}

	if a.Shared {
		addForeign(c, keep, d.ToRemove)
	}
	s.logger.Info("Remote album updated",
		zap.String("album_id", dto.ID),
		zap.Int("linked", len(upsert)+len(existing)),
		zap.Int("unlinked", len(d.ToRemove)),
		zap.Int("users_linked", len(usersToLink)),
		zap.Int("users_unlinked", len(usersToUnlink)),
	)
	return true, nil
}

func (s *Service) addRemoteAlbum(ctx context.Context, dto RemoteAlbum, keep map[string]struct{}, c *candidates) (bool, error) {
	// The album may be stored under the other scope, e.g. an owned album that became shared.
	if album, err := s.store.AlbumByRemoteID(ctx, dto.ID); err == nil {
		return s.syncRemoteAlbum(ctx, dto, *album, keep, c)
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	detail := &dto
	if len(dto.Assets) != dto.AssetCount {
		var err error
		if detail, err = s.loadDetail(ctx, dto.ID); err != nil || detail == nil {
			return false, err
		}
	}

	assets := sortUnique(slices.Clone(detail.Assets), models.OwnerChecksumKey)
	upsert, existing, err := s.linkWithExisting(ctx, assets)
	if err != nil {
		return false, err
	}

	album := &models.Album{}
	applyRemoteAlbum(album, *detail)
	thumbnail, err := s.remoteThumbnail(ctx, detail.ThumbnailAssetID, upsert, existing)
	if err != nil {
		return false, err
	}

	cs := &store.Changeset{
		PutAssets: upsert,
		NewAlbums: []*models.Album{album},
	}
	if linked := append(upsert, existing...); len(linked) > 0 {
		cs.LinkAssets = []store.AssetLink{{Album: album, Assets: linked}}
	}
	if users := sharedUserIDs(*detail); len(users) > 0 {
		cs.LinkUsers = []store.UserLink{{Album: album, UserIDs: users}}
	}
	if thumbnail != nil {
		cs.Thumbnails = []store.Thumbnail{{Album: album, Asset: thumbnail}}
	}
	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to add album %s: %w", dto.ID, err)
	}
	s.logger.Info("Remote album added", zap.String("album_id", dto.ID), zap.Int("assets", len(assets)))
	return true, nil
}

// removeRemoteAlbum drops an album the server no longer reports. Members of
// a shared album owned by nobody kept become deletion candidates.
func (s *Service) removeRemoteAlbum(ctx context.Context, album models.Album, keep map[string]struct{}, c *candidates) (bool, error) {
	members, err := s.store.AlbumAssets(ctx, album.ID)
	if err != nil {
		return false, err
	}
	if err := s.commit(ctx, &store.Changeset{DeleteAlbums: []int64{album.ID}}); err != nil {
		return false, fmt.Errorf("failed to remove album %d: %w", album.ID, err)
	}
	if album.Shared {
		addForeign(c, keep, members)
	}
	s.logger.Info("Remote album removed", zap.Int64("id", album.ID), zap.Int("members", len(members)))
	return true, nil
}
