package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"media-sync/core/utils"
	"media-sync/feature/library/models"
	"media-sync/feature/library/store"

	"go.uber.org/zap"
)

// SyncRemoteAssets brings the server assets of the user and its partners up
// to date. It applies a delta since the user's watermark when the server can
// serve one and falls back to a full comparison otherwise.
func (s *Service) SyncRemoteAssets(ctx context.Context) bool {
	return s.exclusive(ctx, PassRemoteAssets, func(ctx context.Context) (bool, error) {
		changed, applied, err := s.syncRemoteAssetChanges(ctx)
		if err != nil {
			return false, err
		}
		if applied {
			return changed, nil
		}
		return s.syncRemoteAssetsFull(ctx)
	})
}

// visibleUserIDs returns the user and every partner sharing with it, ascending.
func (s *Service) visibleUserIDs(ctx context.Context) ([]string, error) {
	partners, err := s.store.PartnerIDs(ctx)
	if err != nil {
		return nil, err
	}
	ids := append([]string{s.userID}, partners...)
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// syncRemoteAssetChanges applies the server's change feed. applied is false
// when no delta could be used and a full sync is required.
func (s *Service) syncRemoteAssetChanges(ctx context.Context) (changed, applied bool, err error) {
	etag, err := s.store.ETag(ctx, s.userID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && etag.Time == nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	userIDs, err := s.visibleUserIDs(ctx)
	if err != nil {
		return false, false, err
	}

	// Captured before the request so that changes landing meanwhile are seen again.
	now := s.clock.Now().UTC()
	delta, err := s.remote.ChangedAssets(ctx, userIDs, *etag.Time)
	if err != nil {
		s.logger.Warn("Change feed failed, falling back to full sync", zap.Error(err))
		delta = nil
	}
	if delta == nil {
		if err := s.commit(ctx, &store.Changeset{DeleteETags: userIDs}); err != nil {
			return false, false, fmt.Errorf("failed to clear asset watermarks: %w", err)
		}
		return false, false, nil
	}

	upserted := sortUnique(slices.Clone(delta.Upserted), models.OwnerChecksumKey)
	upsert, existing, err := s.linkWithExisting(ctx, upserted)
	if err != nil {
		return false, true, err
	}
	// A row the delta both deletes and upserts was re-uploaded; the upsert wins.
	kept := make(map[int64]struct{}, len(upsert)+len(existing))
	for _, a := range append(slices.Clone(upsert), existing...) {
		if a.ID != 0 {
			kept[a.ID] = struct{}{}
		}
	}
	cs := &store.Changeset{}
	if err := s.stageRemoteDeletions(ctx, delta.Deleted, kept, cs); err != nil {
		return false, true, err
	}
	cs.PutAssets = append(cs.PutAssets, upsert...)
	cs.PutETags = []models.ETag{{ID: s.userID, Time: utils.Ptr(now)}}

	if err := s.commit(ctx, cs); err != nil {
		return false, true, fmt.Errorf("failed to apply asset changes: %w", err)
	}
	s.logger.Info("Applied asset changes",
		zap.Int("upserted", len(upsert)),
		zap.Int("deleted", len(delta.Deleted)),
	)
	return len(cs.PutAssets) > 0 || len(cs.DeleteAssets) > 0, true, nil
}

// stageRemoteDeletions drops the server ids from the snapshot. Rows the device
// still holds are demoted to local only, the rest are deleted. Rows in kept
// are left alone.
func (s *Service) stageRemoteDeletions(ctx context.Context, remoteIDs []string, kept map[int64]struct{}, cs *store.Changeset) error {
	if len(remoteIDs) == 0 {
		return nil
	}
	assets, err := s.store.AssetsByRemoteIDs(ctx, remoteIDs)
	if err != nil {
		return err
	}
	for _, a := range assets {
		if _, ok := kept[a.ID]; ok {
			continue
		}
		if !a.IsLocal() {
			cs.DeleteAssets = append(cs.DeleteAssets, a.ID)
			continue
		}
		demoted := a
		demoted.RemoteID = nil
		demoted.IsTrashed = false
		cs.PutAssets = append(cs.PutAssets, &demoted)
	}
	return nil
}

// syncRemoteAssetsFull refreshes the users and compares the complete asset
// list of every visible user.
func (s *Service) syncRemoteAssetsFull(ctx context.Context) (bool, error) {
	users, err := s.remote.RefreshUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if users == nil {
		return false, fmt.Errorf("%w: no users", ErrUpstreamUnavailable)
	}

	changed, err := s.syncUsers(ctx, users)
	if err != nil {
		return false, err
	}

	sortByKey(users, userKey)
	for _, u := range users {
		if u.ID != s.userID && !u.IsPartnerSharedWith {
			continue
		}
		userChanged, err := s.syncUserAssetsFull(ctx, u)
		if err != nil {
			s.logger.Error("Full asset sync failed", zap.String("owner_id", u.ID), zap.Error(err))
			continue
		}
		changed = changed || userChanged
	}
	return changed, nil
}

func (s *Service) syncUserAssetsFull(ctx context.Context, user models.User) (bool, error) {
	now := s.clock.Now().UTC()
	loaded, err := s.remote.LoadAssets(ctx, user, now)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if loaded == nil {
		return false, fmt.Errorf("%w: no assets for %s", ErrUpstreamUnavailable, user.ID)
	}
	for i := range loaded {
		loaded[i].OwnerID = user.ID
	}
	remote := sortUnique(loaded, models.ChecksumKey)

	stored, err := s.store.RemoteAssetsByOwner(ctx, user.ID)
	if err != nil {
		return false, err
	}
	sortByKey(stored, models.ChecksumKey)

	d := DiffAssets(remote, stored, models.ChecksumKey, OriginRemote)
	cs := &store.Changeset{
		PutETags: []models.ETag{{ID: user.ID, Time: utils.Ptr(now)}},
	}
	if !d.Empty() {
		upsert, _, err := s.linkWithExisting(ctx, d.ToAdd)
		if err != nil {
			return false, err
		}
		cs.DeleteAssets = assetIDs(d.ToRemove)
		cs.PutAssets = append(pointers(d.ToUpdate), upsert...)
	}

	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to store assets of %s: %w", user.ID, err)
	}
	if d.Empty() {
		return false, nil
	}
	s.logger.Info("Remote assets synced",
		zap.String("owner_id", user.ID),
		zap.Int("added", len(d.ToAdd)),
		zap.Int("updated", len(d.ToUpdate)),
		zap.Int("removed", len(d.ToRemove)),
	)
	return true, nil
}
