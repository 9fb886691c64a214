package sync

import (
	"context"
	"fmt"
	"slices"

	"media-sync/core/reconcile"
	"media-sync/feature/library/models"
	"media-sync/feature/library/store"

	"go.uber.org/zap"
)

func userKey(u models.User) string { return u.ID }

// SyncUsers applies the server's user list to the snapshot.
func (s *Service) SyncUsers(ctx context.Context, users []models.User) bool {
	return s.exclusive(ctx, PassUsers, func(ctx context.Context) (bool, error) {
		return s.syncUsers(ctx, users)
	})
}

func (s *Service) syncUsers(ctx context.Context, users []models.User) (bool, error) {
	incoming := slices.Clone(users)
	sortByKey(incoming, userKey)
	incoming = reconcile.Unique(incoming, userKey, nil)

	stored, err := s.store.Users(ctx)
	if err != nil {
		return false, err
	}
	sortByKey(stored, userKey)

	cs := &store.Changeset{}
	changed := reconcile.Diff(incoming, stored, userKey, userKey,
		func(in, db models.User) bool {
			if in.SameAs(db) {
				return false
			}
			cs.PutUsers = append(cs.PutUsers, in)
			return true
		},
		func(in models.User) { cs.PutUsers = append(cs.PutUsers, in) },
		func(db models.User) {
			cs.DeleteUsers = append(cs.DeleteUsers, db.ID)
			cs.DeleteETags = append(cs.DeleteETags, db.ID)
		},
	)
	if !changed {
		return false, nil
	}

	if err := s.commit(ctx, cs); err != nil {
		return false, fmt.Errorf("failed to store users: %w", err)
	}
	s.logger.Info("Users synced",
		zap.Int("upserted", len(cs.PutUsers)),
		zap.Int("deleted", len(cs.DeleteUsers)),
	)
	return true, nil
}
