package sync

import (
	"cmp"
	"context"
	"slices"

	"media-sync/core/reconcile"
	"media-sync/feature/library/models"

	"go.uber.org/zap"
)

// Origin names the source whose view is being applied. It decides what
// happens to stored assets the source no longer reports.
type Origin int

const (
	// OriginUnspecified removes every unreported asset.
	OriginUnspecified Origin = iota
	// OriginRemote demotes unreported assets that the device still holds.
	OriginRemote
	// OriginLocal demotes unreported assets that the server still holds.
	OriginLocal
)

func (o Origin) String() string {
	switch o {
	case OriginRemote:
		return "remote"
	case OriginLocal:
		return "local"
	default:
		return "unspecified"
	}
}

// DiffResult is the outcome of DiffAssets.
type DiffResult struct {
	// ToAdd holds incoming assets without a stored counterpart.
	ToAdd []models.Asset
	// ToUpdate holds merged or demoted copies of stored assets, keeping their ID.
	ToUpdate []models.Asset
	// ToRemove holds stored assets to delete.
	ToRemove []models.Asset
}

// Empty reports whether the diff found nothing to do.
func (d DiffResult) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToUpdate) == 0 && len(d.ToRemove) == 0
}

// DiffAssets compares the incoming view of a source against the stored assets.
// Both lists must be strictly ascending by key.
func DiffAssets[K cmp.Ordered](incoming, stored []models.Asset, key func(models.Asset) K, origin Origin) DiffResult {
	var d DiffResult
	switch {
	case len(incoming) == 0 && len(stored) == 0:
		return d
	case len(incoming) == 0 && origin == OriginUnspecified:
		d.ToRemove = slices.Clone(stored)
		return d
	case len(stored) == 0:
		d.ToAdd = slices.Clone(incoming)
		return d
	}

	reconcile.Diff(stored, incoming, key, key,
		func(s, in models.Asset) bool {
			if !s.CanUpdate(in) {
				return false
			}
			d.ToUpdate = append(d.ToUpdate, s.UpdatedCopy(in))
			return true
		},
		func(s models.Asset) {
			switch {
			case origin == OriginRemote && s.IsLocal():
				s.RemoteID = nil
				d.ToUpdate = append(d.ToUpdate, s)
			case origin == OriginLocal && s.IsRemote():
				s.LocalID = nil
				d.ToUpdate = append(d.ToUpdate, s)
			default:
				d.ToRemove = append(d.ToRemove, s)
			}
		},
		func(in models.Asset) {
			d.ToAdd = append(d.ToAdd, in)
		},
	)
	return d
}

// sortUnique sorts assets by key and drops later entries with an equal key.
func sortUnique[K cmp.Ordered](assets []models.Asset, key func(models.Asset) K) []models.Asset {
	slices.SortStableFunc(assets, func(a, b models.Asset) int {
		return cmp.Compare(key(a), key(b))
	})
	return reconcile.Unique(assets, key, nil)
}

// removeDuplicates collapses sightings of the same owner and checksum,
// keeping the one with the earliest timestamps. The result is ascending by
// owner and checksum.
func (s *Service) removeDuplicates(assets []models.Asset) []models.Asset {
	slices.SortFunc(assets, models.CompareOwnerChecksumCreatedModified)
	before := len(assets)
	assets = reconcile.Unique(assets, models.OwnerChecksumKey, func(kept, dropped models.Asset) {
		s.logger.Debug("Discarding duplicate asset",
			zap.Stringer("kept", kept),
			zap.Stringer("dropped", dropped),
		)
	})
	if n := before - len(assets); n > 0 {
		duplicatesTotal.Add(float64(n))
		s.logger.Warn("Duplicate assets found", zap.Int("count", n))
	}
	return assets
}

// linkWithExisting resolves incoming assets against stored rows of the same
// identity. Assets to write come back in upsert; rows that need no write come
// back in existing. Both keep the input order.
func (s *Service) linkWithExisting(ctx context.Context, assets []models.Asset) (upsert, existing []*models.Asset, err error) {
	if len(assets) == 0 {
		return nil, nil, nil
	}
	stored, err := s.store.AssetsByIdentity(ctx, assets)
	if err != nil {
		return nil, nil, err
	}
	for _, in := range assets {
		row, ok := stored[models.OwnerChecksumKey(in)]
		switch {
		case !ok:
			a := in
			a.ID = 0
			upsert = append(upsert, &a)
		case row.CanUpdate(in):
			a := row.UpdatedCopy(in)
			upsert = append(upsert, &a)
		default:
			a := row
			existing = append(existing, &a)
		}
	}
	return upsert, existing, nil
}

func pointers(assets []models.Asset) []*models.Asset {
	out := make([]*models.Asset, len(assets))
	for i := range assets {
		out[i] = &assets[i]
	}
	return out
}

func assetIDs(assets []models.Asset) []int64 {
	out := make([]int64, len(assets))
	for i, a := range assets {
		out[i] = a.ID
	}
	return out
}

func sortByKey[T any, K cmp.Ordered](items []T, key func(T) K) {
	slices.SortFunc(items, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}
