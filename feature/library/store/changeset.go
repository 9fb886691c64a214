package store

import (
	"context"
	"fmt"

	"media-sync/feature/library/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const writeBatchSize = 200

// Commit steps, in the order Commit applies them.
const (
	StepUnlink       = "unlink"
	StepDelete       = "delete"
	StepUpsert       = "upsert"
	StepInsertAlbums = "insert_albums"
	StepLink         = "link"
	StepUpdateAlbums = "update_albums"
	StepETags        = "etags"
)

// AssetLink names album members by reference. Asset ids are read when the
// link is written, so assets created earlier in the same Commit can be linked.
type AssetLink struct {
	Album  *models.Album
	Assets []*models.Asset
}

// UserLink names the users an album is shared with.
type UserLink struct {
	Album   *models.Album
	UserIDs []string
}

// Thumbnail sets the cover of an album. A nil Asset clears it.
type Thumbnail struct {
	Album *models.Album
	Asset *models.Asset
}

// Changeset collects every write of one reconciliation step.
type Changeset struct {
	UnlinkAssets []AssetLink
	UnlinkUsers  []UserLink

	DeleteAssets []int64
	DeleteAlbums []int64
	DeleteUsers  []string
	DeleteETags  []string

	PutUsers []models.User
	// PutAssets are inserted when their ID is zero and fully overwritten otherwise.
	// Inserted assets receive their new ID.
	PutAssets []*models.Asset
	// Vanished is filled by Commit with the PutAssets whose row no longer
	// exists. They are neither written nor linked.
	Vanished []*models.Asset

	// NewAlbums are inserted and receive their new ID.
	NewAlbums []*models.Album

	LinkAssets []AssetLink
	LinkUsers  []UserLink

	UpdateAlbums []*models.Album
	Thumbnails   []Thumbnail

	PutETags []models.ETag
}

// Empty reports whether the changeset has nothing to write.
func (c *Changeset) Empty() bool {
	return len(c.UnlinkAssets) == 0 && len(c.UnlinkUsers) == 0 &&
		len(c.DeleteAssets) == 0 && len(c.DeleteAlbums) == 0 &&
		len(c.DeleteUsers) == 0 && len(c.DeleteETags) == 0 &&
		len(c.PutUsers) == 0 && len(c.PutAssets) == 0 &&
		len(c.NewAlbums) == 0 && len(c.LinkAssets) == 0 && len(c.LinkUsers) == 0 &&
		len(c.UpdateAlbums) == 0 && len(c.Thumbnails) == 0 && len(c.PutETags) == 0
}

// CommitError reports the step at which a Commit was rolled back.
type CommitError struct {
	Step string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed at %s: %v", e.Step, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Commit applies cs in one transaction. Either every write is applied or none is.
//
// Writes are ordered so that unlinks and deletes run before anything is
// re-linked, and membership is written before the album rows that reference it.
func (s *Store) Commit(ctx context.Context, cs *Changeset) error {
	if cs == nil || cs.Empty() {
		return nil
	}
	steps := []struct {
		name string
		fn   func(tx *gorm.DB, cs *Changeset) error
	}{
		{StepUnlink, unlink},
		{StepDelete, deleteRows},
		{StepUpsert, upsert},
		{StepInsertAlbums, insertAlbums},
		{StepLink, link},
		{StepUpdateAlbums, updateAlbums},
		{StepETags, putETags},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, step := range steps {
			if err := step.fn(tx, cs); err != nil {
				return &CommitError{Step: step.name, Err: err}
			}
		}
		return nil
	})
}

func unlink(tx *gorm.DB, cs *Changeset) error {
	for _, l := range cs.UnlinkAssets {
		ids := assetIDs(l.Assets)
		for _, chunk := range chunks(ids, lookupBatchSize) {
			err := tx.Where("album_id = ? AND asset_id IN ?", l.Album.ID, chunk).
				Delete(&models.AlbumAsset{}).Error
			if err != nil {
				return fmt.Errorf("failed to unlink assets from album %d: %w", l.Album.ID, err)
			}
		}
	}
	for _, l := range cs.UnlinkUsers {
		if len(l.UserIDs) == 0 {
			continue
		}
		err := tx.Where("album_id = ? AND user_id IN ?", l.Album.ID, l.UserIDs).
			Delete(&models.AlbumSharedUser{}).Error
		if err != nil {
			return fmt.Errorf("failed to unlink users from album %d: %w", l.Album.ID, err)
		}
	}
	return nil
}

func deleteRows(tx *gorm.DB, cs *Changeset) error {
	for _, chunk := range chunks(cs.DeleteAssets, lookupBatchSize) {
		if err := tx.Where("asset_id IN ?", chunk).Delete(&models.AlbumAsset{}).Error; err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		err := tx.Model(&models.Album{}).Where("thumbnail_id IN ?", chunk).
			Update("thumbnail_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to clear thumbnails: %w", err)
		}
		if err := tx.Where("id IN ?", chunk).Delete(&models.Asset{}).Error; err != nil {
			return fmt.Errorf("failed to delete assets: %w", err)
		}
	}
	for _, chunk := range chunks(cs.DeleteAlbums, lookupBatchSize) {
		if err := tx.Where("album_id IN ?", chunk).Delete(&models.AlbumAsset{}).Error; err != nil {
			return fmt.Errorf("failed to delete album memberships: %w", err)
		}
		if err := tx.Where("album_id IN ?", chunk).Delete(&models.AlbumSharedUser{}).Error; err != nil {
			return fmt.Errorf("failed to delete album users: %w", err)
		}
		if err := tx.Where("id IN ?", chunk).Delete(&models.Album{}).Error; err != nil {
			return fmt.Errorf("failed to delete albums: %w", err)
		}
	}
	if len(cs.DeleteUsers) > 0 {
		if err := tx.Where("user_id IN ?", cs.DeleteUsers).Delete(&models.AlbumSharedUser{}).Error; err != nil {
			return fmt.Errorf("failed to delete user shares: %w", err)
		}
		if err := tx.Where("id IN ?", cs.DeleteUsers).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("failed to delete users: %w", err)
		}
	}
	if len(cs.DeleteETags) > 0 {
		if err := tx.Where("id IN ?", cs.DeleteETags).Delete(&models.ETag{}).Error; err != nil {
			return fmt.Errorf("failed to delete etags: %w", err)
		}
	}
	return nil
}

func upsert(tx *gorm.DB, cs *Changeset) error {
	if len(cs.PutUsers) > 0 {
		err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
			CreateInBatches(&cs.PutUsers, writeBatchSize).Error
		if err != nil {
			return fmt.Errorf("failed to upsert users: %w", err)
		}
	}

	var created, updated []*models.Asset
	for _, a := range cs.PutAssets {
		if a.ID == 0 {
			created = append(created, a)
		} else {
			updated = append(updated, a)
		}
	}
	present, err := existingAssetIDs(tx, updated)
	if err != nil {
		return err
	}
	cs.Vanished = nil
	for _, a := range updated {
		if _, ok := present[a.ID]; !ok {
			cs.Vanished = append(cs.Vanished, a)
			continue
		}
		err := tx.Model(&models.Asset{}).Where("id = ?", a.ID).
			Select("*").Omit("id").Updates(a).Error
		if err != nil {
			return fmt.Errorf("failed to update asset %d: %w", a.ID, err)
		}
	}
	for _, chunk := range chunks(created, writeBatchSize) {
		rows := make([]models.Asset, len(chunk))
		for i, a := range chunk {
			rows[i] = *a
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert assets: %w", err)
		}
		for i := range rows {
			chunk[i].ID = rows[i].ID
		}
	}
	return nil
}

func existingAssetIDs(tx *gorm.DB, assets []*models.Asset) (map[int64]struct{}, error) {
	present := make(map[int64]struct{}, len(assets))
	for _, chunk := range chunks(assetIDs(assets), lookupBatchSize) {
		var ids []int64
		if err := tx.Model(&models.Asset{}).Where("id IN ?", chunk).Pluck("id", &ids).Error; err != nil {
			return nil, fmt.Errorf("failed to look up assets: %w", err)
		}
		for _, id := range ids {
			present[id] = struct{}{}
		}
	}
	return present, nil
}

func vanishedIDs(cs *Changeset) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(cs.Vanished))
	for _, a := range cs.Vanished {
		ids[a.ID] = struct{}{}
	}
	return ids
}

func insertAlbums(tx *gorm.DB, cs *Changeset) error {
	for _, album := range cs.NewAlbums {
		if err := tx.Create(album).Error; err != nil {
			return fmt.Errorf("failed to insert album %q: %w", album.Name, err)
		}
	}
	return nil
}

func link(tx *gorm.DB, cs *Changeset) error {
	vanished := vanishedIDs(cs)
	for _, l := range cs.LinkAssets {
		rows := make([]models.AlbumAsset, 0, len(l.Assets))
		for _, a := range l.Assets {
			if _, ok := vanished[a.ID]; ok {
				continue
			}
			rows = append(rows, models.AlbumAsset{AlbumID: l.Album.ID, AssetID: a.ID})
		}
		if len(rows) == 0 {
			continue
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&rows, writeBatchSize).Error
		if err != nil {
			return fmt.Errorf("failed to link assets to album %d: %w", l.Album.ID, err)
		}
	}
	for _, l := range cs.LinkUsers {
		rows := make([]models.AlbumSharedUser, 0, len(l.UserIDs))
		for _, id := range l.UserIDs {
			rows = append(rows, models.AlbumSharedUser{AlbumID: l.Album.ID, UserID: id})
		}
		if len(rows) == 0 {
			continue
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&rows, writeBatchSize).Error
		if err != nil {
			return fmt.Errorf("failed to link users to album %d: %w", l.Album.ID, err)
		}
	}
	return nil
}

func updateAlbums(tx *gorm.DB, cs *Changeset) error {
	for _, album := range cs.UpdateAlbums {
		if err := tx.Save(album).Error; err != nil {
			return fmt.Errorf("failed to update album %d: %w", album.ID, err)
		}
	}
	vanished := vanishedIDs(cs)
	for _, t := range cs.Thumbnails {
		var id *int64
		if t.Asset != nil {
			if _, ok := vanished[t.Asset.ID]; ok {
				continue
			}
			id = &t.Asset.ID
		}
		t.Album.ThumbnailID = id
		err := tx.Model(&models.Album{}).Where("id = ?", t.Album.ID).
			Update("thumbnail_id", id).Error
		if err != nil {
			return fmt.Errorf("failed to set thumbnail of album %d: %w", t.Album.ID, err)
		}
	}
	return nil
}

func putETags(tx *gorm.DB, cs *Changeset) error {
	if len(cs.PutETags) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&cs.PutETags).Error
	if err != nil {
		return fmt.Errorf("failed to put etags: %w", err)
	}
	return nil
}

func assetIDs(assets []*models.Asset) []int64 {
	ids := make([]int64, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	return ids
}
