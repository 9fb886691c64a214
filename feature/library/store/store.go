package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"media-sync/core/database"
	"media-sync/feature/library/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned by point lookups that match no row.
var ErrNotFound = errors.New("not found")

// lookupBatchSize bounds the number of bind variables of an IN clause.
const lookupBatchSize = 500

// AlbumScope selects which albums keep their assets alive during cleanup.
type AlbumScope int

const (
	// ScopeShared covers server albums shared with the user.
	ScopeShared AlbumScope = iota
	// ScopeLocal covers device albums.
	ScopeLocal
)

var requiredColumns = map[string][]string{
	"users":              {"id", "updated_at", "is_partner_shared_by", "is_partner_shared_with", "in_timeline"},
	"assets":             {"id", "owner_id", "checksum", "local_id", "remote_id", "updated_at", "is_trashed"},
	"albums":             {"id", "local_id", "remote_id", "owner_id", "name", "modified_at", "shared", "thumbnail_id"},
	"album_assets":       {"album_id", "asset_id"},
	"album_shared_users": {"album_id", "user_id"},
	"etags":              {"id", "time", "asset_count"},
}

// Store is the gorm backed library snapshot.
type Store struct {
	db *gorm.DB
}

// New wraps an open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SchemaReport returns the required columns each library table lacks. Tables
// with every column present are omitted.
func (s *Store) SchemaReport(ctx context.Context) (map[string][]string, error) {
	db := s.db.WithContext(ctx)
	report := make(map[string][]string)
	for _, table := range sortedKeys(requiredColumns) {
		missing, err := database.MissingColumns(db, table, requiredColumns[table])
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			report[table] = missing
		}
	}
	return report, nil
}

// OriginlessAssets counts assets that neither the device nor the server backs.
func (s *Store) OriginlessAssets(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Asset{}).
		Where("local_id IS NULL AND remote_id IS NULL").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count originless assets: %w", err)
	}
	return n, nil
}

// Migrate creates or updates the library tables and verifies their columns.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&models.User{},
		&models.Asset{},
		&models.Album{},
		&models.AlbumAsset{},
		&models.AlbumSharedUser{},
		&models.ETag{},
	); err != nil {
		return fmt.Errorf("failed to migrate library tables: %w", err)
	}

	missing, err := s.SchemaReport(ctx)
	if err != nil {
		return err
	}
	if tables := sortedKeys(missing); len(tables) > 0 {
		return fmt.Errorf("table %s is missing columns %v", tables[0], missing[tables[0]])
	}
	return nil
}

// UserByID returns a single user.
func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := first(s.db.WithContext(ctx).Where("id = ?", id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Users returns every stored user.
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

// PartnerIDs returns the ids of users that share their library with the current user.
func (s *Store) PartnerIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("is_partner_shared_with = ?", true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load partners: %w", err)
	}
	return ids, nil
}

// ETag returns the watermark stored under id.
func (s *Store) ETag(ctx context.Context, id string) (*models.ETag, error) {
	var etag models.ETag
	if err := first(s.db.WithContext(ctx).Where("id = ?", id), &etag); err != nil {
		return nil, err
	}
	return &etag, nil
}

// ETagIDs returns the keys of all stored watermarks.
func (s *Store) ETagIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.ETag{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load etags: %w", err)
	}
	return ids, nil
}

// AlbumByRemoteID returns the album linked to a server album.
func (s *Store) AlbumByRemoteID(ctx context.Context, remoteID string) (*models.Album, error) {
	var album models.Album
	if err := first(s.db.WithContext(ctx).Where("remote_id = ?", remoteID), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// AlbumByLocalID returns the album linked to a device album.
func (s *Store) AlbumByLocalID(ctx context.Context, localID string) (*models.Album, error) {
	var album models.Album
	if err := first(s.db.WithContext(ctx).Where("local_id = ?", localID), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// RemoteAlbums returns the stored server albums, either those shared with the
// user or those owned by ownerID.
func (s *Store) RemoteAlbums(ctx context.Context, shared bool, ownerID string) ([]models.Album, error) {
	q := s.db.WithContext(ctx).Where("remote_id IS NOT NULL")
	if shared {
		q = q.Where("shared = ?", true)
	} else {
		q = q.Where("owner_id = ?", ownerID)
	}
	var albums []models.Album
	if err := q.Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("failed to load remote albums: %w", err)
	}
	return albums, nil
}

// LocalAlbums returns the stored device albums.
func (s *Store) LocalAlbums(ctx context.Context) ([]models.Album, error) {
	var albums []models.Album
	if err := s.db.WithContext(ctx).Where("local_id IS NOT NULL").Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("failed to load local albums: %w", err)
	}
	return albums, nil
}

// AssetByID returns a single asset by primary key.
func (s *Store) AssetByID(ctx context.Context, id int64) (*models.Asset, error) {
	var asset models.Asset
	if err := first(s.db.WithContext(ctx).Where("id = ?", id), &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// AssetByRemoteID returns the asset linked to a server asset.
func (s *Store) AssetByRemoteID(ctx context.Context, remoteID string) (*models.Asset, error) {
	var asset models.Asset
	if err := first(s.db.WithContext(ctx).Where("remote_id = ?", remoteID), &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// AssetByIdentity returns the asset with the given owner and checksum.
func (s *Store) AssetByIdentity(ctx context.Context, ownerID, checksum string) (*models.Asset, error) {
	var asset models.Asset
	q := s.db.WithContext(ctx).Where("owner_id = ? AND checksum = ?", ownerID, checksum)
	if err := first(q, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// AssetsByIdentity looks up the stored rows for the identities of assets.
// The result is keyed by models.OwnerChecksumKey; identities without a row are absent.
func (s *Store) AssetsByIdentity(ctx context.Context, assets []models.Asset) (map[string]models.Asset, error) {
	byOwner := make(map[string][]string)
	for _, a := range assets {
		byOwner[a.OwnerID] = append(byOwner[a.OwnerID], a.Checksum)
	}

	found := make(map[string]models.Asset, len(assets))
	for owner, checksums := range byOwner {
		for _, chunk := range chunks(checksums, lookupBatchSize) {
			var rows []models.Asset
			err := s.db.WithContext(ctx).
				Where("owner_id = ? AND checksum IN ?", owner, chunk).
				Find(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("failed to look up assets of %s: %w", owner, err)
			}
			for _, row := range rows {
				found[models.OwnerChecksumKey(row)] = row
			}
		}
	}
	return found, nil
}

// AssetsByRemoteIDs returns the assets linked to any of the server ids.
func (s *Store) AssetsByRemoteIDs(ctx context.Context, remoteIDs []string) ([]models.Asset, error) {
	var out []models.Asset
	for _, chunk := range chunks(remoteIDs, lookupBatchSize) {
		var rows []models.Asset
		if err := s.db.WithContext(ctx).Where("remote_id IN ?", chunk).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to look up assets by remote id: %w", err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// AssetsByIDs returns the assets with the given primary keys.
func (s *Store) AssetsByIDs(ctx context.Context, ids []int64) ([]models.Asset, error) {
	var out []models.Asset
	for _, chunk := range chunks(ids, lookupBatchSize) {
		var rows []models.Asset
		if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to look up assets by id: %w", err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// RemoteAssetsByOwner returns the server backed assets of a user.
func (s *Store) RemoteAssetsByOwner(ctx context.Context, ownerID string) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND remote_id IS NOT NULL", ownerID).
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load assets of %s: %w", ownerID, err)
	}
	return assets, nil
}

// AssetsWithLocalID returns every device backed asset.
func (s *Store) AssetsWithLocalID(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset
	if err := s.db.WithContext(ctx).Where("local_id IS NOT NULL").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to load local assets: %w", err)
	}
	return assets, nil
}

// AlbumAssets returns the members of an album.
func (s *Store) AlbumAssets(ctx context.Context, albumID int64) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.db.WithContext(ctx).
		Joins("JOIN album_assets ON album_assets.asset_id = assets.id").
		Where("album_assets.album_id = ?", albumID).
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load assets of album %d: %w", albumID, err)
	}
	return assets, nil
}

// AlbumSharedUserIDs returns the ids of the users an album is shared with.
func (s *Store) AlbumSharedUserIDs(ctx context.Context, albumID int64) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.AlbumSharedUser{}).
		Where("album_id = ?", albumID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shared users of album %d: %w", albumID, err)
	}
	return ids, nil
}

// AlbumCounts returns the number of member assets and shared users of an album.
func (s *Store) AlbumCounts(ctx context.Context, albumID int64) (assets, users int, err error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.AlbumAsset{}).Where("album_id = ?", albumID).Count(&n).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count assets of album %d: %w", albumID, err)
	}
	assets = int(n)
	if err := s.db.WithContext(ctx).Model(&models.AlbumSharedUser{}).Where("album_id = ?", albumID).Count(&n).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count users of album %d: %w", albumID, err)
	}
	return assets, int(n), nil
}

// LinkedAssetIDs returns the ids of assets that are members of any album in scope.
func (s *Store) LinkedAssetIDs(ctx context.Context, scope AlbumScope) ([]int64, error) {
	q := s.db.WithContext(ctx).Model(&models.AlbumAsset{}).
		Joins("JOIN albums ON albums.id = album_assets.album_id")
	switch scope {
	case ScopeShared:
		q = q.Where("albums.remote_id IS NOT NULL AND albums.shared = ?", true)
	case ScopeLocal:
		q = q.Where("albums.local_id IS NOT NULL")
	default:
		return nil, fmt.Errorf("unknown album scope %d", scope)
	}
	var ids []int64
	if err := q.Distinct().Pluck("album_assets.asset_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load linked assets: %w", err)
	}
	return ids, nil
}

func first(q *gorm.DB, dest any) error {
	err := q.Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
