package models

import "time"

// Album is a device album, a server album, or both once linked.
type Album struct {
	ID                         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	LocalID                    *string    `gorm:"column:local_id;uniqueIndex;size:255"`
	RemoteID                   *string    `gorm:"column:remote_id;uniqueIndex;size:64"`
	OwnerID                    *string    `gorm:"column:owner_id;index;size:64"`
	Name                       string     `gorm:"column:name"`
	CreatedAt                  time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	ModifiedAt                 time.Time  `gorm:"column:modified_at"`
	StartDate                  *time.Time `gorm:"column:start_date"`
	EndDate                    *time.Time `gorm:"column:end_date"`
	LastModifiedAssetTimestamp *time.Time `gorm:"column:last_modified_asset_timestamp"`
	Shared                     bool       `gorm:"column:shared;index"`
	ActivityEnabled            bool       `gorm:"column:activity_enabled"`
	ThumbnailID                *int64     `gorm:"column:thumbnail_id"`
}

// TableName overrides the table name.
func (Album) TableName() string {
	return "albums"
}

// IsLocal reports whether the device knows the album.
func (a Album) IsLocal() bool {
	return a.LocalID != nil
}

// IsRemote reports whether the server knows the album.
func (a Album) IsRemote() bool {
	return a.RemoteID != nil
}

// AlbumAsset links an asset into an album.
type AlbumAsset struct {
	AlbumID int64 `gorm:"column:album_id;primaryKey;autoIncrement:false"`
	AssetID int64 `gorm:"column:asset_id;primaryKey;autoIncrement:false;index"`
}

// TableName overrides the table name.
func (AlbumAsset) TableName() string {
	return "album_assets"
}

// AlbumSharedUser links a user an album is shared with.
type AlbumSharedUser struct {
	AlbumID int64  `gorm:"column:album_id;primaryKey;autoIncrement:false"`
	UserID  string `gorm:"column:user_id;primaryKey;size:64;index"`
}

// TableName overrides the table name.
func (AlbumSharedUser) TableName() string {
	return "album_shared_users"
}
