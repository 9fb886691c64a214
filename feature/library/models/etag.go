package models

import "time"

const deviceAlbumETagPrefix = "device-album:"

// ETag is a per user or per device album watermark.
type ETag struct {
	ID         string     `gorm:"column:id;primaryKey;size:255"`
	Time       *time.Time `gorm:"column:time"`
	AssetCount *int       `gorm:"column:asset_count"`
}

// TableName overrides the table name.
func (ETag) TableName() string {
	return "etags"
}

// DeviceAlbumETagID returns the watermark key holding the asset count of a device album.
func DeviceAlbumETagID(localID string) string {
	return deviceAlbumETagPrefix + localID
}
