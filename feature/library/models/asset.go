package models

import (
	"cmp"
	"fmt"
	"time"

	"media-sync/core/utils"
)

// AssetType is the media kind of an asset.
type AssetType string

const (
	AssetTypeImage AssetType = "image"
	AssetTypeVideo AssetType = "video"
	AssetTypeOther AssetType = "other"
)

// Asset is a media item of the library.
type Asset struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	OwnerID          string     `gorm:"column:owner_id;size:64;uniqueIndex:idx_assets_owner_checksum,priority:1" json:"ownerId"`
	Checksum         string     `gorm:"column:checksum;size:64;uniqueIndex:idx_assets_owner_checksum,priority:2" json:"checksum"`
	LocalID          *string    `gorm:"column:local_id;size:255;index" json:"-"`
	RemoteID         *string    `gorm:"column:remote_id;size:64;index" json:"id"`
	FileName         string     `gorm:"column:file_name" json:"originalFileName"`
	Type             AssetType  `gorm:"column:type;size:16" json:"type"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime:false" json:"fileCreatedAt"`
	ModifiedAt       time.Time  `gorm:"column:modified_at" json:"fileModifiedAt"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt"`
	Width            *int32     `gorm:"column:width" json:"width,omitempty"`
	Height           *int32     `gorm:"column:height" json:"height,omitempty"`
	Latitude         *float64   `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude        *float64   `gorm:"column:longitude" json:"longitude,omitempty"`
	LivePhotoVideoID *string    `gorm:"column:live_photo_video_id;size:64" json:"livePhotoVideoId,omitempty"`
	StackID          *string    `gorm:"column:stack_id;size:64" json:"stackId,omitempty"`
	IsFavorite       bool       `gorm:"column:is_favorite" json:"isFavorite"`
	IsArchived       bool       `gorm:"column:is_archived" json:"isArchived"`
	IsTrashed        bool       `gorm:"column:is_trashed" json:"isTrashed"`
}

// TableName overrides the table name.
func (Asset) TableName() string {
	return "assets"
}

// IsLocal reports whether the device knows the asset.
func (a Asset) IsLocal() bool {
	return a.LocalID != nil
}

// IsRemote reports whether the server knows the asset.
func (a Asset) IsRemote() bool {
	return a.RemoteID != nil
}

// IsStored reports whether the asset has a row in the local store.
func (a Asset) IsStored() bool {
	return a.ID != 0
}

// String renders the identifying fields for log dumps.
func (a Asset) String() string {
	return fmt.Sprintf("Asset{id: %d, owner: %s, checksum: %s, localId: %s, remoteId: %s, file: %s, created: %s, modified: %s}",
		a.ID, a.OwnerID, a.Checksum, utils.Deref(a.LocalID), utils.Deref(a.RemoteID), a.FileName,
		a.CreatedAt.Format(time.RFC3339), a.ModifiedAt.Format(time.RFC3339))
}

// ChecksumKey orders assets of a single owner.
func ChecksumKey(a Asset) string {
	return a.Checksum
}

// OwnerChecksumKey orders assets by their cross-source identity.
func OwnerChecksumKey(a Asset) string {
	return a.OwnerID + "\x00" + a.Checksum
}

// IDKey orders stored assets by primary key.
func IDKey(a Asset) int64 {
	return a.ID
}

// CompareOwnerChecksumCreatedModified is the full ordering used before
// collapsing duplicate device sightings, so that the earliest sighting of an
// identity comes first.
func CompareOwnerChecksumCreatedModified(a, b Asset) int {
	if c := cmp.Compare(a.OwnerID, b.OwnerID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Checksum, b.Checksum); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return a.ModifiedAt.Compare(b.ModifiedAt)
}

// CanUpdate reports whether the stored asset a is stale compared to the
// incoming sighting in of the same identity.
//
// A device sighting can only contribute its local id and values the row is
// missing. A server sighting is authoritative for content, so any newer
// metadata or a changed flag counts.
func (a Asset) CanUpdate(in Asset) bool {
	if in.IsLocal() && !a.IsLocal() {
		return true
	}
	if a.Width == nil && in.Width != nil ||
		a.Height == nil && in.Height != nil ||
		a.LivePhotoVideoID == nil && in.LivePhotoVideoID != nil {
		return true
	}
	if !in.IsRemote() {
		return false
	}
	return !utils.PtrEqual(a.RemoteID, in.RemoteID) ||
		in.UpdatedAt.After(a.UpdatedAt) ||
		a.IsFavorite != in.IsFavorite ||
		a.IsArchived != in.IsArchived ||
		a.IsTrashed != in.IsTrashed ||
		in.HasLocation() && (!utils.PtrEqual(a.Latitude, in.Latitude) || !utils.PtrEqual(a.Longitude, in.Longitude)) ||
		!utils.PtrEqual(a.StackID, in.StackID)
}

// HasLocation reports whether the asset carries exif coordinates.
func (a Asset) HasLocation() bool {
	return a.Latitude != nil || a.Longitude != nil
}

// UpdatedCopy merges the incoming sighting in onto the stored asset a.
//
// The row's primary key is always kept. A server sighting replaces the content
// but keeps the local id; a device sighting only fills what the row is missing.
func (a Asset) UpdatedCopy(in Asset) Asset {
	if in.IsRemote() {
		out := in
		out.ID = a.ID
		out.LocalID = utils.Coalesce(in.LocalID, a.LocalID)
		out.Width = utils.Coalesce(in.Width, a.Width)
		out.Height = utils.Coalesce(in.Height, a.Height)
		if !in.HasLocation() {
			out.Latitude, out.Longitude = a.Latitude, a.Longitude
		}
		return out
	}

	out := a
	out.LocalID = utils.Coalesce(a.LocalID, in.LocalID)
	out.Width = utils.Coalesce(a.Width, in.Width)
	out.Height = utils.Coalesce(a.Height, in.Height)
	out.LivePhotoVideoID = utils.Coalesce(a.LivePhotoVideoID, in.LivePhotoVideoID)
	if !a.IsRemote() {
		// Local only rows take the device's view of the file.
		out.FileName = in.FileName
		out.ModifiedAt = in.ModifiedAt
	}
	return out
}
