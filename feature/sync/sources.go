package sync

import (
	"context"
	"time"

	"media-sync/feature/library/models"
)

// AssetDelta is the set of server side changes since a watermark.
type AssetDelta struct {
	Upserted []models.Asset `json:"upserted"`
	Deleted  []string       `json:"deleted"`
}

// RemoteAlbum is a server album. List responses may omit Assets and SharedUsers.
type RemoteAlbum struct {
	ID                         string         `json:"id"`
	OwnerID                    string         `json:"ownerId"`
	Name                       string         `json:"albumName"`
	CreatedAt                  time.Time      `json:"createdAt"`
	UpdatedAt                  time.Time      `json:"updatedAt"`
	StartDate                  *time.Time     `json:"startDate,omitempty"`
	EndDate                    *time.Time     `json:"endDate,omitempty"`
	LastModifiedAssetTimestamp *time.Time     `json:"lastModifiedAssetTimestamp,omitempty"`
	Shared                     bool           `json:"shared"`
	ActivityEnabled            bool           `json:"isActivityEnabled"`
	ThumbnailAssetID           *string        `json:"albumThumbnailAssetId,omitempty"`
	AssetCount                 int            `json:"assetCount"`
	Assets                     []models.Asset `json:"assets,omitempty"`
	SharedUsers                []models.User  `json:"sharedUsers,omitempty"`
}

// RemoteSource is the server side of the library.
type RemoteSource interface {
	// ChangedAssets returns the changes of the users' assets since the given
	// time. A nil delta means the server cannot serve one and a full sync is needed.
	ChangedAssets(ctx context.Context, userIDs []string, since time.Time) (*AssetDelta, error)
	// LoadAssets returns every asset of user as of until.
	LoadAssets(ctx context.Context, user models.User, until time.Time) ([]models.Asset, error)
	// RefreshUsers returns every user known to the server.
	RefreshUsers(ctx context.Context) ([]models.User, error)
	// ListAlbums returns the album summaries shared with the user, or owned by it.
	ListAlbums(ctx context.Context, shared bool) ([]RemoteAlbum, error)
	// AlbumDetail returns an album with its complete asset and user lists.
	AlbumDetail(ctx context.Context, remoteID string) (*RemoteAlbum, error)
}

// HashOptions narrows a device album scan.
type HashOptions struct {
	// Excluded holds device asset ids to leave out.
	Excluded map[string]struct{}
	// ModifiedFrom and ModifiedUntil bound the file modification time, inclusive.
	ModifiedFrom  *time.Time
	ModifiedUntil *time.Time
}

// DeviceSource is the device media store.
type DeviceSource interface {
	// Albums returns the device albums with LocalID, Name and ModifiedAt set.
	Albums(ctx context.Context) ([]models.Album, error)
	// HashedAssets returns the assets of album with LocalID and Checksum set.
	HashedAssets(ctx context.Context, album models.Album, opts HashOptions) ([]models.Asset, error)
	// AssetCount returns the number of assets the device reports for an album.
	AssetCount(ctx context.Context, localAlbumID string) (int, error)
}
