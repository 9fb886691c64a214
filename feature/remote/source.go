package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"media-sync/core/storage"
	"media-sync/feature/library/models"
	"media-sync/feature/sync"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an export document does not exist.
var ErrNotFound = errors.New("export document not found")

// ChangeLog is the server's asset change log. Changes before Oldest have
// been compacted away.
type ChangeLog struct {
	Oldest   time.Time      `json:"oldest"`
	Upserted []models.Asset `json:"upserted"`
	Deleted  []Deletion     `json:"deleted"`
}

// Deletion is a change log entry for a removed asset.
type Deletion struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	DeletedAt time.Time `json:"deletedAt"`
}

// Source reads the library export of one user.
type Source struct {
	client storage.Client
	bucket string
	prefix string
	userID string
	logger *zap.Logger
}

var _ sync.RemoteSource = (*Source)(nil)

// NewSource creates a source over the export in bucket.
func NewSource(client storage.Client, bucket, userID string, cfg Config, logger *zap.Logger) *Source {
	return &Source{
		client: client,
		bucket: bucket,
		prefix: cfg.Prefix,
		userID: userID,
		logger: logger,
	}
}

func (s *Source) object(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

// load decodes the JSON document at name into v.
func (s *Source) load(ctx context.Context, name string, v any) error {
	reader, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return wrapObjectError(name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return wrapObjectError(name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func wrapObjectError(name string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return fmt.Errorf("failed to get %s: %w", name, err)
}

// ChangedAssets returns the changes of the given users after since. It
// returns a nil delta when the change log no longer reaches back to since.
func (s *Source) ChangedAssets(ctx context.Context, userIDs []string, since time.Time) (*sync.AssetDelta, error) {
	var log ChangeLog
	if err := s.load(ctx, s.object("changes.json"), &log); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("No change log, full sync required")
			return nil, nil
		}
		return nil, err
	}
	if since.Before(log.Oldest) {
		s.logger.Debug("Change log does not reach back far enough",
			zap.Time("since", since),
			zap.Time("oldest", log.Oldest),
		)
		return nil, nil
	}

	owners := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		owners[id] = struct{}{}
	}
	delta := &sync.AssetDelta{Upserted: []models.Asset{}}
	for _, a := range log.Upserted {
		if _, ok := owners[a.OwnerID]; ok && a.UpdatedAt.After(since) {
			delta.Upserted = append(delta.Upserted, a)
		}
	}
	for _, d := range log.Deleted {
		if _, ok := owners[d.OwnerID]; ok && d.DeletedAt.After(since) {
			delta.Deleted = append(delta.Deleted, d.ID)
		}
	}
	return delta, nil
}

// LoadAssets returns the assets of user last updated no later than until.
func (s *Source) LoadAssets(ctx context.Context, user models.User, until time.Time) ([]models.Asset, error) {
	var all []models.Asset
	if err := s.load(ctx, s.object("assets", user.ID+".json"), &all); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.Asset{}, nil
		}
		return nil, err
	}
	assets := make([]models.Asset, 0, len(all))
	for _, a := range all {
		if a.UpdatedAt.After(until) {
			continue
		}
		a.OwnerID = user.ID
		assets = append(assets, a)
	}
	return assets, nil
}

// RefreshUsers returns every user of the export.
func (s *Source) RefreshUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.load(ctx, s.object("users.json"), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListAlbums returns the album summaries shared with the user, or owned by it.
func (s *Source) ListAlbums(ctx context.Context, shared bool) ([]sync.RemoteAlbum, error) {
	var index []sync.RemoteAlbum
	if err := s.load(ctx, s.object("albums", "index.json"), &index); err != nil {
		return nil, err
	}
	albums := make([]sync.RemoteAlbum, 0, len(index))
	for _, a := range index {
		if (shared && a.Shared) || (!shared && a.OwnerID == s.userID) {
			albums = append(albums, a)
		}
	}
	return albums, nil
}

// AlbumDetail returns an album with its assets and shared users.
func (s *Source) AlbumDetail(ctx context.Context, remoteID string) (*sync.RemoteAlbum, error) {
	var album sync.RemoteAlbum
	if err := s.load(ctx, s.object("albums", remoteID+".json"), &album); err != nil {
		return nil, err
	}
	return &album, nil
}
