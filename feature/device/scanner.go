package device

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"media-sync/feature/library/models"
	"media-sync/feature/sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Scanner enumerates and hashes the device media library.
type Scanner struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger
}

var _ sync.DeviceSource = (*Scanner)(nil)

// NewScanner creates a scanner over the library at cfg.Root on fs.
func NewScanner(fs afero.Fs, cfg Config, logger *zap.Logger) *Scanner {
	return &Scanner{fs: fs, root: cfg.Root, logger: logger}
}

// Timestamps are kept at whole seconds so they survive a round trip through
// the store unchanged.
func modTime(info os.FileInfo) time.Time {
	return info.ModTime().UTC().Truncate(time.Second)
}

func visible(info os.FileInfo) bool {
	return !strings.HasPrefix(info.Name(), ".")
}

// files returns the regular files of an album directory.
func (s *Scanner) files(localID string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(s.fs, path.Join(s.root, localID))
	if err != nil {
		return nil, fmt.Errorf("failed to list album %s: %w", localID, err)
	}
	files := entries[:0]
	for _, e := range entries {
		if e.Mode().IsRegular() && visible(e) {
			files = append(files, e)
		}
	}
	return files, nil
}

// Albums returns one album per top level directory. Its modification time is
// the latest of the directory and its files.
func (s *Scanner) Albums(ctx context.Context) ([]models.Album, error) {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list media root: %w", err)
	}
	var albums []models.Album
	for _, e := range entries {
		if !e.IsDir() || !visible(e) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := s.files(e.Name())
		if err != nil {
			return nil, err
		}
		modified := modTime(e)
		for _, f := range files {
			if t := modTime(f); t.After(modified) {
				modified = t
			}
		}
		id := e.Name()
		albums = append(albums, models.Album{
			LocalID:    &id,
			Name:       id,
			CreatedAt:  modified,
			ModifiedAt: modified,
		})
	}
	return albums, nil
}

// HashedAssets hashes the files of album that pass opts.
func (s *Scanner) HashedAssets(ctx context.Context, album models.Album, opts sync.HashOptions) ([]models.Asset, error) {
	if album.LocalID == nil {
		return nil, fmt.Errorf("album %d has no local id", album.ID)
	}
	localID := *album.LocalID
	files, err := s.files(localID)
	if err != nil {
		return nil, err
	}

	assets := []models.Asset{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := localID + "/" + f.Name()
		if _, ok := opts.Excluded[id]; ok {
			continue
		}
		modified := modTime(f)
		if opts.ModifiedFrom != nil && modified.Before(*opts.ModifiedFrom) {
			continue
		}
		if opts.ModifiedUntil != nil && modified.After(*opts.ModifiedUntil) {
			continue
		}
		checksum, err := s.checksum(path.Join(s.root, id))
		if err != nil {
			return nil, err
		}
		assets = append(assets, models.Asset{
			Checksum:   checksum,
			LocalID:    &id,
			FileName:   f.Name(),
			Type:       assetType(f.Name()),
			CreatedAt:  modified,
			ModifiedAt: modified,
			UpdatedAt:  modified,
		})
	}
	s.logger.Debug("Hashed device album",
		zap.String("local_id", localID),
		zap.Int("files", len(files)),
		zap.Int("hashed", len(assets)),
	)
	return assets, nil
}

// AssetCount returns the number of files in an album, excluded ones included.
func (s *Scanner) AssetCount(ctx context.Context, localAlbumID string) (int, error) {
	files, err := s.files(localAlbumID)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

func (s *Scanner) checksum(name string) (string, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", name, err)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func assetType(name string) models.AssetType {
	mimeType := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.AssetTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return models.AssetTypeVideo
	default:
		return models.AssetTypeOther
	}
}
