package sync

import (
	"context"
	"fmt"
)

// RefreshUsers fetches the server's users and syncs them.
func (s *Service) RefreshUsers(ctx context.Context) (bool, error) {
	users, err := s.remote.RefreshUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if users == nil {
		return false, fmt.Errorf("%w: no users", ErrUpstreamUnavailable)
	}
	return s.SyncUsers(ctx, users), nil
}

// RefreshRemoteAlbums fetches the server's album list of the given scope and syncs it.
func (s *Service) RefreshRemoteAlbums(ctx context.Context, shared bool) (bool, error) {
	albums, err := s.remote.ListAlbums(ctx, shared)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return s.SyncRemoteAlbums(ctx, albums, shared), nil
}

// RefreshLocalAlbums enumerates the device albums and syncs them.
func (s *Service) RefreshLocalAlbums(ctx context.Context, excluded map[string]struct{}) (bool, error) {
	albums, err := s.device.Albums(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return s.SyncLocalAlbums(ctx, albums, excluded), nil
}
