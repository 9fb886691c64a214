package mocks

import (
	"context"
	"slices"
	"time"

	"media-sync/feature/library/models"
	"media-sync/feature/sync"

	"github.com/stretchr/testify/mock"
)

// RemoteSource is a mock implementation of sync.RemoteSource
type RemoteSource struct {
	mock.Mock
}

func (m *RemoteSource) ChangedAssets(ctx context.Context, userIDs []string, since time.Time) (*sync.AssetDelta, error) {
	args := m.Called(ctx, userIDs, since)
	if d, ok := args.Get(0).(*sync.AssetDelta); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RemoteSource) LoadAssets(ctx context.Context, user models.User, until time.Time) ([]models.Asset, error) {
	args := m.Called(ctx, user, until)
	if a, ok := args.Get(0).([]models.Asset); ok {
		return slices.Clone(a), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RemoteSource) RefreshUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if u, ok := args.Get(0).([]models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RemoteSource) ListAlbums(ctx context.Context, shared bool) ([]sync.RemoteAlbum, error) {
	args := m.Called(ctx, shared)
	if a, ok := args.Get(0).([]sync.RemoteAlbum); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RemoteSource) AlbumDetail(ctx context.Context, remoteID string) (*sync.RemoteAlbum, error) {
	args := m.Called(ctx, remoteID)
	if a, ok := args.Get(0).(*sync.RemoteAlbum); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
