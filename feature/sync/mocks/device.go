package mocks

import (
	"context"
	"slices"

	"media-sync/feature/library/models"
	"media-sync/feature/sync"

	"github.com/stretchr/testify/mock"
)

// DeviceSource is a mock implementation of sync.DeviceSource
type DeviceSource struct {
	mock.Mock
}

func (m *DeviceSource) Albums(ctx context.Context) ([]models.Album, error) {
	args := m.Called(ctx)
	if a, ok := args.Get(0).([]models.Album); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DeviceSource) HashedAssets(ctx context.Context, album models.Album, opts sync.HashOptions) ([]models.Asset, error) {
	args := m.Called(ctx, album, opts)
	if a, ok := args.Get(0).([]models.Asset); ok {
		return slices.Clone(a), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DeviceSource) AssetCount(ctx context.Context, localAlbumID string) (int, error) {
	args := m.Called(ctx, localAlbumID)
	return args.Int(0), args.Error(1)
}
