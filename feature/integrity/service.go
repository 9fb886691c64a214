package integrity

import (
	"context"

	"media-sync/core/storage"
	"media-sync/feature/integrity/checks"
	"media-sync/feature/library/store"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// LibraryReport describes the snapshot invariants.
type LibraryReport struct {
	// OriginlessAssets counts assets neither the device nor the server backs.
	OriginlessAssets int64 `json:"originless_assets"`
}

// Service handles integrity checks.
type Service struct {
	client     storage.Client
	bucket     string
	prefix     string
	fs         afero.Fs
	deviceRoot string
	store      *store.Store
	logger     *zap.Logger
}

// NewService creates a new integrity service.
func NewService(client storage.Client, bucket, exportPrefix string, fs afero.Fs, deviceRoot string, st *store.Store, logger *zap.Logger) *Service {
	return &Service{
		client:     client,
		bucket:     bucket,
		prefix:     exportPrefix,
		fs:         fs,
		deviceRoot: deviceRoot,
		store:      st,
		logger:     logger,
	}
}

// CheckExport returns the missing server export documents.
func (s *Service) CheckExport(ctx context.Context) ([]string, error) {
	return checks.CheckExport(ctx, s.client, s.bucket, s.prefix)
}

// CheckDevice inspects the device media root.
func (s *Service) CheckDevice() (*checks.DeviceReport, error) {
	return checks.CheckDevice(s.fs, s.deviceRoot)
}

// FixDevice creates the device media root.
func (s *Service) FixDevice() error {
	return checks.FixDevice(s.fs, s.deviceRoot, s.logger)
}

// CheckSchema returns the missing columns per library table.
func (s *Service) CheckSchema(ctx context.Context) (map[string][]string, error) {
	return s.store.SchemaReport(ctx)
}

// CheckLibrary verifies the snapshot invariants.
func (s *Service) CheckLibrary(ctx context.Context) (*LibraryReport, error) {
	n, err := s.store.OriginlessAssets(ctx)
	if err != nil {
		return nil, err
	}
	return &LibraryReport{OriginlessAssets: n}, nil
}
