package cmd

import (
	"context"
	"fmt"

	"media-sync/core/config"
	"media-sync/core/database"
	"media-sync/core/logger"
	"media-sync/core/storage"
	"media-sync/feature/device"
	"media-sync/feature/library/store"
	"media-sync/feature/remote"
	"media-sync/feature/sync"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// runtime holds the wired dependencies shared by the commands.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	client  storage.Client
	fs      afero.Fs
	service *sync.Service
}

// bootstrap loads the configuration and wires the sync service with its
// store, the server export and the device library.
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	st := store.New(db)
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	if err := storage.CheckBucket(ctx, client, cfg.Storage.Bucket); err != nil {
		// Passes report the server as unavailable until the bucket is reachable.
		logg.Warn("Server export not reachable", zap.Error(err))
	}

	fs := afero.NewOsFs()
	src := remote.NewSource(client, cfg.Storage.Bucket, cfg.Sync.UserID, cfg.Remote, logg.Named("remote"))
	scanner := device.NewScanner(fs, cfg.Device, logg.Named("device"))
	svc := sync.NewService(st, src, scanner, clockwork.NewRealClock(), logg.Named("sync"), cfg.Sync)

	logg.Info("Library ready",
		zap.String("driver", cfg.Database.Driver),
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("device_root", cfg.Device.Root),
	)
	return &runtime{
		cfg:     cfg,
		logger:  logg,
		store:   st,
		client:  client,
		fs:      fs,
		service: svc,
	}, nil
}
