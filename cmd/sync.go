package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"media-sync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync commands
	sharedAlbums bool
	excludedIDs  []string
)

// syncCmd is the parent command for one-shot sync passes.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run sync passes once and exit",
	Long: `Run one reconciliation pass against the configured library and exit.

Examples:
  # Refresh the user list
  sync users

  # Sync server assets, incrementally when possible
  sync assets

  # Sync albums shared with the user
  sync albums --shared

  # Sync device albums, ignoring some files
  sync local --exclude Camera/IMG_0001.jpg

  # Run every pass in order
  sync all`,
}

type syncPass func(ctx context.Context, svc *sync.Service) (bool, error)

func passCommand(use, short string, pass syncPass) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			changed, err := pass(ctx, rt.service)
			if err != nil {
				return err
			}
			rt.logger.Info("Sync finished", zap.String("pass", use), zap.Bool("changed", changed))
			return nil
		},
	}
}

func excludedSet() map[string]struct{} {
	if len(excludedIDs) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		set[id] = struct{}{}
	}
	return set
}

func syncAll(ctx context.Context, svc *sync.Service) (bool, error) {
	var changed bool
	var errs []error
	record := func(ok bool, err error) {
		changed = changed || ok
		if err != nil {
			errs = append(errs, err)
		}
	}
	record(svc.RefreshUsers(ctx))
	record(svc.SyncRemoteAssets(ctx), nil)
	record(svc.RefreshRemoteAlbums(ctx, false))
	record(svc.RefreshRemoteAlbums(ctx, true))
	record(svc.RefreshLocalAlbums(ctx, excludedSet()))
	return changed, errors.Join(errs...)
}

func init() {
	albumsCmd := passCommand("albums", "Sync server albums", func(ctx context.Context, svc *sync.Service) (bool, error) {
		return svc.RefreshRemoteAlbums(ctx, sharedAlbums)
	})
	albumsCmd.Flags().BoolVar(&sharedAlbums, "shared", false, "Sync albums shared with the user instead of owned ones")

	localCmd := passCommand("local", "Sync device albums", func(ctx context.Context, svc *sync.Service) (bool, error) {
		return svc.RefreshLocalAlbums(ctx, excludedSet())
	})
	localCmd.Flags().StringSliceVar(&excludedIDs, "exclude", nil, "Device asset ids (album/file) to ignore")

	allCmd := passCommand("all", "Run every sync pass", syncAll)
	allCmd.Flags().StringSliceVar(&excludedIDs, "exclude", nil, "Device asset ids (album/file) to ignore")

	syncCmd.AddCommand(
		passCommand("users", "Sync users", func(ctx context.Context, svc *sync.Service) (bool, error) {
			return svc.RefreshUsers(ctx)
		}),
		passCommand("assets", "Sync server assets", func(ctx context.Context, svc *sync.Service) (bool, error) {
			return svc.SyncRemoteAssets(ctx), nil
		}),
		albumsCmd,
		localCmd,
		passCommand("wipe", "Forget everything the device contributed", func(ctx context.Context, svc *sync.Service) (bool, error) {
			return svc.WipeLocal(ctx), nil
		}),
		allCmd,
	)
	RootCmd.AddCommand(syncCmd)
}
