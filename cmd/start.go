package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"media-sync/core/loader"
	"media-sync/core/logger"
	"media-sync/core/metrics"
	"media-sync/core/middleware/auth"
	"media-sync/core/middleware/rayid"
	"media-sync/feature/integrity"
	"media-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server",
	Long:  `Starts the HTTP server exposing the sync passes and the metrics endpoint.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := bootstrap(context.Background())
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		cfg, logg := rt.cfg, rt.logger
		defer logg.Sync()

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager(logg)
		mgr.Register(sync.NewFeature(rt.service))
		mgr.Register(integrity.NewFeature(integrity.NewService(
			rt.client, cfg.Storage.Bucket, cfg.Remote.Prefix, rt.fs, cfg.Device.Root, rt.store, logg.Named("integrity"),
		)))

		// RayID first so every log line can be traced.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Metrics stay public for the scraper.
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		loaded, err := mgr.LoadAll(app)
		if err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		if len(loaded) == 0 {
			logg.Warn("No feature loaded, is SYNC_USER_ID set?")
		}

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
