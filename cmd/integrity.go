package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"media-sync/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the integrity commands
	fixFlag    bool
	jsonOutput bool
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check integrity of the library, the server export and the device folder",
	Long: `Check that everything the sync passes depend on is in place.

Examples:
  # Run every check
  integrity

  # Create the device root when it is missing
  integrity device --fix

  # Print the schema report as JSON
  integrity schema --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd.Context(), true, true, true, true)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Check that the server export documents are present",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd.Context(), true, false, false, false)
	},
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Check the device library folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd.Context(), false, true, false, false)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the library database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd.Context(), false, false, true, false)
	},
}

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Check the library contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd.Context(), false, false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(exportCmd, deviceCmd, schemaCmd, libraryCmd)

	deviceCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the device root when missing")
	integrityCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
}

func runIntegrity(ctx context.Context, runExport, runDevice, runSchema, runLibrary bool) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	cfg := rt.cfg
	logg := rt.logger
	svc := integrity.NewService(
		rt.client, cfg.Storage.Bucket, cfg.Remote.Prefix, rt.fs, cfg.Device.Root, rt.store, logg.Named("integrity"),
	)

	report := make(map[string]any)

	if runExport {
		logg.Info("Checking server export...")
		missing, err := svc.CheckExport(ctx)
		if err != nil {
			return fmt.Errorf("export check failed: %w", err)
		}
		if len(missing) == 0 {
			logg.Info("Export documents are present.")
		} else {
			logg.Warn("Missing export documents", zap.Strings("missing", missing))
		}
		report["export"] = missing
	}

	if runDevice {
		logg.Info("Checking device folder...", zap.String("root", cfg.Device.Root))
		dev, err := svc.CheckDevice()
		if err != nil {
			return fmt.Errorf("device check failed: %w", err)
		}
		if !dev.Exists && fixFlag {
			if err := svc.FixDevice(); err != nil {
				return fmt.Errorf("failed to fix device folder: %w", err)
			}
			logg.Info("Device folder created.")
			if dev, err = svc.CheckDevice(); err != nil {
				return fmt.Errorf("device check failed: %w", err)
			}
		} else if !dev.Exists {
			logg.Warn("Device folder is missing. Run with --fix to create it.")
		}
		logg.Info("Device folder", zap.Bool("exists", dev.Exists), zap.Int("albums", dev.Albums))
		report["device"] = dev
	}

	if runSchema {
		logg.Info("Checking library schema...", zap.String("driver", cfg.Database.Driver))
		schema, err := svc.CheckSchema(ctx)
		if err != nil {
			return fmt.Errorf("schema check failed: %w", err)
		}
		if len(schema) == 0 {
			logg.Info("Library schema is complete.")
		}
		for table, columns := range schema {
			logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", columns))
		}
		report["schema"] = schema
	}

	if runLibrary {
		logg.Info("Checking library contents...")
		lib, err := svc.CheckLibrary(ctx)
		if err != nil {
			return fmt.Errorf("library check failed: %w", err)
		}
		if lib.OriginlessAssets > 0 {
			logg.Warn("Assets without origin found", zap.Int64("count", lib.OriginlessAssets))
		} else {
			logg.Info("Every asset has an origin.")
		}
		report["library"] = lib
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	}
	return nil
}
