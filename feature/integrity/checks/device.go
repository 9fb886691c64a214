package checks

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DeviceReport describes the device media root.
type DeviceReport struct {
	Root   string `json:"root"`
	Exists bool   `json:"exists"`
	Albums int    `json:"albums"`
}

// CheckDevice inspects the device media root.
func CheckDevice(fs afero.Fs, root string) (*DeviceReport, error) {
	report := &DeviceReport{Root: root}
	info, err := fs.Stat(root)
	if os.IsNotExist(err) {
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("device root %s is not a directory", root)
	}
	report.Exists = true

	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			report.Albums++
		}
	}
	return report, nil
}

// FixDevice creates the device media root.
func FixDevice(fs afero.Fs, root string, logger *zap.Logger) error {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		logger.Error("Failed to create device root", zap.String("root", root), zap.Error(err))
		return err
	}
	logger.Info("Created device root", zap.String("root", root))
	return nil
}
