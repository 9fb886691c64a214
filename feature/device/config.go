package device

// Config holds configuration for the device media library.
type Config struct {
	// Root is the directory holding one sub directory per album.
	Root string `mapstructure:"root" default:"./media"`
}
