package remote

// Config holds configuration for the server export.
type Config struct {
	// Prefix is the object prefix the export is written under.
	Prefix string `mapstructure:"prefix" default:"export"`
}
