package sync

// Config holds the sync configuration.
type Config struct {
	// UserID is the server id of the user this device belongs to.
	UserID string `mapstructure:"user_id" default:""`
}
