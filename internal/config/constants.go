package config

// Default paths for local state
const (
	// DefaultDatabasePath is the default path for the import ledger database
	DefaultDatabasePath = "./bookpress.db"

	// DefaultMediaCacheDir is the default staging directory for featured images
	DefaultMediaCacheDir = "./media-cache"
)
