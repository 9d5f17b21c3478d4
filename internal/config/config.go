package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		WordPress
		ImageHost
		Bookstore
		Database
		MediaCache
		Runs
		Refresh
		Tasks
		Auth
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	WordPress struct {
		SiteURL     string // Base site URL, e.g. "https://blog.example.com"
		Username    string
		AppPassword string // WordPress Application Password (leave empty for anonymous access)
		PerPage     int    // Default page size for post listings
		MaxPages    int    // Safety cap when fetching "all" posts
		Timeout     time.Duration
	}
	ImageHost struct {
		BaseURL string
		Token   string // Empty disables cover uploads entirely
		Timeout time.Duration
	}
	Bookstore struct {
		BaseURL string
		AppID   string
		RESTKey string
		Timeout time.Duration
	}
	Database struct {
		Path string
	}
	MediaCache struct {
		Dir string
	}
	Runs struct {
		RetentionDays int // Days to keep completed import runs (default: 90)
	}
	Refresh struct {
		Enabled  bool
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
		PageSize int    // Posts pulled per scheduled refresh
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		Token string // Static operator token; empty disables API auth
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8176)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	// WordPress source defaults
	v.SetDefault("wordpress_site_url", "")
	v.SetDefault("wordpress_username", "")
	v.SetDefault("wordpress_app_password", "")
	v.SetDefault("wordpress_per_page", 20)
	v.SetDefault("wordpress_max_pages", 20)
	v.SetDefault("wordpress_timeout", "30s")

	// Image host defaults
	v.SetDefault("image_host_url", "https://sm.ms/api/v2")
	v.SetDefault("image_host_token", "")
	v.SetDefault("image_host_timeout", "2m")

	// Bookstore (target document database) defaults
	v.SetDefault("bookstore_url", "")
	v.SetDefault("bookstore_app_id", "")
	v.SetDefault("bookstore_rest_key", "")
	v.SetDefault("bookstore_timeout", "30s")

	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("media_cache_dir", DefaultMediaCacheDir)
	v.SetDefault("runs_retention_days", 90)

	// Scheduled refresh defaults
	v.SetDefault("refresh_enabled", false)
	v.SetDefault("refresh_schedule", "*/30 * * * *") // Every 30 minutes
	v.SetDefault("refresh_page_size", 20)

	// Auth defaults
	v.SetDefault("auth_token", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "30m")
	v.SetDefault("task_release_after", "45m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		WordPress: WordPress{
			SiteURL:     v.GetString("WORDPRESS_SITE_URL"),
			Username:    v.GetString("WORDPRESS_USERNAME"),
			AppPassword: v.GetString("WORDPRESS_APP_PASSWORD"),
			PerPage:     v.GetInt("WORDPRESS_PER_PAGE"),
			MaxPages:    v.GetInt("WORDPRESS_MAX_PAGES"),
			Timeout:     v.GetDuration("WORDPRESS_TIMEOUT"),
		},
		ImageHost: ImageHost{
			BaseURL: v.GetString("IMAGE_HOST_URL"),
			Token:   v.GetString("IMAGE_HOST_TOKEN"),
			Timeout: v.GetDuration("IMAGE_HOST_TIMEOUT"),
		},
		Bookstore: Bookstore{
			BaseURL: v.GetString("BOOKSTORE_URL"),
			AppID:   v.GetString("BOOKSTORE_APP_ID"),
			RESTKey: v.GetString("BOOKSTORE_REST_KEY"),
			Timeout: v.GetDuration("BOOKSTORE_TIMEOUT"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		MediaCache: MediaCache{
			Dir: v.GetString("MEDIA_CACHE_DIR"),
		},
		Runs: Runs{
			RetentionDays: v.GetInt("RUNS_RETENTION_DAYS"),
		},
		Refresh: Refresh{
			Enabled:  v.GetBool("REFRESH_ENABLED"),
			Schedule: v.GetString("REFRESH_SCHEDULE"),
			PageSize: v.GetInt("REFRESH_PAGE_SIZE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			Token: v.GetString("AUTH_TOKEN"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
