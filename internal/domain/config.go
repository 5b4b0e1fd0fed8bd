package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	YTDLP        YTDLPConfig        `mapstructure:"ytdlp"`
	Progress     ProgressConfig     `mapstructure:"progress"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	Dir                string `mapstructure:"dir"`
	ConcurrentLimit    int    `mapstructure:"concurrent_limit"` // 0 means unbounded
	RejectDuplicateIDs bool   `mapstructure:"reject_duplicate_ids"`
}

// YTDLPConfig contains settings for the yt-dlp extraction backend
type YTDLPConfig struct {
	Binary         string   `mapstructure:"binary"`
	CookieFile     string   `mapstructure:"cookie_file"`
	OutputTemplate string   `mapstructure:"output_template"`
	ExtraArgs      []string `mapstructure:"extra_args"`
}

// ProgressConfig controls the lifecycle of progress snapshots
type ProgressConfig struct {
	Retention     time.Duration `mapstructure:"retention"` // 0 keeps terminal snapshots forever
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 5000,
		},
		Download: DownloadConfig{
			Dir:                "downloads",
			ConcurrentLimit:    0,
			RejectDuplicateIDs: false,
		},
		YTDLP: YTDLPConfig{
			Binary:         "yt-dlp",
			OutputTemplate: "%(title)s.%(ext)s",
		},
		Progress: ProgressConfig{
			Retention:     0,
			SweepInterval: time.Minute,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
