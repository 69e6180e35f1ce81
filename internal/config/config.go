// Package config loads the service configuration from environment
// variables with sensible defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the runtime settings of the service.
type Config struct {
	Host        string
	Port        int
	DownloadDir string
	LogLevel    string
	YtdlpPath   string
}

// Load reads configuration from the environment (HOST, PORT, DOWNLOAD_DIR,
// LOG_LEVEL, YTDLP_PATH), falling back to the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("download_dir", "/app/downloads")
	v.SetDefault("log_level", "info")
	v.SetDefault("ytdlp_path", "yt-dlp")
	v.AutomaticEnv()

	cfg := &Config{
		Host:        v.GetString("host"),
		Port:        v.GetInt("port"),
		DownloadDir: v.GetString("download_dir"),
		LogLevel:    v.GetString("log_level"),
		YtdlpPath:   v.GetString("ytdlp_path"),
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}
	return cfg, nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
