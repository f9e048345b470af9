// Package config loads runtime configuration from defaults, an optional
// config file and GROWTH_-prefixed environment variables.
package config

import "time"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Sync    SyncConfig    `mapstructure:"sync"`
	App     AppConfig     `mapstructure:"app"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`
	// OriginPatterns are the browser origins allowed to open the websocket.
	OriginPatterns []string `mapstructure:"origin_patterns"`
	// RateLimit caps import, export and sync requests per client per minute.
	RateLimit int `mapstructure:"rate_limit" validate:"gt=0"`
	// TrustProxy keys the rate limit on X-Real-IP / X-Forwarded-For. Enable it
	// only behind a reverse proxy that sets those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type StorageConfig struct {
	// Path is the SQLite database file. Empty keeps data in memory only.
	Path string `mapstructure:"path"`
}

type SyncConfig struct {
	Filename string        `mapstructure:"filename" validate:"required,excludesall=/\\"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// Interval is how often the auto-sync loop runs. Zero disables it.
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

type AppConfig struct {
	// Secret is mixed into every key derivation. Changing it makes earlier
	// encrypted files unreadable.
	Secret string `mapstructure:"secret" validate:"required"`
}
