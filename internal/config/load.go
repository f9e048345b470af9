package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "GROWTH"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "text")
	v.SetDefault("server.origin_patterns", []string{})
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("storage.path", "growth.db")
	v.SetDefault("sync.filename", "growth-data.json")
	v.SetDefault("sync.timeout", "30s")
	v.SetDefault("sync.interval", "0s")
	v.SetDefault("app.secret", "baby-growth-record-secret")
}

// Load reads configuration. Environment variables override the config file,
// which overrides the defaults. file may be empty, in which case a
// growthrec.yaml in the working directory is used if present.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("growthrec")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
