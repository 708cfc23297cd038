// Package config loads the lms settings from .env, .lms/config.json and
// LMS_-prefixed environment variables, in increasing order of precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

const envPrefix = "LMS"

// Config represents the lms configuration
type Config struct {
	// Root is the canonical root under which every canonical collection lives.
	Root  string      `mapstructure:"root" json:"root"`
	Store StoreConfig `mapstructure:"store" json:"store"`
	Log   LogConfig   `mapstructure:"log" json:"log"`
	// LegacyPaths optionally replaces the built-in legacy path table.
	LegacyPaths string      `mapstructure:"legacy_paths" json:"legacy_paths,omitempty"`
	Actor       ActorConfig `mapstructure:"actor" json:"actor"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver" json:"driver"`
	Path        string `mapstructure:"path" json:"path,omitempty"`
	RedisAddr   string `mapstructure:"redis_addr" json:"redis_addr,omitempty"`
	RedisPrefix string `mapstructure:"redis_prefix" json:"redis_prefix,omitempty"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode" json:"mode"` // "dev" or "prod"
}

// ActorConfig is the identity used for attribution when the caller supplies none.
type ActorConfig struct {
	UserID string `mapstructure:"user_id" json:"user_id,omitempty"`
	Email  string `mapstructure:"email" json:"email,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", "lms")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", "")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_prefix", "lms")
	v.SetDefault("log.mode", "dev")
	v.SetDefault("legacy_paths", "")
	v.SetDefault("actor.user_id", "")
	v.SetDefault("actor.email", "")
}

// LoadConfig resolves the configuration for dir. Missing .env and config
// files are not an error.
func LoadConfig(dir string) (*Config, error) {
	dotEnvPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat %s: %w", dotEnvPath, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := Path(dir)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.Trim(c.Root, "/ ") == "" {
		return fmt.Errorf("invalid config: root must not be empty")
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("invalid config: unknown store driver %q (want sqlite, redis or memory)", c.Store.Driver)
	}
	return nil
}

// Path returns the config file location for dir.
func Path(dir string) string {
	return filepath.Join(dir, ".lms", "config.json")
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	lmsDir := filepath.Join(dir, ".lms")
	if err := os.MkdirAll(lmsDir, 0755); err != nil {
		return fmt.Errorf("failed to create .lms dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
