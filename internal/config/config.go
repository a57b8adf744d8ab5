// Package config loads server settings from an optional yaml file, the
// environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Friend store backends.
const (
	FriendStoreMemory   = "memory"
	FriendStoreRedis    = "redis"
	FriendStorePostgres = "postgres"
)

type Config struct {
	Mode     string `mapstructure:"mode"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// WebSocket transport
	ReadLimit  int64         `mapstructure:"read_limit"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`

	// Friend store
	FriendStore    string        `mapstructure:"friend_store"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
	DatabaseDSN    string        `mapstructure:"database_dsn"`
	PersistTimeout time.Duration `mapstructure:"persist_timeout"`

	// Code tickets
	TicketSecret string        `mapstructure:"ticket_secret"`
	TicketTTL    time.Duration `mapstructure:"ticket_ttl"`
}

// PingPeriod is how often the server pings a connection. It must be shorter than PongWait.
func (c *Config) PingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("write_wait", "10s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("friend_store", FriendStoreMemory)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("database_dsn", "host=localhost user=user password=password dbname=pairchat port=5432 sslmode=disable")
	v.SetDefault("persist_timeout", "5s")
	v.SetDefault("ticket_secret", "change-me")
	v.SetDefault("ticket_ttl", "720h")
}

// Load reads config/config.<CONFIG_ENV>.yaml when present and applies
// PAIRCHAT_* environment overrides on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("PAIRCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
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

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.FriendStore {
	case FriendStoreMemory, FriendStoreRedis, FriendStorePostgres:
	default:
		return fmt.Errorf("unknown friend_store %q", c.FriendStore)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.PongWait <= 0 || c.WriteWait <= 0 {
		return fmt.Errorf("write_wait and pong_wait must be positive")
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive")
	}
	return nil
}
