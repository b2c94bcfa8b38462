package config

import (
	"errors"
	"fmt"
	"time"

	libconfig "chargefleet/libs/config"
)

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST"`
	Port int    `yaml:"port" env:"HTTP_PORT"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
}

// RedisConfig holds the cache settings. Addr may be empty to run without the
// status cache.
type RedisConfig struct {
	Addr          string        `yaml:"addr" env:"REDIS_ADDR"`
	Password      string        `yaml:"password" env:"REDIS_PASSWORD"`
	PileStatusTTL time.Duration `yaml:"pileStatusTtl" env:"REDIS_PILE_STATUS_TTL"`
	NotifyTimeout time.Duration `yaml:"notifyTimeout" env:"REDIS_NOTIFY_TIMEOUT"`
}

// AuthConfig holds token issuance settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwtSecret" env:"JWT_SECRET"`
	TokenTTL   time.Duration `yaml:"tokenTtl" env:"TOKEN_TTL"`
	BcryptCost int           `yaml:"bcryptCost" env:"BCRYPT_COST"`
}

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
}

// Load reads configuration from the optional CONFIG_FILE and the environment,
// applies defaults and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Redis.PileStatusTTL <= 0 {
		cfg.Redis.PileStatusTTL = 24 * time.Hour
	}
	if cfg.Redis.NotifyTimeout <= 0 {
		cfg.Redis.NotifyTimeout = 2 * time.Second
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	if cfg.Database.DSN == "" {
		return nil, errors.New("config: database dsn is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("config: jwt secret is required")
	}

	return cfg, nil
}

// HTTPAddress returns the listen address in host:port form.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
