package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	LogLevel       string   `mapstructure:"LOG_LEVEL"`
	LogFormat      string   `mapstructure:"LOG_FORMAT"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string   `mapstructure:"BODY_LIMIT"`
	MigrationsDir  string   `mapstructure:"MIGRATIONS_DIR"`
	MetricsEnabled bool     `mapstructure:"METRICS_ENABLED"`

	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "BODY_LIMIT", "MIGRATIONS_DIR", "METRICS_ENABLED",
	"REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "") // "" -> console in development, json otherwise
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	if cfg.LogFormat == "" {
		if cfg.IsDev() {
			cfg.LogFormat = "console"
		} else {
			cfg.LogFormat = "json"
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a zerolog level", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json", "ecs":
	default:
		return fmt.Errorf("LOG_FORMAT must be \"console\", \"json\" or \"ecs\", got %q", c.LogFormat)
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns)
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d), got %d", c.DBMaxConns, c.DBMinConns)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is on, got %d", c.RateLimitBurst)
	}
	if c.RequestTimeout < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT and SHUTDOWN_TIMEOUT must not be negative")
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	return nil
}
