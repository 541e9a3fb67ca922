package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the ClientPulse server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Rollup    RollupConfig
	Collector CollectorConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type RollupConfig struct {
	Interval time.Duration
	TopN     int
}

type CollectorConfig struct {
	Enabled       bool
	Interval      time.Duration
	VercelBaseURL string
	VercelToken   string
	GHLBaseURL    string
	GHLToken      string
	Timeout       time.Duration
}

// Load reads configuration from environment variables and returns a validated
// Config. A .env file in the working directory is applied first if present.
// Returns an error with a descriptive message if any required value is missing
// or invalid.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("CLIENTPULSE_PORT", 8080),
			Env:  envString("CLIENTPULSE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Rollup: RollupConfig{
			Interval: envDuration("ROLLUP_INTERVAL", time.Hour),
			TopN:     envInt("ROLLUP_TOP_N", 5),
		},
		Collector: CollectorConfig{
			Enabled:       envBool("COLLECTOR_ENABLED", false),
			Interval:      envDuration("COLLECTOR_INTERVAL", 6*time.Hour),
			VercelBaseURL: envString("VERCEL_API_BASE_URL", "https://api.vercel.com"),
			VercelToken:   os.Getenv("VERCEL_API_TOKEN"),
			GHLBaseURL:    envString("GHL_API_BASE_URL", "https://services.leadconnectorhq.com"),
			GHLToken:      os.Getenv("GHL_API_TOKEN"),
			Timeout:       envDuration("COLLECTOR_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Rollup.TopN <= 0 {
		return fmt.Errorf("ROLLUP_TOP_N must be positive, got %d", c.Rollup.TopN)
	}

	if c.Collector.Enabled {
		if c.Collector.VercelToken == "" && c.Collector.GHLToken == "" {
			return fmt.Errorf("COLLECTOR_ENABLED requires VERCEL_API_TOKEN or GHL_API_TOKEN")
		}
		for name, u := range map[string]string{
			"VERCEL_API_BASE_URL": c.Collector.VercelBaseURL,
			"GHL_API_BASE_URL":    c.Collector.GHLBaseURL,
		} {
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return fmt.Errorf("%s must start with http:// or https://, got %q", name, u)
			}
		}
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
