// Package config reads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultEdamamBaseURL = "https://api.edamam.com"
	DefaultAddr          = ":8080"
	DefaultAWSRegion     = "us-east-1"
	DefaultSearchTTL     = 7 * 24 * time.Hour
	DefaultPurgeSchedule = "@hourly"
)

type Config struct {
	DBPath   string
	LogLevel string

	Edamam    EdamamConfig
	USDA      USDAConfig
	UPCItemDB UPCItemDBConfig
	AWS       AWSConfig
	Server ServerConfig
	CORS   CORSConfig

	// SearchCacheTTL bounds how long food search results are reused.
	SearchCacheTTL time.Duration
}

type EdamamConfig struct {
	AppID   string
	AppKey  string
	BaseURL string
	Timeout time.Duration
}

type USDAConfig struct {
	APIKey  string
	BaseURL string
}

// UPCItemDBConfig is optional; without a key the trial endpoints are used.
type UPCItemDBConfig struct {
	APIKey     string
	APIKeyType string
}

type AWSConfig struct {
	Region string
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// PurgeSchedule is a cron spec for deleting expired search cache rows.
	PurgeSchedule string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads .env (or the given files) into the process environment, then
// builds a Config from it. A missing .env is not an error.
func Load(log *zap.Logger, files ...string) (*Config, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := godotenv.Load(files...); err != nil {
		log.Warn("no .env file found, using system env", zap.Strings("files", files))
	}

	cfg := &Config{
		DBPath:   getEnv("CALTRACK_DB", ""),
		LogLevel: getEnv("CALTRACK_LOG_LEVEL", "info"),
		Edamam: EdamamConfig{
			AppID:   getEnv("EDAMAM_APP_ID", ""),
			AppKey:  getEnv("EDAMAM_APP_KEY", ""),
			BaseURL: getEnv("EDAMAM_BASE_URL", DefaultEdamamBaseURL),
		},
		USDA: USDAConfig{
			APIKey:  getEnv("USDA_API_KEY", ""),
			BaseURL: getEnv("USDA_BASE_URL", ""),
		},
		UPCItemDB: UPCItemDBConfig{
			APIKey:     getEnv("UPCITEMDB_API_KEY", ""),
			APIKeyType: getEnv("UPCITEMDB_KEY_TYPE", "3scale"),
		},
		AWS: AWSConfig{
			Region: getEnv("AWS_REGION", DefaultAWSRegion),
		},
		Server: ServerConfig{
			Addr:          getEnv("CALTRACK_ADDR", DefaultAddr),
			PurgeSchedule: getEnv("CALTRACK_CACHE_PURGE", DefaultPurgeSchedule),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceEnv("CALTRACK_CORS_ORIGINS", []string{"*"}),
		},
	}

	var err error
	if cfg.Edamam.Timeout, err = getDurationEnv("EDAMAM_TIMEOUT", 12*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDurationEnv("CALTRACK_READ_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationEnv("CALTRACK_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = getDurationEnv("CALTRACK_SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SearchCacheTTL, err = getDurationEnv("CALTRACK_SEARCH_TTL", DefaultSearchTTL); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if !cfg.EdamamConfigured() {
		log.Warn("edamam credentials not configured; food search is disabled")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Edamam.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("EDAMAM_BASE_URL must be an absolute url, got %q", c.Edamam.BaseURL)
	}
	if (c.Edamam.AppID == "") != (c.Edamam.AppKey == "") {
		return fmt.Errorf("EDAMAM_APP_ID and EDAMAM_APP_KEY must be set together")
	}
	if c.SearchCacheTTL <= 0 {
		return fmt.Errorf("CALTRACK_SEARCH_TTL must be positive")
	}
	return nil
}

func (c *Config) EdamamConfigured() bool {
	return c.Edamam.AppID != "" && c.Edamam.AppKey != ""
}

func (c *Config) USDAConfigured() bool {
	return c.USDA.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}
