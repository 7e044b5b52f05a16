package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	NewRelic NewRelicConfig `yaml:"new_relic"`
	Routing  RoutingConfig  `yaml:"routing"`
	HOS      HOSConfig      `yaml:"hos"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	DBName        string `yaml:"name"`
	SSLMode       string `yaml:"sslmode"`
	MigrateOnBoot bool   `yaml:"migrate_on_boot"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `yaml:"app_name"`
	LicenseKey string `yaml:"license_key"`
	Enabled    bool   `yaml:"enabled"`
}

// RoutingConfig holds OpenRouteService and route cache configuration.
// An empty API key disables ORS and every route is a straight-line estimate.
type RoutingConfig struct {
	ORSAPIKey         string        `yaml:"ors_api_key"`
	ORSBaseURL        string        `yaml:"ors_base_url"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
	CachePath         string        `yaml:"cache_path"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	Fallback          bool          `yaml:"fallback"`
}

// HOSConfig holds compliance engine settings.
type HOSConfig struct {
	TimeZone       string        `yaml:"timezone"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
	StatusCacheTTL time.Duration `yaml:"status_cache_ttl"`
}

// Location resolves the trip-day clock time zone.
func (h HOSConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(h.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid HOS_TIMEZONE %q: %w", h.TimeZone, err)
	}
	return loc, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          "5432",
			User:          "postgres",
			Password:      "postgres",
			DBName:        "trucklog",
			SSLMode:       "disable",
			MigrateOnBoot: true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		NewRelic: NewRelicConfig{
			AppName: "trucklog-hos-service",
		},
		Routing: RoutingConfig{
			ORSBaseURL:        "https://api.openrouteservice.org",
			RequestsPerMinute: 40,
			Timeout:           15 * time.Second,
			CachePath:         "data/routes.db",
			CacheTTL:          7 * 24 * time.Hour,
			Fallback:          true,
		},
		HOS: HOSConfig{
			TimeZone:       "UTC",
			LockTTL:        10 * time.Second,
			StatusCacheTTL: 30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, a .env file, and environment variables, in that order of
// increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if _, err := cfg.HOS.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MigrateOnBoot = getBoolEnv("DB_MIGRATE_ON_BOOT", cfg.Database.MigrateOnBoot)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getIntEnv("REDIS_DB", cfg.Redis.DB)

	cfg.NewRelic.AppName = getEnv("NEW_RELIC_APP_NAME", cfg.NewRelic.AppName)
	cfg.NewRelic.LicenseKey = getEnv("NEW_RELIC_LICENSE_KEY", cfg.NewRelic.LicenseKey)
	cfg.NewRelic.Enabled = getBoolEnv("NEW_RELIC_ENABLED", cfg.NewRelic.Enabled)

	cfg.Routing.ORSAPIKey = getEnv("ORS_API_KEY", cfg.Routing.ORSAPIKey)
	cfg.Routing.ORSBaseURL = getEnv("ORS_BASE_URL", cfg.Routing.ORSBaseURL)
	cfg.Routing.RequestsPerMinute = getIntEnv("ORS_REQUESTS_PER_MINUTE", cfg.Routing.RequestsPerMinute)
	cfg.Routing.Timeout = getDurationEnv("ORS_TIMEOUT", cfg.Routing.Timeout)
	cfg.Routing.CachePath = getEnv("ROUTE_CACHE_PATH", cfg.Routing.CachePath)
	cfg.Routing.CacheTTL = getDurationEnv("ROUTE_CACHE_TTL", cfg.Routing.CacheTTL)
	cfg.Routing.Fallback = getBoolEnv("ROUTING_FALLBACK", cfg.Routing.Fallback)

	cfg.HOS.TimeZone = getEnv("HOS_TIMEZONE", cfg.HOS.TimeZone)
	cfg.HOS.LockTTL = getDurationEnv("HOS_LOCK_TTL", cfg.HOS.LockTTL)
	cfg.HOS.StatusCacheTTL = getDurationEnv("HOS_STATUS_CACHE_TTL", cfg.HOS.StatusCacheTTL)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
