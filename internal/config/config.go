package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration
type Config struct {
	Server  ServerConfig
	Owner   OwnerDBConfig
	Tenant  TenantConfig
	Auth    AuthConfig
	Redis   RedisConfig
	Cache   CacheConfig
	CORS    CORSConfig
	Log     LogConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// OwnerDBConfig points at the platform registry database,
// which is distinct from every tenant database.
type OwnerDBConfig struct {
	URL      string
	LogLevel string
}

type TenantConfig struct {
	// DefaultDatabaseURL backs the default tenant in single-tenant
	// and local development deployments.
	DefaultDatabaseURL string
	DefaultSubdomain   string
	RegistryTTL        time.Duration
	ConnStaleAfter     time.Duration
	OpenTimeout        time.Duration
	RetryBackoff       time.Duration
}

type AuthConfig struct {
	SessionTTL time.Duration
	JWTSecret  string
	JWTTTL     time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	Enabled bool
	Type    string // "memory" or "redis"
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from the environment, loading .env first if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisPort, err := getEnvInt("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         port,
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Owner: OwnerDBConfig{
			URL:      getEnv("OWNER_DATABASE_URL", ""),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		Tenant: TenantConfig{
			DefaultDatabaseURL: getEnv("DEFAULT_DATABASE_URL", ""),
			DefaultSubdomain:   getEnv("DEFAULT_TENANT_SUBDOMAIN", "default"),
			RegistryTTL:        getEnvDuration("TENANT_REGISTRY_TTL", 5*time.Minute),
			ConnStaleAfter:     getEnvDuration("TENANT_CONN_STALE_AFTER", 1*time.Minute),
			OpenTimeout:        getEnvDuration("TENANT_CONN_OPEN_TIMEOUT", 10*time.Second),
			RetryBackoff:       getEnvDuration("TENANT_CONN_RETRY_BACKOFF", 250*time.Millisecond),
		},
		Auth: AuthConfig{
			SessionTTL: getEnvDuration("SESSION_TTL", 12*time.Hour),
			JWTSecret:  getEnv("OWNER_JWT_SECRET", ""),
			JWTTTL:     getEnvDuration("OWNER_JWT_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("CACHE_ENABLED", true),
			Type:    getEnv("CACHE_TYPE", "memory"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvList("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Owner.URL == "" {
		return fmt.Errorf("OWNER_DATABASE_URL is required")
	}
	if c.Tenant.DefaultDatabaseURL == "" {
		return fmt.Errorf("DEFAULT_DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("OWNER_JWT_SECRET is required")
	}
	if c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		return fmt.Errorf("CACHE_TYPE must be memory or redis, got %q", c.Cache.Type)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
