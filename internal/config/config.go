package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backends for the local store.
const (
	StoreBackendBolt  = "bolt"
	StoreBackendRedis = "redis"
)

// Config aggregates all runtime settings required by the storefront client.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Identity    IdentityConfig
	Session     SessionConfig
	Store       StoreConfig
	Redis       RedisConfig
	CartSync    CartSyncConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type IdentityConfig struct {
	BaseURL    string
	CookieName string
	Timeout    time.Duration
}

type SessionConfig struct {
	WarningLead     time.Duration
	HardTimeout     time.Duration
	RefreshInterval time.Duration
	ActivityGrace   time.Duration
}

type StoreConfig struct {
	Backend string
	Path    string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type CartSyncConfig struct {
	Interval   time.Duration
	MaxRetries int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the client can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "ketabplus-frontend"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "127.0.0.1"),
			Port:         getString("SERVER_PORT", "3000"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Identity: IdentityConfig{
			BaseURL:    getString("IDENTITY_BASE_URL", "http://localhost:8080"),
			CookieName: getString("IDENTITY_COOKIE_NAME", "ketab_session"),
			Timeout:    getDuration("IDENTITY_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			WarningLead:     getDuration("SESSION_WARNING_LEAD", 10*time.Minute),
			HardTimeout:     getDuration("SESSION_HARD_TIMEOUT", 30*time.Minute),
			RefreshInterval: getDuration("SESSION_REFRESH_INTERVAL", 10*time.Minute),
			ActivityGrace:   getDuration("SESSION_ACTIVITY_GRACE", 5*time.Minute),
		},
		Store: StoreConfig{
			Backend: getString("STORE_BACKEND", StoreBackendBolt),
			Path:    getString("STORE_PATH", "./data/local.db"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		CartSync: CartSyncConfig{
			Interval:   getDuration("CART_SYNC_INTERVAL", 30*time.Second),
			MaxRetries: getInt("CART_SYNC_MAX_RETRIES", 3),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the embedded server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
