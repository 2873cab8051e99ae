package internal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"http_server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	AuthStore AuthStoreConfig `mapstructure:"auth_store"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

// AuthStoreConfig points at the hosted auth backend. JWTSecret is the
// shared HS256 secret the store signs access tokens with; when set,
// bearer tokens are verified locally instead of per-request round trips.
type AuthStoreConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	ServiceKey string        `mapstructure:"service_key"`
	AnonKey    string        `mapstructure:"anon_key"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("http_server.port must be set")
	}
	if c.Database.Source == "" {
		return fmt.Errorf("database.source must be set")
	}
	if c.AuthStore.BaseURL == "" {
		return fmt.Errorf("auth_store.base_url must be set")
	}
	if _, err := url.Parse(c.AuthStore.BaseURL); err != nil {
		return fmt.Errorf("auth_store.base_url is not a valid URL: %w", err)
	}
	if c.AuthStore.ServiceKey == "" {
		return fmt.Errorf("auth_store.service_key must be set")
	}
	return nil
}

// LoadConfigFromEnv builds a Config from environment variables for
// container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           envInt("SERVER_PORT", 8080),
			BaseURL:        os.Getenv("SERVER_BASE_URL"),
			AllowedOrigins: envString("SERVER_ALLOWED_ORIGINS", "*"),
			ReadTimeout:    envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Source:          os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: envDuration("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		AuthStore: AuthStoreConfig{
			BaseURL:    os.Getenv("AUTH_STORE_URL"),
			ServiceKey: os.Getenv("AUTH_STORE_SERVICE_KEY"),
			AnonKey:    os.Getenv("AUTH_STORE_ANON_KEY"),
			JWTSecret:  os.Getenv("AUTH_STORE_JWT_SECRET"),
			Timeout:    envDuration("AUTH_STORE_TIMEOUT", 10*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
