package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/factotum/pkg/auth"
	"github.com/JaimeStill/factotum/pkg/cache"
	"github.com/JaimeStill/factotum/pkg/database"
	"github.com/JaimeStill/factotum/pkg/metrics"
	"github.com/JaimeStill/factotum/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvFactotumEnv             = "FACTOTUM_ENV"
	EnvFactotumShutdownTimeout = "FACTOTUM_SHUTDOWN_TIMEOUT"
	EnvFactotumVersion         = "FACTOTUM_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "FACTOTUM_DB_HOST",
	Port:            "FACTOTUM_DB_PORT",
	Name:            "FACTOTUM_DB_NAME",
	User:            "FACTOTUM_DB_USER",
	Password:        "FACTOTUM_DB_PASSWORD",
	SSLMode:         "FACTOTUM_DB_SSL_MODE",
	MaxOpenConns:    "FACTOTUM_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "FACTOTUM_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "FACTOTUM_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "FACTOTUM_DB_CONN_TIMEOUT",
	ApplicationName: "FACTOTUM_DB_APPLICATION_NAME",
}

var storageEnv = &storage.Env{
	ContainerName:    "FACTOTUM_STORAGE_CONTAINER_NAME",
	ConnectionString: "FACTOTUM_STORAGE_CONNECTION_STRING",
	AccountURL:       "FACTOTUM_STORAGE_ACCOUNT_URL",
	KeyPrefix:        "FACTOTUM_STORAGE_KEY_PREFIX",
}

var authEnv = &auth.Env{
	Enabled:     "FACTOTUM_AUTH_ENABLED",
	Issuer:      "FACTOTUM_AUTH_ISSUER",
	ClientID:    "FACTOTUM_AUTH_CLIENT_ID",
	ActorClaim:  "FACTOTUM_AUTH_ACTOR_CLAIM",
	ActorHeader: "FACTOTUM_AUTH_ACTOR_HEADER",
}

var cacheEnv = &cache.Env{
	Addr:        "FACTOTUM_CACHE_ADDR",
	Password:    "FACTOTUM_CACHE_PASSWORD",
	DB:          "FACTOTUM_CACHE_DB",
	Prefix:      "FACTOTUM_CACHE_PREFIX",
	TTL:         "FACTOTUM_CACHE_TTL",
	DialTimeout: "FACTOTUM_CACHE_DIAL_TIMEOUT",
}

var metricsEnv = &metrics.Env{
	Enabled:   "FACTOTUM_METRICS_ENABLED",
	Path:      "FACTOTUM_METRICS_PATH",
	Namespace: "FACTOTUM_METRICS_NAMESPACE",
}

// Config is the root configuration for the Factotum service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Cache           cache.Config    `toml:"cache"`
	Metrics         metrics.Config  `toml:"metrics"`
	QA              QAConfig        `toml:"qa"`
	Rules           RulesConfig     `toml:"rules"`
	Audit           AuditConfig     `toml:"audit"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the FACTOTUM_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvFactotumEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Cache.Merge(&overlay.Cache)
	c.Metrics.Merge(&overlay.Metrics)
	c.QA.Merge(&overlay.QA)
	c.Rules.Merge(&overlay.Rules)
	c.Audit.Merge(&overlay.Audit)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Metrics.Finalize(metricsEnv); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.QA.Finalize(); err != nil {
		return fmt.Errorf("qa: %w", err)
	}
	if err := c.Rules.Finalize(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	c.Audit.Finalize()
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvFactotumShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvFactotumVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvFactotumEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
