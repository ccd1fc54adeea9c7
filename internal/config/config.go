package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/pkg/database"
	"github.com/JaimeStill/walacakra/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvWalacakraEnv             = "WALACAKRA_ENV"
	EnvWalacakraShutdownTimeout = "WALACAKRA_SHUTDOWN_TIMEOUT"
	EnvWalacakraVersion         = "WALACAKRA_VERSION"
)

var databaseEnv = &database.Env{
	Driver:          "WALACAKRA_DB_DRIVER",
	Path:            "WALACAKRA_DB_PATH",
	Host:            "WALACAKRA_DB_HOST",
	Port:            "WALACAKRA_DB_PORT",
	Name:            "WALACAKRA_DB_NAME",
	User:            "WALACAKRA_DB_USER",
	Password:        "WALACAKRA_DB_PASSWORD",
	SSLMode:         "WALACAKRA_DB_SSL_MODE",
	MaxOpenConns:    "WALACAKRA_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "WALACAKRA_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "WALACAKRA_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "WALACAKRA_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "WALACAKRA_STORAGE_CONTAINER_NAME",
	ConnectionString: "WALACAKRA_STORAGE_CONNECTION_STRING",
	Prefix:           "WALACAKRA_STORAGE_PREFIX",
}

var remoteEnv = &remote.Env{
	APIPrefix:         "WALACAKRA_REMOTE_API_PREFIX",
	DefaultEndpoint:   "WALACAKRA_REMOTE_DEFAULT_ENDPOINT",
	Timeout:           "WALACAKRA_REMOTE_TIMEOUT",
	UploadTimeout:     "WALACAKRA_REMOTE_UPLOAD_TIMEOUT",
	UploadConcurrency: "WALACAKRA_REMOTE_UPLOAD_CONCURRENCY",
	MaxIdleConns:      "WALACAKRA_REMOTE_MAX_IDLE_CONNS",
}

// Config is the root configuration for the Walacakra review service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Remote          remote.Config   `toml:"remote"`
	Review          ReviewConfig    `toml:"review"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the WALACAKRA_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvWalacakraEnv); env != "" {
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
	c.Remote.Merge(&overlay.Remote)
	c.Review.Merge(&overlay.Review)
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
	if err := c.Remote.Finalize(remoteEnv); err != nil {
		return fmt.Errorf("remote: %w", err)
	}
	if err := c.Review.Finalize(); err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if c.Review.BasePath == c.API.BasePath {
		return fmt.Errorf("review base_path and api base_path must differ: %s", c.API.BasePath)
	}
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
	if v := os.Getenv(EnvWalacakraShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvWalacakraVersion); v != "" {
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
	if env := os.Getenv(EnvWalacakraEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
