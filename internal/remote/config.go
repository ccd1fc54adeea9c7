package remote

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds processing API client settings.
type Config struct {
	APIPrefix         string `toml:"api_prefix"`
	DefaultEndpoint   string `toml:"default_endpoint"`
	Timeout           string `toml:"timeout"`
	UploadTimeout     string `toml:"upload_timeout"`
	UploadConcurrency int    `toml:"upload_concurrency"`
	MaxIdleConns      int    `toml:"max_idle_conns"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	APIPrefix         string
	DefaultEndpoint   string
	Timeout           string
	UploadTimeout     string
	UploadConcurrency string
	MaxIdleConns      string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// UploadTimeoutDuration returns UploadTimeout as a time.Duration.
func (c *Config) UploadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.UploadTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.APIPrefix != "" {
		c.APIPrefix = overlay.APIPrefix
	}
	if overlay.DefaultEndpoint != "" {
		c.DefaultEndpoint = overlay.DefaultEndpoint
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.UploadTimeout != "" {
		c.UploadTimeout = overlay.UploadTimeout
	}
	if overlay.UploadConcurrency != 0 {
		c.UploadConcurrency = overlay.UploadConcurrency
	}
	if overlay.MaxIdleConns != 0 {
		c.MaxIdleConns = overlay.MaxIdleConns
	}
}

func (c *Config) loadDefaults() {
	if c.APIPrefix == "" {
		c.APIPrefix = "/api/v1/walacakra"
	}
	if c.Timeout == "" {
		c.Timeout = "50s"
	}
	if c.UploadTimeout == "" {
		c.UploadTimeout = "10m"
	}
	if c.UploadConcurrency == 0 {
		c.UploadConcurrency = 4
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 50
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.APIPrefix != "" {
		if v := os.Getenv(env.APIPrefix); v != "" {
			c.APIPrefix = v
		}
	}
	if env.DefaultEndpoint != "" {
		if v := os.Getenv(env.DefaultEndpoint); v != "" {
			c.DefaultEndpoint = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.UploadTimeout != "" {
		if v := os.Getenv(env.UploadTimeout); v != "" {
			c.UploadTimeout = v
		}
	}
	if env.UploadConcurrency != "" {
		if v := os.Getenv(env.UploadConcurrency); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.UploadConcurrency = n
			}
		}
	}
	if env.MaxIdleConns != "" {
		if v := os.Getenv(env.MaxIdleConns); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxIdleConns = n
			}
		}
	}
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("api_prefix must start with /: %s", c.APIPrefix)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.UploadTimeout); err != nil {
		return fmt.Errorf("invalid upload_timeout: %w", err)
	}
	if c.UploadConcurrency < 1 {
		return fmt.Errorf("upload_concurrency must be positive")
	}
	if c.MaxIdleConns < 1 {
		return fmt.Errorf("max_idle_conns must be positive")
	}
	return nil
}
