package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	EnvReviewBasePath    = "WALACAKRA_REVIEW_BASE_PATH"
	EnvReviewPlaceholder = "WALACAKRA_REVIEW_PLACEHOLDER"
	EnvReviewDocTypes    = "WALACAKRA_REVIEW_DOC_TYPES"
)

// DefaultDocTypes are the document types offered in the page type selector.
var DefaultDocTypes = []string{"KTP", "KK", "SHM", "SHGB", "NPWP", "AKTA", "OTHER"}

// ReviewConfig holds the reviewer web app settings.
type ReviewConfig struct {
	BasePath    string   `toml:"base_path"`
	Placeholder string   `toml:"placeholder"`
	DocTypes    []string `toml:"doc_types"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ReviewConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ReviewConfig) Merge(overlay *ReviewConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.Placeholder != "" {
		c.Placeholder = overlay.Placeholder
	}
	if len(overlay.DocTypes) > 0 {
		c.DocTypes = overlay.DocTypes
	}
}

func (c *ReviewConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/app"
	}
	if c.Placeholder == "" {
		c.Placeholder = c.BasePath + "/static/default-avatar.svg"
	}
	if len(c.DocTypes) == 0 {
		c.DocTypes = append([]string(nil), DefaultDocTypes...)
	}
}

func (c *ReviewConfig) loadEnv() {
	if v := os.Getenv(EnvReviewBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvReviewPlaceholder); v != "" {
		c.Placeholder = v
	}
	if v := os.Getenv(EnvReviewDocTypes); v != "" {
		var types []string
		for t := range strings.SplitSeq(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		if len(types) > 0 {
			c.DocTypes = types
		}
	}
}

func (c *ReviewConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single-level path: %s", c.BasePath)
	}
	return nil
}
