// Package api assembles the JSON API module over the review domain.
package api

import (
	"net/http"

	"github.com/JaimeStill/walacakra/internal/config"
	"github.com/JaimeStill/walacakra/pkg/middleware"
	"github.com/JaimeStill/walacakra/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The domain is shared with the web module so both drive the same session.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) (*module.Module, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.MaxBytes(cfg.API.MaxUploadSizeBytes()))

	return m, nil
}
