package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/walacakra/internal/api"
	"github.com/JaimeStill/walacakra/internal/config"
	"github.com/JaimeStill/walacakra/internal/infrastructure"
	"github.com/JaimeStill/walacakra/pkg/module"
	"github.com/JaimeStill/walacakra/web/app"
)

// Modules are the mounted HTTP surfaces. Both share one review domain.
type Modules struct {
	API *module.Module
	App *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	domain := api.NewDomain(cfg, infra)

	apiModule, err := api.NewModule(cfg, api.NewRuntime(infra, "api"), domain)
	if err != nil {
		return nil, err
	}

	appModule, err := app.NewModule(cfg, domain, infra.Logger)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
		App: appModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) error {
	if err := router.Mount(m.API); err != nil {
		return err
	}
	return router.Mount(m.App)
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.Redirect("GET /{$}", cfg.Review.BasePath+"/upload")

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}

		if failures := infra.Lifecycle.Check(r.Context()); len(failures) > 0 {
			checks := make(map[string]string, len(failures))
			for name, err := range failures {
				checks[name] = err.Error()
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"status": "degraded", "checks": checks})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
