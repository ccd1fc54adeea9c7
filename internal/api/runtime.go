package api

import (
	"github.com/JaimeStill/walacakra/internal/infrastructure"
)

// Runtime extends Infrastructure with a module-scoped logger.
type Runtime struct {
	*infrastructure.Infrastructure
}

// NewRuntime creates a runtime whose logger is scoped to module.
func NewRuntime(infra *infrastructure.Infrastructure, module string) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", module),
			Database:  infra.Database,
			Store:     infra.Store,
			Storage:   infra.Storage,
		},
	}
}
