package api

import (
	"net/http"

	"github.com/JaimeStill/walacakra/internal/config"
	"github.com/JaimeStill/walacakra/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	review := newReviewHandler(domain, runtime.Logger)
	history := newHistoryHandler(domain, runtime.Logger)
	process := newProcessHandler(domain, runtime.Logger, cfg.API.MaxUploadSizeBytes())
	settings := newSettingsHandler(domain, runtime.Logger)

	routes.Register(
		mux,
		review.routes(),
		history.routes(),
		process.routes(),
		settings.routes(),
		domain.Stash.Handler().Routes(),
	)
}
