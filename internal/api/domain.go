package api

import (
	"log/slog"

	"github.com/JaimeStill/walacakra/internal/config"
	"github.com/JaimeStill/walacakra/internal/infrastructure"
	"github.com/JaimeStill/walacakra/internal/objects"
	"github.com/JaimeStill/walacakra/internal/preview"
	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/internal/review"
	"github.com/JaimeStill/walacakra/internal/settings"
	"github.com/JaimeStill/walacakra/pkg/kv"
	"github.com/JaimeStill/walacakra/pkg/storage"
)

// Domain holds the systems behind the reviewer workflow.
type Domain struct {
	Settings *settings.System
	Cache    *results.Cache
	Stash    *objects.Stash
	Client   *remote.Client
	Previews *preview.Loader
	Review   *review.Controller
}

// NewDomain creates all review systems from the infrastructure.
func NewDomain(cfg *config.Config, infra *infrastructure.Infrastructure) *Domain {
	return Assemble(cfg, infra.Store, infra.Storage, infra.Logger)
}

// Assemble wires the review systems over an explicit key/value store and
// blob storage.
func Assemble(cfg *config.Config, store kv.Store, blobs storage.System, logger *slog.Logger) *Domain {
	stash := objects.New(blobs, cfg.Storage.Prefix, cfg.API.BasePath, logger)
	client := remote.New(&cfg.Remote, stash, logger)
	previews := preview.New(client, stash, logger)
	cache := results.NewCache(store, logger)

	presenter := review.NewPresenter(client, previews, review.PresenterConfig{
		Placeholder: cfg.Review.Placeholder,
		DocTypes:    cfg.Review.DocTypes,
	})

	return &Domain{
		Settings: settings.New(store, cfg.Remote.DefaultEndpoint, logger),
		Cache:    cache,
		Stash:    stash,
		Client:   client,
		Previews: previews,
		Review:   review.New(cache, client, presenter, logger),
	}
}
