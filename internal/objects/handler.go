package objects

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/walacakra/pkg/handlers"
	"github.com/JaimeStill/walacakra/pkg/routes"
	"github.com/JaimeStill/walacakra/pkg/storage"
)

// Handler streams stashed objects.
type Handler struct {
	stash  *Stash
	logger *slog.Logger
}

// NewHandler creates a Handler over stash.
func NewHandler(stash *Stash, logger *slog.Logger) *Handler {
	return &Handler{
		stash:  stash,
		logger: logger.With("handler", "objects"),
	}
}

// Routes returns the object route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/objects",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.Download},
		},
	}
}

// Download writes the object body with its stored content type.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := storage.ValidateKey(key); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	blob, err := h.stash.store.Download(r.Context(), h.stash.key(key))
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("object stream failed", "key", key, "error", err)
	}
}
