package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/walacakra/internal/settings"
	"github.com/JaimeStill/walacakra/pkg/handlers"
	"github.com/JaimeStill/walacakra/pkg/routes"
)

type settingsHandler struct {
	domain *Domain
	logger *slog.Logger
}

func newSettingsHandler(domain *Domain, logger *slog.Logger) *settingsHandler {
	return &settingsHandler{
		domain: domain,
		logger: logger.With("handler", "settings"),
	}
}

func (h *settingsHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/settings",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.get},
			{Method: "POST", Pattern: "", Handler: h.save},
		},
	}
}

type settingsResponse struct {
	Endpoint string `json:"endpoint"`
	HasToken bool   `json:"hasToken"`
}

func newSettingsResponse(s settings.Settings) settingsResponse {
	return settingsResponse{Endpoint: s.Endpoint, HasToken: s.Token != ""}
}

func (h *settingsHandler) get(w http.ResponseWriter, r *http.Request) {
	s := h.domain.Settings.Load(r.Context(), r)
	handlers.RespondJSON(w, http.StatusOK, newSettingsResponse(s))
}

func (h *settingsHandler) save(w http.ResponseWriter, r *http.Request) {
	var req settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", errInvalidBody, err))
		return
	}

	saved, err := h.domain.Settings.Save(r.Context(), w, req)
	if err != nil {
		handlers.RespondError(w, h.logger, settings.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, newSettingsResponse(saved))
}
