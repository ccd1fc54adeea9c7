package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/walacakra/internal/review"
	"github.com/JaimeStill/walacakra/pkg/handlers"
	"github.com/JaimeStill/walacakra/pkg/pagination"
	"github.com/JaimeStill/walacakra/pkg/routes"
)

type historyHandler struct {
	domain *Domain
	logger *slog.Logger
}

func newHistoryHandler(domain *Domain, logger *slog.Logger) *historyHandler {
	return &historyHandler{
		domain: domain,
		logger: logger.With("handler", "history"),
	}
}

func (h *historyHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/history",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "POST", Pattern: "/{hash}", Handler: h.open},
		},
	}
}

type openRequest struct {
	Filename string `json:"filename"`
}

// list loads a history page. Page 1 enters the history tab; later pages are
// bounded by the last known page count. Fetch failures are reported in the
// history view's error field with a 200 status.
func (h *historyHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.domain.Settings.Load(ctx, r)
	page := pagination.PageFromQuery(r.URL.Query())

	var err error
	if page == 1 {
		err = h.domain.Review.SwitchTab(ctx, s, review.TabHistory)
	} else {
		err = h.domain.Review.HistoryPage(ctx, s, page)
	}
	if err != nil {
		handlers.RespondError(w, h.logger, review.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.domain.Review.Session().History)
}

func (h *historyHandler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	s := h.domain.Settings.Load(ctx, r)
	if err := h.domain.Review.OpenHistoryItem(ctx, s, r.PathValue("hash"), req.Filename); err != nil {
		handlers.RespondError(w, h.logger, review.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.domain.Review.View(ctx, s))
}
