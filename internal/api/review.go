package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/walacakra/internal/review"
	"github.com/JaimeStill/walacakra/pkg/handlers"
	"github.com/JaimeStill/walacakra/pkg/routes"
)

var errInvalidBody = errors.New("invalid request body")

type reviewHandler struct {
	domain *Domain
	logger *slog.Logger
}

func newReviewHandler(domain *Domain, logger *slog.Logger) *reviewHandler {
	return &reviewHandler{
		domain: domain,
		logger: logger.With("handler", "review"),
	}
}

func (h *reviewHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/review",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.view},
			{Method: "POST", Pattern: "/select", Handler: h.selectFile},
			{Method: "POST", Pattern: "/tab", Handler: h.tab},
			{Method: "POST", Pattern: "/expand", Handler: h.expand},
			{Method: "POST", Pattern: "/edit", Handler: h.edit},
			{Method: "POST", Pattern: "/zoom", Handler: h.zoom},
			{Method: "POST", Pattern: "/decision", Handler: h.decision},
		},
	}
}

type indexRequest struct {
	Index int `json:"index"`
}

type tabRequest struct {
	Tab string `json:"tab"`
}

type editRequest struct {
	Index int    `json:"index"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type zoomRequest struct {
	Action string `json:"action"`
}

type decisionRequest struct {
	Action    string `json:"action"`
	Confirmed bool   `json:"confirmed"`
}

type decisionResponse struct {
	Outcome *review.Outcome `json:"outcome"`
	Message string          `json:"message"`
	View    review.View     `json:"view"`
}

func (h *reviewHandler) view(w http.ResponseWriter, r *http.Request) {
	s := h.domain.Settings.Load(r.Context(), r)
	handlers.RespondJSON(w, http.StatusOK, h.domain.Review.View(r.Context(), s))
}

func (h *reviewHandler) selectFile(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.domain.Review.Select(r.Context(), req.Index); err != nil {
		handlers.RespondError(w, h.logger, review.MapHTTPStatus(err), err)
		return
	}
	h.view(w, r)
}

func (h *reviewHandler) tab(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if !h.decode(w, r, &req) {
		return
	}
	s := h.domain.Settings.Load(r.Context(), r)
	if err := h.domain.Review.SwitchTab(r.Context(), s, review.Tab(req.Tab)); err != nil {
		handlers.RespondError(w, h.logger, review.MapHTTPStatus(err), err)
		return
	}
	h.view(w, r)
}

func (h *reviewHandler) expand(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.domain.Review.ToggleExpand(r.Context(), req.Index); err != nil {
		handlers.RespondError(w, h.logger, review.MapHTTPStatus(err), err)
		return
	}
	h.view(w, r)
}

func (h *reviewHandler) edit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !h.decode(w, r, &req) {
		return
	}
	field, err := review.ParseField(req.Field)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if err := h.domain.Review.Edit(r.Context(), req.Index, field, req.Value); err != nil {
		handlers.RespondError(w, h.logger, review.MapHTTPStatus(err), err)
		return
	}
	h.view(w, r)
}

func (h *reviewHandler) zoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	switch action := review.ZoomAction(req.Action); action {
	case review.ZoomIn, review.ZoomOut, review.ZoomReset:
		handlers.RespondJSON(w, http.StatusOK, map[string]float64{
			"zoom": h.domain.Review.Zoom(action),
		})
	default:
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid zoom action: %q", req.Action))
	}
}

// decision submits an approve, reject, or recalculate action. API clients
// confirm before calling, so the request carries the reviewer's answer.
func (h *reviewHandler) decision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	action, err := review.ParseAction(req.Action)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	s := h.domain.Settings.Load(r.Context(), r)
	outcome, err := h.domain.Review.Decide(r.Context(), s, action, review.Confirmed(req.Confirmed))
	if err != nil {
		handlers.RespondError(w, h.logger, review.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, decisionResponse{
		Outcome: outcome,
		Message: outcome.Message(),
		View:    h.domain.Review.View(r.Context(), s),
	})
}

func (h *reviewHandler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", errInvalidBody, err))
		return false
	}
	return true
}
