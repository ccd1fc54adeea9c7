package app

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JaimeStill/walacakra/internal/api"
	"github.com/JaimeStill/walacakra/internal/review"
	"github.com/JaimeStill/walacakra/internal/settings"
	"github.com/JaimeStill/walacakra/pkg/pagination"
	"github.com/JaimeStill/walacakra/pkg/web"
)

// messageParam carries a one-shot notice across a redirect.
const messageParam = "msg"

type handler struct {
	domain        *api.Domain
	views         *web.TemplateSet
	logger        *slog.Logger
	maxUploadSize int64
}

func newHandler(domain *api.Domain, views *web.TemplateSet, logger *slog.Logger, maxUploadSize int64) *handler {
	return &handler{
		domain:        domain,
		views:         views,
		logger:        logger.With("handler", "app"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *handler) register(r *web.Router) {
	r.HandleFunc("GET /{$}", h.home)
	r.HandleFunc("GET /upload", h.uploadPage)
	r.HandleFunc("POST /settings", h.saveSettings)
	r.HandleFunc("POST /upload", h.upload)
	r.HandleFunc("GET /review", h.reviewPage)
	r.HandleFunc("POST /review/select", h.selectFile)
	r.HandleFunc("POST /review/tab", h.tab)
	r.HandleFunc("POST /review/expand", h.expand)
	r.HandleFunc("POST /review/edit", h.edit)
	r.HandleFunc("POST /review/zoom", h.zoom)
	r.HandleFunc("POST /review/decision", h.decision)
	r.HandleFunc("GET /history", h.historyPage)
	r.HandleFunc("POST /history/open", h.openHistory)
}

type uploadData struct {
	Settings settings.Settings
	Error    bool
}

func (h *handler) home(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, "/upload", "")
}

func (h *handler) uploadPage(w http.ResponseWriter, r *http.Request) {
	s := h.domain.Settings.Load(r.Context(), r)
	h.render(w, r, http.StatusOK, uploadView, uploadData{Settings: s})
}

func (h *handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	in := settings.Settings{
		Endpoint: r.FormValue("endpoint"),
		Token:    r.FormValue("token"),
	}
	if _, err := h.domain.Settings.Save(r.Context(), w, in); err != nil {
		h.logger.Warn("save settings failed", "error", err)
		h.redirect(w, r, "/upload", "Settings not saved: "+err.Error())
		return
	}
	h.redirect(w, r, "/upload", "Settings saved")
}

// upload sends every selected file to the processing API and opens the
// review page on the new batch. Per-file failures are listed in the batch.
func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	files, err := api.ReadUploads(r, h.maxUploadSize)
	if err != nil {
		h.redirect(w, r, "/upload", uploadMessage(err))
		return
	}

	ctx := r.Context()
	s := h.domain.Settings.Load(ctx, r)
	if _, err := s.BaseURL(); err != nil {
		h.redirect(w, r, "/upload", "Configure the API endpoint before uploading")
		return
	}

	batch := h.domain.Client.ProcessBatch(ctx, s, files)
	if err := h.domain.Review.Replace(ctx, batch); err != nil {
		h.logger.Error("store batch failed", "error", err)
		h.redirect(w, r, "/upload", "Failed to store results: "+err.Error())
		return
	}

	failed := 0
	for _, f := range batch.Files {
		if f.Response == nil {
			failed++
		}
	}
	msg := ""
	if failed > 0 {
		msg = strconv.Itoa(failed) + " of " + strconv.Itoa(len(batch.Files)) + " files failed to process"
	}
	h.redirect(w, r, "/review", msg)
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrNoFiles):
		return "Select at least one file"
	case errors.Is(err, api.ErrFileTooLarge):
		return "Upload rejected: " + err.Error()
	default:
		return "Upload failed: " + err.Error()
	}
}

func (h *handler) reviewPage(w http.ResponseWriter, r *http.Request) {
	s := h.domain.Settings.Load(r.Context(), r)
	view := h.domain.Review.View(r.Context(), s)
	if view.Tab == review.TabHistory {
		h.redirect(w, r, "/history?page="+strconv.Itoa(max(view.History.Pagination.Page, 1)), r.URL.Query().Get(messageParam))
		return
	}
	h.render(w, r, http.StatusOK, reviewView, view)
}

func (h *handler) selectFile(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		h.redirect(w, r, "/review", "Invalid file selection")
		return
	}
	h.after(w, r, h.domain.Review.Select(r.Context(), index))
}

func (h *handler) tab(w http.ResponseWriter, r *http.Request) {
	tab, err := review.ParseTab(r.FormValue("tab"))
	if err != nil {
		h.redirect(w, r, "/review", err.Error())
		return
	}
	s := h.domain.Settings.Load(r.Context(), r)
	if err := h.domain.Review.SwitchTab(r.Context(), s, tab); err != nil {
		h.after(w, r, err)
		return
	}
	if tab == review.TabHistory {
		h.redirect(w, r, "/history?page=1", "")
		return
	}
	h.redirect(w, r, "/review", "")
}

func (h *handler) expand(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		h.redirect(w, r, "/review", "Invalid page")
		return
	}
	h.after(w, r, h.domain.Review.ToggleExpand(r.Context(), index))
}

// edit stores the row's draft values. Each field is submitted with the row
// form, so unchanged fields round-trip their current value.
func (h *handler) edit(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		h.redirect(w, r, "/review", "Invalid page")
		return
	}

	ctx := r.Context()
	for _, field := range []review.Field{review.FieldDocType, review.FieldNIK, review.FieldName} {
		if _, ok := r.Form[string(field)]; !ok {
			continue
		}
		if err := h.domain.Review.Edit(ctx, index, field, r.FormValue(string(field))); err != nil {
			h.after(w, r, err)
			return
		}
	}
	h.redirect(w, r, "/review", "")
}

func (h *handler) zoom(w http.ResponseWriter, r *http.Request) {
	switch action := review.ZoomAction(r.FormValue("action")); action {
	case review.ZoomIn, review.ZoomOut, review.ZoomReset:
		h.domain.Review.Zoom(action)
	}
	h.redirect(w, r, "/review", "")
}

// decision runs an approve, reject, or recalculate action. The browser asks
// for confirmation before submitting and sends the answer as "confirmed".
func (h *handler) decision(w http.ResponseWriter, r *http.Request) {
	action, err := review.ParseAction(r.FormValue("action"))
	if err != nil {
		h.redirect(w, r, "/review", err.Error())
		return
	}

	ctx := r.Context()
	s := h.domain.Settings.Load(ctx, r)
	confirmed := review.Confirmed(r.FormValue("confirmed") == "true")

	outcome, err := h.domain.Review.Decide(ctx, s, action, confirmed)
	if err != nil {
		h.redirect(w, r, "/review", decisionMessage(err))
		return
	}
	h.redirect(w, r, "/review", outcome.Message())
}

func decisionMessage(err error) string {
	switch {
	case errors.Is(err, review.ErrDeclined):
		return ""
	case errors.Is(err, review.ErrMissingHash):
		return "Document hash not found. Cannot submit this decision."
	case errors.Is(err, review.ErrTerminal):
		return "This document has already been decided."
	case errors.Is(err, review.ErrInFlight):
		return "A decision is already being submitted."
	case errors.Is(err, review.ErrDecisionFailed):
		return "Failed to submit decision: " + err.Error()
	default:
		return err.Error()
	}
}

type historyData struct {
	History review.HistoryView
	Files   []review.FileOption
}

func (h *handler) historyPage(w http.ResponseWriter, r *http.Request) {
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
		h.redirect(w, r, "/history?page=1", err.Error())
		return
	}

	view := h.domain.Review.View(ctx, s)
	h.render(w, r, http.StatusOK, historyView, historyData{
		History: view.History,
		Files:   view.Files,
	})
}

func (h *handler) openHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.domain.Settings.Load(ctx, r)

	err := h.domain.Review.OpenHistoryItem(ctx, s, r.FormValue("hash"), r.FormValue("filename"))
	if err != nil {
		h.redirect(w, r, "/history?page=1", "Failed to open document: "+err.Error())
		return
	}
	h.redirect(w, r, "/review", "")
}

// after redirects to the review page, surfacing err as the notice.
func (h *handler) after(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		if !review.IsNotice(err) {
			h.logger.Warn("review action failed", "path", r.URL.Path, "error", err)
		}
		h.redirect(w, r, "/review", err.Error())
		return
	}
	h.redirect(w, r, "/review", "")
}

func (h *handler) redirect(w http.ResponseWriter, r *http.Request, path, msg string) {
	target := h.views.BasePath() + path
	if msg != "" {
		sep := "?"
		if u, err := url.Parse(path); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target += sep + messageParam + "=" + url.QueryEscape(msg)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, view web.ViewDef, data any) {
	msg := r.URL.Query().Get(messageParam)
	if err := h.views.Render(w, status, view, msg, data); err != nil {
		h.logger.Error("render failed", "view", view.Template, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

