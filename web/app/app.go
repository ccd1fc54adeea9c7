// Package app serves the reviewer web interface: the upload page with the
// API settings form, the review page, and the processing history.
package app

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/JaimeStill/walacakra/internal/api"
	"github.com/JaimeStill/walacakra/internal/config"
	"github.com/JaimeStill/walacakra/internal/review"
	"github.com/JaimeStill/walacakra/pkg/middleware"
	"github.com/JaimeStill/walacakra/pkg/module"
	"github.com/JaimeStill/walacakra/pkg/web"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layout = "app"

var (
	uploadView   = web.ViewDef{Route: "/upload", Template: "upload.html", Title: "Upload"}
	reviewView   = web.ViewDef{Route: "/review", Template: "review.html", Title: "Review"}
	historyView  = web.ViewDef{Route: "/history", Template: "history.html", Title: "History"}
	notFoundView = web.ViewDef{Route: "", Template: "notfound.html", Title: "Not Found"}
)

var views = []web.ViewDef{uploadView, reviewView, historyView, notFoundView}

// NewModule creates the web module mounted at the review base path.
func NewModule(cfg *config.Config, domain *api.Domain, logger *slog.Logger) (*module.Module, error) {
	basePath := cfg.Review.BasePath

	ts, err := web.NewTemplateSet(
		templateFS,
		"templates/layouts/*.html",
		"templates/pages",
		layout,
		basePath,
		funcs,
		views,
	)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	h := newHandler(domain, ts, logger, cfg.API.MaxUploadSizeBytes())

	router := web.NewRouter()
	h.register(router)
	router.Handle("GET /static/", web.StaticServer(staticFS, "static", "/static"))
	router.SetFallback(ts.ErrorHandler(notFoundView, 404))

	m := module.New(basePath, router)
	m.Use(middleware.Logger(logger))
	m.Use(middleware.MaxBytes(cfg.API.MaxUploadSizeBytes()))
	return m, nil
}

var funcs = template.FuncMap{
	"percent": func(zoom float64) int {
		return int(zoom*100 + 0.5)
	},
	"lower": strings.ToLower,
	"list": func(items ...string) []string {
		return items
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"prompt": func(action string) string {
		return review.Action(action).Prompt()
	},
	"zoomLabel": func(action string) string {
		switch review.ZoomAction(action) {
		case review.ZoomIn:
			return "+"
		case review.ZoomOut:
			return "-"
		default:
			return "Reset"
		}
	},
}
