package web_test

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/JaimeStill/walacakra/pkg/web"
)

var testFS = fstest.MapFS{
	"templates/layouts/app.html": {Data: []byte(
		`{{ define "app" }}<title>{{ .Title }}</title><a href="{{ .BasePath }}/upload">up</a>{{ if .Flash }}<p class="flash">{{ .Flash }}</p>{{ end }}{{ template "content" . }}{{ end }}`,
	)},
	"templates/pages/review.html": {Data: []byte(
		`{{ define "content" }}<h1>{{ upper .Data }}</h1>{{ end }}`,
	)},
	"templates/pages/broken.html": {Data: []byte(
		`{{ define "content" }}{{ .Data.Missing }}{{ end }}`,
	)},
	"static/app.css": {Data: []byte("body{}")},
}

var (
	reviewView = web.ViewDef{Route: "/review", Template: "review.html", Title: "Review"}
	brokenView = web.ViewDef{Route: "/broken", Template: "broken.html", Title: "Broken"}
)

func newTemplateSet(t *testing.T) *web.TemplateSet {
	t.Helper()
	ts, err := web.NewTemplateSet(
		testFS,
		"templates/layouts/*.html",
		"templates/pages",
		"app",
		"/app",
		template.FuncMap{"upper": strings.ToUpper},
		[]web.ViewDef{reviewView, brokenView},
	)
	if err != nil {
		t.Fatalf("new template set: %v", err)
	}
	return ts
}

func TestRender(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	if err := ts.Render(rec, http.StatusOK, reviewView, "saved", "ktp.pdf"); err != nil {
		t.Fatalf("render: %v", err)
	}

	body := rec.Body.String()
	for _, want := range []string{"<title>Review</title>", `href="/app/upload"`, "KTP.PDF", `class="flash">saved`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type: got %s", ct)
	}
}

func TestRenderStatus(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	if err := ts.Render(rec, http.StatusConflict, reviewView, "", "x"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	err := ts.Render(rec, http.StatusOK, web.ViewDef{Template: "missing.html"}, "", nil)
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRenderFailureWritesNothing(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	if err := ts.Render(rec, http.StatusOK, brokenView, "", 42); err == nil {
		t.Fatal("expected execution error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("partial body written: %q", rec.Body.String())
	}
}

func TestErrorHandler(t *testing.T) {
	ts := newTemplateSet(t)

	rec := httptest.NewRecorder()
	ts.ErrorHandler(reviewView, http.StatusNotFound)(rec, httptest.NewRequest("GET", "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestNewTemplateSetBadLayout(t *testing.T) {
	_, err := web.NewTemplateSet(testFS, "templates/none/*.html", "templates/pages", "app", "/app", nil, nil)
	if err == nil {
		t.Fatal("expected error for missing layouts")
	}
}

func TestStaticServer(t *testing.T) {
	handler := web.StaticServer(testFS, "static", "/static")

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/static/app.css", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if rec.Body.String() != "body{}" {
		t.Errorf("body: got %q", rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Error("missing cache-control header")
	}
}
