package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/JaimeStill/walacakra/internal/api"
	"github.com/JaimeStill/walacakra/internal/config"
	"github.com/JaimeStill/walacakra/internal/infrastructure"
	"github.com/JaimeStill/walacakra/internal/remote/remotetest"
	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/internal/review"
	"github.com/JaimeStill/walacakra/pkg/database"
	"github.com/JaimeStill/walacakra/pkg/kv"
	"github.com/JaimeStill/walacakra/pkg/module"
	"github.com/JaimeStill/walacakra/pkg/storage"
	"github.com/JaimeStill/walacakra/pkg/storage/storagetest"
)

type harness struct {
	handler http.Handler
	remote  *remotetest.Server
	domain  *api.Domain
	blobs   *storagetest.Memory
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Storage: storage.Config{Prefix: "objects"},
		Review:  config.ReviewConfig{DocTypes: []string{"KTP", "KK", "SHM"}},
	}
	if err := cfg.API.Finalize(); err != nil {
		t.Fatalf("api finalize: %v", err)
	}
	if err := cfg.Remote.Finalize(nil); err != nil {
		t.Fatalf("remote finalize: %v", err)
	}
	if err := cfg.Review.Finalize(); err != nil {
		t.Fatalf("review finalize: %v", err)
	}
	return cfg
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "walacakra.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := kv.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := testConfig(t)
	blobs := storagetest.New()
	store := kv.New(db, database.DriverSQLite, discard())
	domain := api.Assemble(cfg, store, blobs, discard())

	runtime := api.NewRuntime(&infrastructure.Infrastructure{Logger: discard()}, "api")
	m, err := api.NewModule(cfg, runtime, domain)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	router := module.NewRouter()
	if err := router.Mount(m); err != nil {
		t.Fatalf("mount: %v", err)
	}

	return &harness{
		handler: router,
		remote:  remotetest.NewServer(t),
		domain:  domain,
		blobs:   blobs,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) configure(t *testing.T) {
	t.Helper()
	rec := h.do(t, "POST", "/api/settings", map[string]string{
		"endpoint": h.remote.URL + "/",
		"token":    "secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save settings: %d %s", rec.Code, rec.Body.String())
	}
}

func (h *harness) upload(t *testing.T, filenames ...string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := w.CreateFormFile(api.UploadField, name)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write([]byte("%PDF-1.4 fake"))
	}
	w.Close()

	req := httptest.NewRequest("POST", "/api/process", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestReviewWithoutBatch(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "GET", "/api/review", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	view := decode[review.View](t, rec)
	if view.Notice != review.NoticeNoFile {
		t.Errorf("notice = %q", view.Notice)
	}

	rec = h.do(t, "POST", "/api/review/decision", map[string]any{"action": "approve", "confirmed": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("decision without batch = %d, want 404", rec.Code)
	}
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "POST", "/api/settings", map[string]string{"endpoint": "ftp://files.example"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid endpoint = %d, want 400", rec.Code)
	}

	h.configure(t)
	got := decode[map[string]any](t, h.do(t, "GET", "/api/settings", nil))
	if got["endpoint"] != h.remote.URL+"/" || got["hasToken"] != true {
		t.Errorf("settings = %v", got)
	}

	rec = h.do(t, "POST", "/api/settings", map[string]string{"endpoint": "  "})
	if rec.Code != http.StatusOK {
		t.Fatalf("blank endpoint = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	got = decode[map[string]any](t, h.do(t, "GET", "/api/settings", nil))
	if got["endpoint"] != "" || got["hasToken"] != false {
		t.Errorf("cleared settings = %v", got)
	}

	rec = h.upload(t, "ktp.pdf")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("process after clear = %d, want 400", rec.Code)
	}
}

func TestProcessWithoutEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.upload(t, "ktp.pdf")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestProcessBatchKeepsUploadOrder(t *testing.T) {
	h := newHarness(t)
	h.configure(t)

	rec := h.upload(t, "a-pages-2.pdf", "b-fail.pdf", "c.pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	batch := decode[results.BatchResult](t, rec)
	if len(batch.Files) != 3 || batch.Metadata.TotalFiles != 3 {
		t.Fatalf("batch = %+v", batch)
	}
	names := []string{batch.Files[0].Filename, batch.Files[1].Filename, batch.Files[2].Filename}
	if strings.Join(names, ",") != "a-pages-2.pdf,b-fail.pdf,c.pdf" {
		t.Errorf("order = %v", names)
	}
	if batch.Files[1].Response != nil || batch.Files[1].Error == "" {
		t.Errorf("failed file = %+v", batch.Files[1])
	}

	for _, auth := range h.remote.Authorizations() {
		if auth != "Bearer secret" {
			t.Errorf("authorization = %q", auth)
		}
	}

	view := decode[review.View](t, h.do(t, "GET", "/api/review", nil))
	if view.File == nil || view.File.Hash != "hash-a-pages-2" {
		t.Fatalf("file = %+v", view.File)
	}
	if view.File.SummaryText != "1/2 pages have NIK matching the main KTP" {
		t.Errorf("summary = %q", view.File.SummaryText)
	}
	if !strings.HasPrefix(view.File.Photo, "/api/objects/") {
		t.Fatalf("photo = %q, want stashed object URL", view.File.Photo)
	}

	obj := h.do(t, "GET", view.File.Photo, nil)
	if obj.Code != http.StatusOK || !bytes.Equal(obj.Body.Bytes(), remotetest.Photo) {
		t.Errorf("object = %d %q", obj.Code, obj.Body.String())
	}
	if ct := obj.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("object content type = %s", ct)
	}

	rec = h.do(t, "POST", "/api/review/select", map[string]int{"index": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("select = %d", rec.Code)
	}
	view = decode[review.View](t, rec)
	if view.File == nil || view.File.Notice != review.NoticeMissingData {
		t.Errorf("failed file view = %+v", view.File)
	}
}

func TestRecalculateThenApprove(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	if rec := h.upload(t, "ktp.pdf"); rec.Code != http.StatusOK {
		t.Fatalf("upload = %d", rec.Code)
	}

	rec := h.do(t, "POST", "/api/review/edit", map[string]any{"index": 2, "field": "nik", "value": "3171234567890001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit = %d %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, "POST", "/api/review/decision", map[string]any{"action": "recalculate", "confirmed": false})
	if rec.Code != http.StatusBadRequest || len(h.remote.Patches()) != 0 {
		t.Fatalf("declined = %d, patches = %d", rec.Code, len(h.remote.Patches()))
	}

	rec = h.do(t, "POST", "/api/review/decision", map[string]any{"action": "recalculate", "confirmed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("recalculate = %d %s", rec.Code, rec.Body.String())
	}

	patches := h.remote.Patches()
	if len(patches) != 1 {
		t.Fatalf("patches = %d", len(patches))
	}
	sent, _ := json.Marshal(patches[0].Request)
	want := `{"assessment":"PENDING","updates":[{"pageNumber":2,"nik":{"correction":"3171234567890001"}}]}`
	if string(sent) != want {
		t.Errorf("patch body = %s\nwant %s", sent, want)
	}

	view := decode[review.View](t, h.do(t, "GET", "/api/review", nil))
	if view.File.SummaryText != "3/3 pages have NIK matching the main KTP" {
		t.Errorf("summary after recalculate = %q", view.File.SummaryText)
	}

	rec = h.do(t, "POST", "/api/review/decision", map[string]any{"action": "approve", "confirmed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve = %d %s", rec.Code, rec.Body.String())
	}
	if got := h.remote.Assessment("hash-ktp"); got != results.AssessmentApproved {
		t.Errorf("remote assessment = %s", got)
	}

	stored := h.domain.Cache.Load(context.Background())
	if stored.Files[0].Response.Data.Assessment != results.AssessmentApproved {
		t.Errorf("cached assessment = %s", stored.Files[0].Response.Data.Assessment)
	}

	rec = h.do(t, "POST", "/api/review/decision", map[string]any{"action": "reject", "confirmed": true})
	if rec.Code != http.StatusConflict {
		t.Errorf("decision on terminal file = %d, want 409", rec.Code)
	}
}

func TestDecisionServerError(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	h.upload(t, "ktp.pdf")
	h.remote.PatchStatus = http.StatusInternalServerError

	rec := h.do(t, "POST", "/api/review/decision", map[string]any{"action": "approve", "confirmed": true})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	stored := h.domain.Cache.Load(context.Background())
	if stored.Files[0].Response.Data.Assessment != results.AssessmentPending {
		t.Errorf("cache changed after failure: %s", stored.Files[0].Response.Data.Assessment)
	}

	h.remote.PatchStatus = 0
	rec = h.do(t, "POST", "/api/review/decision", map[string]any{"action": "approve", "confirmed": true})
	if rec.Code != http.StatusOK {
		t.Errorf("retry = %d", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	for i := range 12 {
		h.remote.Add("h"+string(rune('a'+i)), "doc.pdf", 2)
	}

	rec := h.do(t, "GET", "/api/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history = %d", rec.Code)
	}
	view := decode[review.HistoryView](t, rec)
	if len(view.Items) != remotetest.HistoryPageSize || view.Pagination.TotalPages != 2 || !view.Pagination.HasNext {
		t.Fatalf("page 1 = %+v", view)
	}

	view = decode[review.HistoryView](t, h.do(t, "GET", "/api/history?page=2", nil))
	if len(view.Items) != 2 || view.Pagination.HasNext {
		t.Errorf("page 2 = %+v", view)
	}

	if rec := h.do(t, "GET", "/api/history?page=3", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("page beyond total = %d, want 400", rec.Code)
	}

	rec = h.do(t, "POST", "/api/history/hb", map[string]string{"filename": "doc.pdf"})
	if rec.Code != http.StatusOK {
		t.Fatalf("open = %d %s", rec.Code, rec.Body.String())
	}
	opened := decode[review.View](t, rec)
	if opened.File == nil || opened.File.Hash != "hb" || opened.Tab != review.TabAnalysis {
		t.Errorf("opened = %+v", opened)
	}

	if rec := h.do(t, "POST", "/api/history/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing item = %d, want 404", rec.Code)
	}
}

func TestHistoryWithoutEndpointShowsError(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "GET", "/api/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	view := decode[review.HistoryView](t, rec)
	if view.Error == "" || len(view.Items) != 0 {
		t.Errorf("view = %+v, want inline error", view)
	}
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed select", "/api/review/select", "{"},
		{"unknown zoom", "/api/review/zoom", `{"action":"spin"}`},
		{"unknown field", "/api/review/edit", `{"index":0,"field":"address","value":"x"}`},
		{"unknown action", "/api/review/decision", `{"action":"archive"}`},
		{"unknown tab", "/api/review/tab", `{"tab":"settings"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestZoom(t *testing.T) {
	h := newHarness(t)

	got := decode[map[string]float64](t, h.do(t, "POST", "/api/review/zoom", map[string]string{"action": "in"}))
	if got["zoom"] != 1.5 {
		t.Errorf("zoom = %v, want 1.5", got["zoom"])
	}
}
