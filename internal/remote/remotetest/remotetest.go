// Package remotetest runs an in-process fake of the Walacakra processing API
// for tests of the client, the JSON API, and the web module.
package remotetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/pkg/pagination"
)

// Prefix is the default API path prefix served by the fake.
const Prefix = "/api/v1/walacakra"

// HistoryPageSize is the number of items per history page.
const HistoryPageSize = 10

// Photo is the body served for every document photo.
var Photo = []byte("\x89PNG\r\n\x1a\nfake-photo")

// Patch is one recorded decision.
type Patch struct {
	Hash    string
	Request remote.PatchRequest
}

// Server is a fake processing API backed by httptest.Server.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	documents map[string]*results.Response
	filenames map[string]string
	order     []string
	patches   []Patch
	auth      []string

	// PatchStatus, when non-zero, is returned by every PATCH instead of success.
	PatchStatus int
}

// NewServer starts a fake API. It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		documents: make(map[string]*results.Response),
		filenames: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+Prefix+"/process", s.process)
	mux.HandleFunc("PATCH "+Prefix+"/process/{hash}", s.patch)
	mux.HandleFunc("GET "+Prefix+"/history", s.history)
	mux.HandleFunc("GET "+Prefix+"/history/{hash}", s.detail)
	mux.HandleFunc("GET /files/{hash}/photo", s.photo)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Document builds the processed response for hash. Every page after the
// first repeats the first page's NIK except the last, which carries 999.
func Document(hash string, pages int) *results.Response {
	records := make([]results.PageRecord, pages)
	for i := range records {
		nik := "3171234567890001"
		if i > 0 && i == pages-1 {
			nik = "999"
		}
		docType := "KTP"
		if i > 0 {
			docType = "KK"
		}
		records[i] = results.PageRecord{
			PageNumber: i,
			DocType:    &results.Field{Reading: docType},
			NIK:        &results.Field{Reading: nik},
			Name:       &results.Field{Reading: "BUDI SANTOSO"},
		}
	}
	return &results.Response{
		Status: "success",
		Data: &results.ResultData{
			Assessment: results.AssessmentPending,
			Pages:      records,
		},
		Metadata: results.ResponseMeta{Document: &results.DocumentMeta{
			Hash:  hash,
			Photo: "/files/" + hash + "/photo",
			Pages: pages,
		}},
	}
}

// Add registers a processed document as if it had been uploaded.
func (s *Server) Add(hash, filename string, pages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[hash] = Document(hash, pages)
	s.filenames[hash] = filename
	s.order = append(s.order, hash)
}

// Patches returns the recorded decisions.
func (s *Server) Patches() []Patch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Patch(nil), s.patches...)
}

// Authorizations returns the Authorization header of every request.
func (s *Server) Authorizations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auth...)
}

// Assessment returns the stored assessment of hash.
func (s *Server) Assessment(hash string) results.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.documents[hash]; ok {
		return doc.Data.Assessment
	}
	return ""
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	s.mu.Unlock()
}

// process accepts one file. Filenames containing "fail" produce a 500 and
// the page count is taken from a "pages-N" marker in the filename.
func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	io.Copy(io.Discard, file)

	if strings.Contains(header.Filename, "fail") {
		http.Error(w, "extraction failed", http.StatusInternalServerError)
		return
	}

	pages := 3
	if i := strings.Index(header.Filename, "pages-"); i >= 0 {
		rest := header.Filename[i+len("pages-"):]
		if j := strings.IndexAny(rest, ".-_"); j >= 0 {
			rest = rest[:j]
		}
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			pages = n
		}
	}

	hash := "hash-" + strings.TrimSuffix(header.Filename, ".pdf")
	s.Add(hash, header.Filename, pages)

	s.mu.Lock()
	doc := s.documents[hash]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	hash := r.PathValue("hash")

	var req remote.PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patches = append(s.patches, Patch{Hash: hash, Request: req})

	if s.PatchStatus != 0 {
		http.Error(w, http.StatusText(s.PatchStatus), s.PatchStatus)
		return
	}

	doc, ok := s.documents[hash]
	if !ok {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	assessment, err := results.ParseAssessment(req.Assessment)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc.Data.Assessment = assessment

	for _, u := range req.Updates {
		if u.PageNumber < 0 || u.PageNumber >= len(doc.Data.Pages) {
			continue
		}
		page := &doc.Data.Pages[u.PageNumber]
		apply(page.DocType, u.DocType)
		apply(page.NIK, u.NIK)
		apply(page.Name, u.Name)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"assessment": strings.ToUpper(string(doc.Data.Assessment)),
			"pages":      doc.Data.Pages,
		},
	})
}

func apply(field *results.Field, c *remote.Correction) {
	if field == nil || c == nil {
		return
	}
	value := c.Correction
	corrected := true
	field.Correction = &value
	field.IsCorrected = &corrected
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := (len(s.order) + HistoryPageSize - 1) / HistoryPageSize
	meta := pagination.NewMeta(page, total)

	items := []remote.HistoryItem{}
	start := (meta.Page - 1) * HistoryPageSize
	for i := start; i < len(s.order) && i < start+HistoryPageSize; i++ {
		hash := s.order[i]
		doc := s.documents[hash]
		items = append(items, remote.HistoryItem{
			Hash:       hash,
			Filename:   s.filenames[hash],
			Pages:      len(doc.Data.Pages),
			Assessment: doc.Data.Assessment,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":     map[string]any{"items": items},
		"metadata": map[string]any{"pagination": meta},
	})
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	s.mu.Lock()
	doc, ok := s.documents[r.PathValue("hash")]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) photo(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	w.Header().Set("Content-Type", "image/png")
	w.Write(Photo)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintln(w, err)
	}
}
