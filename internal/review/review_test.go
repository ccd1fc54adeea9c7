package review_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/JaimeStill/walacakra/internal/preview"
	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/internal/review"
	"github.com/JaimeStill/walacakra/internal/settings"
	"github.com/JaimeStill/walacakra/pkg/pagination"
)

const placeholder = "/app/static/default-avatar.png"

func ptr[T any](v T) *T {
	return &v
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memCache struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	saveErr error
}

func newCache(batch results.BatchResult) *memCache {
	c := &memCache{}
	c.data, _ = json.Marshal(batch)
	return c
}

func (c *memCache) Load(context.Context) results.BatchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	var batch results.BatchResult
	if err := json.Unmarshal(c.data, &batch); err != nil {
		return results.BatchResult{Files: []results.FileResult{}}
	}
	return batch
}

func (c *memCache) Save(_ context.Context, batch results.BatchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	c.data = data
	c.saves++
	return nil
}

func (c *memCache) raw() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.data)
}

type fakeRemote struct {
	mu         sync.Mutex
	requests   []remote.PatchRequest
	hashes     []string
	patchErr   error
	patchData  *results.ResultData
	history    map[int]*remote.HistoryPage
	historyErr error
	detail     *results.Response
	detailErr  error
}

func (f *fakeRemote) FetchHistoryPage(_ context.Context, _ settings.Settings, page int) (*remote.HistoryPage, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	p, ok := f.history[page]
	if !ok {
		return nil, &remote.StatusError{Code: 404, Status: "404 Not Found"}
	}
	return p, nil
}

func (f *fakeRemote) FetchHistoryDetail(context.Context, settings.Settings, string) (*results.Response, error) {
	return f.detail, f.detailErr
}

func (f *fakeRemote) PatchAssessment(_ context.Context, _ settings.Settings, hash string, req remote.PatchRequest) (*remote.ServerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.hashes = append(f.hashes, hash)
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	data := f.patchData
	if data == nil {
		data = &results.ResultData{Assessment: results.AssessmentPending}
	}
	copied := *data
	return &remote.ServerResult{Status: "success", Data: &copied}, nil
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakePhotos struct {
	url   string
	calls int
}

func (f *fakePhotos) FetchBinary(context.Context, settings.Settings, string) string {
	f.calls++
	return f.url
}

type fakePreviews struct {
	calls int
}

func (f *fakePreviews) Load(_ context.Context, _ settings.Settings, url string) preview.Preview {
	f.calls++
	return preview.Preview{URL: "/api/objects/preview", ContentType: "application/pdf", Pages: 3}
}

func newPresenter(photos *fakePhotos, previews *fakePreviews) *review.Presenter {
	return review.NewPresenter(photos, previews, review.PresenterConfig{
		Placeholder: placeholder,
		DocTypes:    []string{"KTP", "KK", "SHM"},
	})
}

func newController(cache review.Cache, client review.Remote) *review.Controller {
	return review.New(cache, client, newPresenter(&fakePhotos{}, &fakePreviews{}), discard())
}

// threePageFile has NIKs 123, 123, 999 so two of three pages match.
func threePageFile(hash string, assessment results.Assessment) results.FileResult {
	return results.FileResult{
		Filename: "ktp-" + hash + ".pdf",
		Response: &results.Response{
			Status: "success",
			Data: &results.ResultData{
				Assessment: assessment,
				Pages: []results.PageRecord{
					{
						PageNumber: 0,
						DocType:    &results.Field{Reading: "KTP"},
						NIK:        &results.Field{Reading: "123"},
						Name:       &results.Field{Reading: "BUDI"},
					},
					{
						PageNumber: 1,
						DocType:    &results.Field{Reading: "KK"},
						NIK:        &results.Field{Reading: "123"},
						Name:       &results.Field{Reading: "BUDI"},
					},
					{
						PageNumber: 2,
						DocType:    &results.Field{Reading: "SHM"},
						NIK:        &results.Field{Reading: "999"},
						Name:       &results.Field{Reading: "SITI"},
					},
				},
			},
			Metadata: results.ResponseMeta{Document: &results.DocumentMeta{
				Hash:  hash,
				URL:   "/storage/" + hash + ".pdf",
				Photo: "/storage/" + hash + ".jpg",
				Pages: 3,
			}},
		},
	}
}

func batchOf(files ...results.FileResult) results.BatchResult {
	return results.BatchResult{
		Files:    files,
		Metadata: results.BatchMetadata{TotalFiles: len(files)},
	}
}

func historyPage(page, total int, hashes ...string) *remote.HistoryPage {
	items := make([]remote.HistoryItem, len(hashes))
	for i, h := range hashes {
		items[i] = remote.HistoryItem{Hash: h, Filename: h + ".pdf", Assessment: results.AssessmentPending}
	}
	return &remote.HistoryPage{Items: items, Pagination: pagination.NewMeta(page, total)}
}

var errServer = errors.New("500 Internal Server Error")
