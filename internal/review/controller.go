// Package review implements the reviewer workflow over the cached batch:
// file selection, page inspection and editing, history navigation, and the
// approve/reject/recalculate decisions submitted to the processing API.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/internal/settings"
)

// Cache holds the batch under review.
type Cache interface {
	Load(ctx context.Context) results.BatchResult
	Save(ctx context.Context, batch results.BatchResult) error
}

// Remote is the subset of the processing API used by the controller.
type Remote interface {
	FetchHistoryPage(ctx context.Context, s settings.Settings, page int) (*remote.HistoryPage, error)
	FetchHistoryDetail(ctx context.Context, s settings.Settings, hash string) (*results.Response, error)
	PatchAssessment(ctx context.Context, s settings.Settings, hash string, req remote.PatchRequest) (*remote.ServerResult, error)
}

// FileOption is one entry of the file selector.
type FileOption struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Selected bool   `json:"selected"`
	Failed   bool   `json:"failed"`
}

// View is the rendered review page.
type View struct {
	Files      []FileOption          `json:"files"`
	Notice     string                `json:"notice,omitempty"`
	StatusText string                `json:"statusText,omitempty"`
	Metadata   results.BatchMetadata `json:"metadata"`
	File       *FileSummary          `json:"file,omitempty"`
	Tab        Tab                   `json:"tab"`
	Zoom       float64               `json:"zoom"`
	History    HistoryView           `json:"history"`
	InFlight   bool                  `json:"inFlight"`
}

// Controller owns the single review session. Its methods are safe for
// concurrent use.
type Controller struct {
	mu        sync.Mutex
	session   Session
	cache     Cache
	remote    Remote
	presenter *Presenter
	logger    *slog.Logger
}

// New creates a Controller with a fresh session.
func New(cache Cache, client Remote, presenter *Presenter, logger *slog.Logger) *Controller {
	return &Controller{
		session:   newSession(),
		cache:     cache,
		remote:    client,
		presenter: presenter,
		logger:    logger.With("system", "review"),
	}
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// View loads the cached batch and renders the selected file.
func (c *Controller) View(ctx context.Context, s settings.Settings) View {
	batch := c.cache.Load(ctx)

	c.mu.Lock()
	if c.session.Selected >= len(batch.Files) {
		c.session.resetFile(0)
	}
	session := c.session.clone()
	c.mu.Unlock()

	view := View{
		Files:    make([]FileOption, len(batch.Files)),
		Metadata: batch.Metadata,
		Tab:      session.Tab,
		Zoom:     session.Zoom,
		History:  session.History,
		InFlight: session.InFlight,
	}

	for i, f := range batch.Files {
		view.Files[i] = FileOption{
			Index:    i,
			Filename: f.Filename,
			Selected: i == session.Selected,
			Failed:   f.Response == nil,
		}
	}

	if batch.Empty() {
		view.Notice = NoticeNoFile
		return view
	}

	view.StatusText = statusText(len(batch.Files))

	summary := c.presenter.RenderFileSummary(ctx, s, batch.Files[session.Selected])
	summary.Index = session.Selected
	overlayDrafts(&summary, session)
	view.File = &summary

	return view
}

// Select makes the file at index the current one and discards drafts.
func (c *Controller) Select(ctx context.Context, index int) error {
	batch := c.cache.Load(ctx)
	if batch.Empty() {
		return ErrNoFile
	}
	if index < 0 || index >= len(batch.Files) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.resetFile(index)
	c.session.Tab = TabAnalysis
	return nil
}

// ToggleExpand opens or closes the row of the page at index.
func (c *Controller) ToggleExpand(ctx context.Context, index int) error {
	file, _, err := c.current(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(file.Response.Data.Pages) {
		return fmt.Errorf("%w: %d", ErrInvalidPage, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Expanded[index] = !c.session.Expanded[index]
	return nil
}

// Edit records a draft value for a field of the page at index.
func (c *Controller) Edit(ctx context.Context, index int, field Field, value string) error {
	if _, err := ParseField(string(field)); err != nil {
		return err
	}

	file, _, err := c.current(ctx)
	if err != nil {
		return err
	}
	if file.Response.Data.Assessment.Terminal() {
		return ErrTerminal
	}
	if index < 0 || index >= len(file.Response.Data.Pages) {
		return fmt.Errorf("%w: %d", ErrInvalidPage, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.session.Drafts[index]
	if !ok {
		d = &Draft{}
		c.session.Drafts[index] = d
	}
	d.set(field, strings.TrimSpace(value))
	return nil
}

// Zoom adjusts the preview zoom and returns the new level.
func (c *Controller) Zoom(action ZoomAction) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch action {
	case ZoomIn:
		c.session.Zoom = min(c.session.Zoom+ZoomStep, ZoomMax)
	case ZoomOut:
		c.session.Zoom = max(c.session.Zoom-ZoomStep, ZoomMin)
	case ZoomReset:
		c.session.Zoom = ZoomDefault
	}
	return c.session.Zoom
}

// Decide confirms and submits action for the selected file. On success the
// server's data replaces the cached data and drafts are cleared. On any
// failure the cache is left untouched and the action may be retried.
func (c *Controller) Decide(ctx context.Context, s settings.Settings, action Action, confirm Confirmer) (*Outcome, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}

	file, index, err := c.current(ctx)
	if err != nil {
		return nil, err
	}

	hash := file.Hash()
	if hash == "" {
		c.logger.Warn("decision refused without hash", "filename", file.Filename, "action", action)
		return nil, ErrMissingHash
	}
	if file.Response.Data.Assessment.Terminal() {
		return nil, ErrTerminal
	}

	c.mu.Lock()
	if c.session.InFlight {
		c.mu.Unlock()
		return nil, ErrInFlight
	}
	c.session.InFlight = true
	drafts := c.session.clone().Drafts
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.session.InFlight = false
		c.mu.Unlock()
	}()

	if confirm == nil || !confirm.Confirm(ctx, action.Prompt()) {
		return nil, ErrDeclined
	}

	assessment := action.Assessment()
	updates := []remote.Update{}
	if action == ActionRecalculate {
		updates = BuildUpdates(file.Response.Data.Pages, drafts)
	}

	result, err := c.remote.PatchAssessment(ctx, s, hash, remote.NewPatchRequest(assessment, updates))
	if err != nil {
		c.logger.Error("decision failed", "hash", hash, "action", action, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrDecisionFailed, err)
	}
	if result == nil || result.Data == nil {
		return nil, fmt.Errorf("%w: %w", ErrDecisionFailed, remote.ErrInvalidResponse)
	}

	batch := c.cache.Load(ctx)
	target := locate(batch, index, hash)
	if target < 0 {
		return nil, fmt.Errorf("%w: file %s left the cache", ErrDecisionFailed, hash)
	}

	applyResult(&batch.Files[target], result, assessment)
	if err := c.cache.Save(ctx, batch); err != nil {
		return nil, fmt.Errorf("save decision: %w", err)
	}

	c.mu.Lock()
	c.session.Drafts = make(map[int]*Draft)
	c.mu.Unlock()

	c.logger.Info("decision applied", "hash", hash, "assessment", assessment, "updates", len(updates))

	return &Outcome{
		Filename:   file.Filename,
		Hash:       hash,
		Assessment: assessment,
		Updates:    len(updates),
	}, nil
}

func (c *Controller) current(ctx context.Context) (results.FileResult, int, error) {
	batch := c.cache.Load(ctx)
	if batch.Empty() {
		return results.FileResult{}, 0, ErrNoFile
	}

	c.mu.Lock()
	index := c.session.Selected
	c.mu.Unlock()

	if index >= len(batch.Files) {
		index = 0
	}

	file := batch.Files[index]
	if !file.Reviewable() {
		return file, index, ErrMissingData
	}
	return file, index, nil
}

func locate(batch results.BatchResult, index int, hash string) int {
	if index < len(batch.Files) && batch.Files[index].Hash() == hash && batch.Files[index].Reviewable() {
		return index
	}
	for i, f := range batch.Files {
		if f.Hash() == hash && f.Reviewable() {
			return i
		}
	}
	return -1
}

func overlayDrafts(summary *FileSummary, session Session) {
	for i := range summary.Rows {
		row := &summary.Rows[i]
		row.Expanded = session.Expanded[row.Index]

		d, ok := session.Drafts[row.Index]
		if !ok {
			continue
		}
		if d.DocType != nil && *d.DocType != row.DocType {
			row.DocType = *d.DocType
			row.DocTypeOptions = docTypeOptions(row.DocTypeOptions, row.DocType)
			row.Edited = true
		}
		if d.NIK != nil && *d.NIK != row.NIK {
			row.NIK = *d.NIK
			row.Edited = true
		}
		if d.Name != nil && *d.Name != row.Name {
			row.Name = *d.Name
			row.Edited = true
		}
	}
}

func statusText(n int) string {
	if n == 1 {
		return "Processed 1 file successfully"
	}
	return fmt.Sprintf("Processed %d files successfully", n)
}

// IsNotice reports whether err is a non-fatal condition shown as a notice
// rather than an error page.
func IsNotice(err error) bool {
	return errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrMissingData) ||
		errors.Is(err, ErrDeclined)
}
