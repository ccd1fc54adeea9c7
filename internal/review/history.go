package review

import (
	"context"
	"fmt"

	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/internal/settings"
	"github.com/JaimeStill/walacakra/pkg/pagination"
)

// SwitchTab activates tab. Entering the history tab fetches page 1; a fetch
// failure is kept in the history view, not returned.
func (c *Controller) SwitchTab(ctx context.Context, s settings.Settings, tab Tab) error {
	if _, err := ParseTab(string(tab)); err != nil {
		return err
	}

	c.mu.Lock()
	c.session.Tab = tab
	c.mu.Unlock()

	if tab == TabHistory {
		c.loadHistory(ctx, s, 1)
	}
	return nil
}

// HistoryPage loads page n of the history listing, bounded by the last
// known page count.
func (c *Controller) HistoryPage(ctx context.Context, s settings.Settings, page int) error {
	c.mu.Lock()
	meta := c.session.History.Pagination
	c.session.Tab = TabHistory
	c.mu.Unlock()

	if !meta.Contains(page) {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}

	c.loadHistory(ctx, s, page)
	return nil
}

// OpenHistoryItem loads a processed document by hash as a one-file batch,
// saves it, selects it, and returns to the analysis tab.
func (c *Controller) OpenHistoryItem(ctx context.Context, s settings.Settings, hash, filename string) error {
	if hash == "" {
		return ErrMissingHash
	}

	resp, err := c.remote.FetchHistoryDetail(ctx, s, hash)
	if err != nil {
		c.logger.Warn("history detail failed", "hash", hash, "error", err)
		c.mu.Lock()
		c.session.History.Error = fmt.Sprintf("Failed to load history item: %v", err)
		c.mu.Unlock()
		return fmt.Errorf("open history item %s: %w", hash, err)
	}

	if filename == "" {
		filename = hash
	}

	batch := results.BatchResult{
		Files: []results.FileResult{{Filename: filename, Response: resp}},
		Metadata: results.BatchMetadata{
			TotalFiles: 1,
		},
	}
	if doc := resp.Metadata.Document; doc != nil {
		batch.Metadata.ProcessedAt = doc.ProcessedAt
	}

	if err := c.cache.Save(ctx, batch); err != nil {
		return fmt.Errorf("open history item %s: %w", hash, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.resetFile(0)
	c.session.Tab = TabAnalysis
	c.session.History.Error = ""
	return nil
}

func (c *Controller) loadHistory(ctx context.Context, s settings.Settings, page int) {
	result, err := c.remote.FetchHistoryPage(ctx, s, page)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.logger.Warn("history fetch failed", "page", page, "error", err)
		c.session.History.Items = nil
		c.session.History.Error = fmt.Sprintf("Failed to load history: %v", err)
		if c.session.History.Pagination.TotalPages == 0 {
			c.session.History.Pagination = pagination.NewMeta(1, 1)
		}
		return
	}

	c.session.History = HistoryView{
		Items:      result.Items,
		Pagination: result.Pagination,
	}
}
