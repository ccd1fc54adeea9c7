package review

import (
	"context"
	"fmt"

	"github.com/JaimeStill/walacakra/internal/results"
)

// Replace stores batch as the new review set and starts a fresh session on
// its first file. Used after an upload batch completes.
func (c *Controller) Replace(ctx context.Context, batch results.BatchResult) error {
	if err := c.cache.Save(ctx, batch); err != nil {
		return fmt.Errorf("replace batch: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.resetFile(0)
	c.session.Tab = TabAnalysis

	c.logger.Info("batch replaced", "files", len(batch.Files))
	return nil
}
