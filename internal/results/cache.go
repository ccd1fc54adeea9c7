package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/walacakra/pkg/kv"
)

// ResultsKey is the store key holding the batch under review.
const ResultsKey = "walacakra_results"

// Cache owns the serialized BatchResult. Writes replace the whole record.
type Cache struct {
	store  kv.Store
	logger *slog.Logger
}

// NewCache creates a Cache over the given key/value store.
func NewCache(store kv.Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.With("system", "results"),
	}
}

// Load returns the stored batch. A missing or unreadable record yields an
// empty batch so callers can show a "nothing to review" notice.
func (c *Cache) Load(ctx context.Context) BatchResult {
	data, err := c.store.Get(ctx, ResultsKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			c.logger.Warn("load results failed", "error", err)
		}
		return emptyBatch()
	}

	batch, err := decodeBatch(data)
	if err != nil {
		c.logger.Warn("stored results unreadable", "error", err)
		return emptyBatch()
	}

	return batch
}

// Save serializes the whole batch and overwrites the stored record.
func (c *Cache) Save(ctx context.Context, batch BatchResult) error {
	if batch.Files == nil {
		batch.Files = []FileResult{}
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	if err := c.store.Put(ctx, ResultsKey, data); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	c.logger.Info("results saved", "files", len(batch.Files))
	return nil
}

// decodeBatch accepts the batch object and the bare file array written by
// earlier upload pages.
func decodeBatch(data []byte) (BatchResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return BatchResult{}, fmt.Errorf("empty record")
	}

	if trimmed[0] == '[' {
		var files []FileResult
		if err := json.Unmarshal(trimmed, &files); err != nil {
			return BatchResult{}, err
		}
		return BatchResult{
			Files:    files,
			Metadata: BatchMetadata{TotalFiles: len(files)},
		}, nil
	}

	var batch BatchResult
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return BatchResult{}, err
	}
	if batch.Files == nil {
		batch.Files = []FileResult{}
	}
	return batch, nil
}

func emptyBatch() BatchResult {
	return BatchResult{Files: []FileResult{}}
}
