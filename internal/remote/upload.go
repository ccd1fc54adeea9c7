package remote

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/internal/settings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Process uploads one file for OCR and extraction.
func (c *Client) Process(ctx context.Context, s settings.Settings, file UploadFile) (*results.Response, error) {
	target, err := c.apiURL(s, "process")
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("can't add file to request: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("can't add file content to request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	var resp results.Response
	err = c.do(ctx, s, http.MethodPost, target, body, writer.FormDataContentType(), c.uploadTimeout, decodeJSON(&resp))
	if err != nil {
		return nil, fmt.Errorf("error processing %s: %w", file.Filename, err)
	}

	return &resp, nil
}

// ProcessBatch uploads every file in parallel and waits for all of them.
// Each outcome is recorded independently, in upload order; a failed file
// carries its error message and no response.
func (c *Client) ProcessBatch(ctx context.Context, s settings.Settings, files []UploadFile) results.BatchResult {
	start := time.Now()
	out := make([]results.FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, file := range files {
		out[i].Filename = file.Filename

		g.Go(func() error {
			resp, err := c.Process(gctx, s, file)
			if err != nil {
				c.logger.Warn("file processing failed", "filename", file.Filename, "error", err)
				out[i].Error = err.Error()
				return nil
			}
			out[i].Response = resp
			c.logger.Info("file processed", "filename", file.Filename, "hash", out[i].Hash())
			return nil
		})
	}

	g.Wait()

	return results.BatchResult{
		Files: out,
		Metadata: results.BatchMetadata{
			TotalFiles:  len(files),
			Duration:    time.Since(start).Round(time.Millisecond).String(),
			ProcessedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
