// Package preview loads a processed document for display next to the
// review form and reports its page count.
package preview

import (
	"bytes"
	"context"
	"log/slog"
	"mime"
	"net/http"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/internal/settings"
)

// Downloader fetches a remote resource.
type Downloader interface {
	Download(ctx context.Context, s settings.Settings, path string) (*remote.Binary, error)
}

// Preview is a locally addressable copy of a document.
type Preview struct {
	URL         string `json:"url,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Available reports whether the document could be loaded.
func (p Preview) Available() bool {
	return p.URL != ""
}

// PDF reports whether the preview is a PDF document.
func (p Preview) PDF() bool {
	return p.ContentType == "application/pdf"
}

// Loader downloads documents and stashes them for display.
type Loader struct {
	client Downloader
	stash  remote.Stasher
	logger *slog.Logger
}

// New creates a Loader.
func New(client Downloader, stash remote.Stasher, logger *slog.Logger) *Loader {
	return &Loader{
		client: client,
		stash:  stash,
		logger: logger.With("system", "preview"),
	}
}

// Load fetches the document at url. Failures produce a Preview carrying a
// message and no URL.
func (l *Loader) Load(ctx context.Context, s settings.Settings, url string) Preview {
	if url == "" {
		return Preview{Message: "No document available for preview."}
	}

	bin, err := l.client.Download(ctx, s, url)
	if err != nil {
		l.logger.Warn("document download failed", "url", url, "error", err)
		return Preview{Message: "Document preview could not be loaded."}
	}

	contentType := DetectContentType(bin.ContentType, bin.Data)

	local, err := l.stash.Put(ctx, bin.Data, contentType)
	if err != nil {
		l.logger.Warn("document stash failed", "url", url, "error", err)
		return Preview{Message: "Document preview could not be loaded."}
	}

	return Preview{
		URL:         local,
		ContentType: contentType,
		Pages:       PageCount(l.logger, bin.Data, contentType),
	}
}

// DetectContentType returns the media type from header, sniffing data when
// the header is empty or generic.
func DetectContentType(header string, data []byte) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

// PageCount returns the number of pages of a PDF, or 0 for other content
// or an unreadable document.
func PageCount(logger *slog.Logger, data []byte, contentType string) int {
	if contentType != "application/pdf" {
		return 0
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return 0
	}

	return count
}
