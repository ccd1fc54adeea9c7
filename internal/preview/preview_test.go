package preview_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/walacakra/internal/preview"
	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/internal/settings"
)

type mockDownloader struct {
	bin *remote.Binary
	err error
}

func (m *mockDownloader) Download(context.Context, settings.Settings, string) (*remote.Binary, error) {
	return m.bin, m.err
}

type mockStash struct {
	err error
}

func (m *mockStash) Put(context.Context, []byte, string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "/api/objects/doc", nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// onePagePDF builds a minimal single-page PDF with a correct xref table.
func onePagePDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func TestLoadPDF(t *testing.T) {
	loader := preview.New(
		&mockDownloader{bin: &remote.Binary{Data: onePagePDF(), ContentType: "application/pdf"}},
		&mockStash{},
		discard(),
	)

	p := loader.Load(context.Background(), settings.Settings{}, "https://api.example.com/doc.pdf")
	if !p.Available() {
		t.Fatalf("preview unavailable: %s", p.Message)
	}
	if !p.PDF() {
		t.Errorf("content type = %q, want application/pdf", p.ContentType)
	}
	if p.Pages != 1 {
		t.Errorf("pages = %d, want 1", p.Pages)
	}
}

func TestLoadImage(t *testing.T) {
	loader := preview.New(
		&mockDownloader{bin: &remote.Binary{Data: []byte("\x89PNG\r\n\x1a\n0000")}},
		&mockStash{},
		discard(),
	)

	p := loader.Load(context.Background(), settings.Settings{}, "/doc.png")
	if p.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", p.ContentType)
	}
	if p.Pages != 0 {
		t.Errorf("pages = %d, want 0", p.Pages)
	}
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name  string
		dl    *mockDownloader
		stash *mockStash
		url   string
	}{
		{"no url", &mockDownloader{}, &mockStash{}, ""},
		{"download failure", &mockDownloader{err: errors.New("timeout")}, &mockStash{}, "/doc.pdf"},
		{"stash failure", &mockDownloader{bin: &remote.Binary{Data: []byte("x")}}, &mockStash{err: errors.New("full")}, "/doc.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := preview.New(tt.dl, tt.stash, discard()).Load(context.Background(), settings.Settings{}, tt.url)
			if p.Available() {
				t.Error("preview should be unavailable")
			}
			if p.Message == "" {
				t.Error("preview should carry a message")
			}
		})
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name   string
		header string
		data   []byte
		want   string
	}{
		{"header wins", "application/pdf; charset=binary", []byte("hello"), "application/pdf"},
		{"octet-stream sniffed", "application/octet-stream", []byte("%PDF-1.7"), "application/pdf"},
		{"empty header sniffed", "", []byte("\xff\xd8\xff\xe0"), "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preview.DetectContentType(tt.header, tt.data); got != tt.want {
				t.Errorf("DetectContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageCountNonPDF(t *testing.T) {
	if got := preview.PageCount(discard(), []byte("%PDF-broken"), "application/pdf"); got != 0 {
		t.Errorf("broken pdf pages = %d, want 0", got)
	}
	if got := preview.PageCount(discard(), onePagePDF(), "image/png"); got != 0 {
		t.Errorf("non-pdf pages = %d, want 0", got)
	}
}
