package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/JaimeStill/walacakra/internal/preview"
	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/pkg/formatting"
	"github.com/JaimeStill/walacakra/pkg/handlers"
	"github.com/JaimeStill/walacakra/pkg/routes"
)

// UploadField is the multipart field carrying the documents to process.
const UploadField = "files"

var (
	ErrFileTooLarge = errors.New("upload exceeds maximum size")
	ErrNoFiles      = errors.New("no files selected")
)

type processHandler struct {
	domain        *Domain
	logger        *slog.Logger
	maxUploadSize int64
}

func newProcessHandler(domain *Domain, logger *slog.Logger, maxUploadSize int64) *processHandler {
	return &processHandler{
		domain:        domain,
		logger:        logger.With("handler", "process"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *processHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/process",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.process},
		},
	}
}

// process uploads every file to the processing API, then replaces the
// review batch with the outcomes in upload order.
func (h *processHandler) process(w http.ResponseWriter, r *http.Request) {
	files, err := ReadUploads(r, h.maxUploadSize)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	ctx := r.Context()
	s := h.domain.Settings.Load(ctx, r)
	if _, err := s.BaseURL(); err != nil {
		handlers.RespondError(w, h.logger, remote.MapHTTPStatus(err), err)
		return
	}

	batch := h.domain.Client.ProcessBatch(ctx, s, files)
	if err := h.domain.Review.Replace(ctx, batch); err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, batch)
}

// ReadUploads parses the multipart request and reads every file in the
// UploadField field, in form order.
func ReadUploads(r *http.Request, maxSize int64) ([]remote.UploadFile, error) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, fmt.Errorf("%w (limit %s)", ErrFileTooLarge, formatting.FormatBytes(maxSize, 0))
		}
		return nil, fmt.Errorf("parse upload: %w", err)
	}

	headers := r.MultipartForm.File[UploadField]
	if len(headers) == 0 {
		return nil, ErrNoFiles
	}

	files := make([]remote.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, remote.UploadFile{
			Filename:    fh.Filename,
			Data:        data,
			ContentType: preview.DetectContentType(fh.Header.Get("Content-Type"), data),
		})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
