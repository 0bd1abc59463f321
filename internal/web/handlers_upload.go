package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/tabconv/internal/core"
	"github.com/JonMunkholm/tabconv/internal/logging"
	"github.com/JonMunkholm/tabconv/internal/web/templates"
)

// multipartMemory is how much of a batch is buffered in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

// handleUpload accepts one or more files in the multipart field "files"
// and processes them as one batch. Per-file failures are part of a 200
// response; only batch-level problems are errors.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrFileTooLarge, err))
			return
		}
		if errors.Is(err, http.ErrNotMultipart) {
			s.respondError(w, r, core.ErrNoFiles)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrMalformed, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, r, core.ErrNoFiles)
		return
	}
	if len(headers) > s.cfg.Upload.MaxFiles {
		s.respondError(w, r, fmt.Errorf("%w: %d files, limit %d", core.ErrTooManyFiles, len(headers), s.cfg.Upload.MaxFiles))
		return
	}

	files := make([]core.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		data, err := s.readPart(fh)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		files = append(files, core.UploadedFile{Name: fh.Filename, Data: data})
	}

	ctx, cancel := context.WithTimeout(withRequestMeta(r.Context(), r), s.cfg.Upload.Timeout)
	defer cancel()

	batch, err := s.service.ProcessBatch(ctx, files)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(ctx).Info("batch uploaded",
		"batch_id", batch.BatchID,
		"files", len(batch.Files),
		"failed", batch.Failed(),
	)

	if !isHTMX(r) {
		writeJSON(w, r, http.StatusOK, batch)
		return
	}

	views := make(map[string]templates.SessionView, len(batch.Files))
	for _, f := range batch.Files {
		if f.Err != nil {
			continue
		}
		if v, err := s.sessionView(f.SessionID, nil); err == nil {
			views[f.SessionID] = v
		}
	}
	renderHTML(w, r, templates.BatchResult(batch, views))
}

// readPart reads one uploaded file. Reading stops one byte past the size
// limit so the service can report the file as too large without buffering
// all of it.
func (s *Server) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.Upload.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}
