package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/okian/bizboard/internal/adapters/decoder"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/internal/ingest"
)

// multipartMemory is how much of an upload is buffered in memory before spilling to disk.
const multipartMemory = 8 << 20

// IngestDependencies defines what the upload handler needs.
type IngestDependencies interface {
	Ingest(ctx context.Context, t ingest.Trigger) (*ingest.Report, error)
}

// IngestHandler handles workbook uploads.
type IngestHandler struct {
	deps       IngestDependencies
	maxBytes   int64
	runTimeout time.Duration
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(deps IngestDependencies, maxBytes int64, runTimeout time.Duration) *IngestHandler {
	return &IngestHandler{deps: deps, maxBytes: maxBytes, runTimeout: runTimeout}
}

// HandleIngest handles POST /ingest/{dataset} with the workbook in the multipart field "file".
// It answers 200 with the report for finished and skipped runs, 422 when the workbook could
// not be decoded and 500 for other failed runs.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest"
	d, err := model.ParseDataset(r.PathValue("dataset"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_dataset", WrapKind(op, ErrNotFound, err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// A started run is not cancelled when the client disconnects.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.runTimeout)
	defer cancel()

	rep, err := h.deps.Ingest(ctx, ingest.Trigger{
		Dataset: d,
		Name:    hdr.Filename,
		Size:    hdr.Size,
		Source:  ingest.SourceHTTP,
		Open: func(context.Context) (io.ReadCloser, error) {
			return file, nil
		},
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rep)
	case rep == nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	case errors.Is(err, decoder.ErrDecodeFatal):
		writeJSON(w, http.StatusUnprocessableEntity, rep)
	default:
		writeJSON(w, http.StatusInternalServerError, rep)
	}
}
