package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/bizboard/internal/domain/model"
)

// OverallDependencies defines the read operations.
type OverallDependencies interface {
	Overall(ctx context.Context, d model.Dataset) (model.Document, bool, error)
	RunLog(ctx context.Context, runID string) (model.Document, bool, error)
}

// OverallHandler serves summaries and run logs.
type OverallHandler struct {
	deps OverallDependencies
}

// NewOverallHandler creates a new read handler.
func NewOverallHandler(deps OverallDependencies) *OverallHandler {
	return &OverallHandler{deps: deps}
}

// HandleGetOverall handles GET /overall/{dataset}.
func (h *OverallHandler) HandleGetOverall(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_overall"
	d, err := model.ParseDataset(r.PathValue("dataset"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_dataset", WrapKind(op, ErrNotFound, err))
		return
	}
	doc, ok, err := h.deps.Overall(r.Context(), d)
	h.write(w, op, doc, ok, err)
}

// HandleGetRun handles GET /runs/{runID}.
func (h *OverallHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run"
	id := strings.TrimSpace(r.PathValue("runID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	doc, ok, err := h.deps.RunLog(r.Context(), id)
	h.write(w, op, doc, ok, err)
}

func (h *OverallHandler) write(w http.ResponseWriter, op string, doc model.Document, ok bool, err error) {
	switch {
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	case !ok:
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
	default:
		writeJSON(w, http.StatusOK, doc)
	}
}
