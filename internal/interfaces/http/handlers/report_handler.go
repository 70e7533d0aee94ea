package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/pipeline/report"
	"github.com/turtacn/tender-intel/pkg/errors"
)

// ReportHandler serves report-assembly endpoints over completed runs and
// comparisons.
type ReportHandler struct {
	repo      document.Repository
	assembler *report.Assembler
	logger    logging.Logger
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(repo document.Repository, assembler *report.Assembler, logger logging.Logger) *ReportHandler {
	return &ReportHandler{repo: repo, assembler: assembler, logger: logger}
}

// ForRun handles POST /reports/runs/{runID}: assembles a render-ready bundle
// for one completed analysis run.
func (h *ReportHandler) ForRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	artifact, err := h.repo.GetArtifact(r.Context(), runID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if artifact == nil {
		writeAppError(w, errors.NotFound("no analysis artifact found for "+runID))
		return
	}
	writeJSON(w, http.StatusOK, h.assembler.AssembleArtifact(artifact))
}

// ForComparison handles POST /reports/comparisons/{comparisonID}: assembles
// a render-ready bundle for a multi-document comparison.
func (h *ReportHandler) ForComparison(w http.ResponseWriter, r *http.Request) {
	comparisonID := chi.URLParam(r, "comparisonID")
	cmp, err := h.repo.GetComparison(r.Context(), comparisonID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if cmp == nil {
		writeAppError(w, errors.NotFound("no comparison found for "+comparisonID))
		return
	}
	writeJSON(w, http.StatusOK, h.assembler.AssembleComparison(cmp))
}
