package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/pipeline/comparison"
	"github.com/turtacn/tender-intel/pkg/errors"
)

// Comparator is the subset of the comparison agent the HTTP layer depends on.
type Comparator interface {
	Compare(comparisonID string, level document.AnalysisLevel, views []comparison.DocumentView) (*document.Comparison, error)
}

// ComparisonHandler serves multi-document comparison endpoints.
type ComparisonHandler struct {
	repo       document.Repository
	comparator Comparator
	logger     logging.Logger
}

// NewComparisonHandler constructs a ComparisonHandler.
func NewComparisonHandler(repo document.Repository, comparator Comparator, logger logging.Logger) *ComparisonHandler {
	return &ComparisonHandler{repo: repo, comparator: comparator, logger: logger}
}

type compareRequest struct {
	DocIDs        []string `json:"doc_ids"`
	AnalysisLevel string   `json:"analysis_level"`
}

// UploadMultiple handles POST /comparison/upload-multiple: compares N
// already-analyzed documents at the same analysis level.
func (h *ComparisonHandler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.InvalidParam("request body is not valid JSON"))
		return
	}
	if len(req.DocIDs) < 2 {
		writeAppError(w, errors.InvalidParam("doc_ids must contain at least two documents"))
		return
	}

	level := document.AnalysisLevel(req.AnalysisLevel)
	if level == "" {
		level = document.LevelBasic
	}

	views := make([]comparison.DocumentView, 0, len(req.DocIDs))
	for _, docID := range req.DocIDs {
		view, err := comparison.BuildView(r.Context(), h.repo, docID, level)
		if err != nil {
			writeAppError(w, err)
			return
		}
		views = append(views, view)
	}

	comparisonID := comparisonFingerprint(req.DocIDs, level)
	cmp, err := h.comparator.Compare(comparisonID, level, views)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if err := h.repo.SaveComparison(r.Context(), cmp); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cmp)
}

// GetComparison handles GET /comparison/{comparisonID}.
func (h *ComparisonHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, cmp)
}

func comparisonFingerprint(docIDs []string, level document.AnalysisLevel) string {
	sorted := make([]string, len(docIDs))
	copy(sorted, docIDs)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, ",") + "|" + string(level)))
	return hex.EncodeToString(sum[:])
}
