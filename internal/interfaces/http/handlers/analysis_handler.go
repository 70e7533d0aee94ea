package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/pipeline/extractor"
	"github.com/turtacn/tender-intel/pkg/errors"
)

// AnalysisService is the subset of the orchestrator the HTTP layer depends
// on: submitting a run and polling its status.
type AnalysisService interface {
	Run(ctx context.Context, doc *document.Document, raw []byte, artifactType extractor.ArtifactType, docType string, level document.AnalysisLevel, forceRebuild bool) (*document.AnalysisArtifact, error)
	GetStatus(ctx context.Context, runID string) (*document.RunStatus, error)
}

// AnalysisHandler serves document ingest and run-status endpoints.
type AnalysisHandler struct {
	service AnalysisService
	repo    document.Repository
	logger  logging.Logger
}

// NewAnalysisHandler constructs an AnalysisHandler.
func NewAnalysisHandler(service AnalysisService, repo document.Repository, logger logging.Logger) *AnalysisHandler {
	return &AnalysisHandler{service: service, repo: repo, logger: logger}
}

// knownProviders enumerates the embedding provider names this handler will
// accept in the optional "provider" field. The value is only checked
// against this set and is not forwarded to the service; anything else is
// rejected.
var knownProviders = map[string]bool{
	"":        true,
	"default": true,
}

// uploadRequest is the body of POST /analysis/upload.
type uploadRequest struct {
	DeclaredType  string `json:"declared_type"`
	Text          string `json:"text"`
	AnalysisLevel string `json:"analysis_level"`
	Provider      string `json:"provider"`
	ForceRebuild  bool   `json:"force_rebuild"`
}

type uploadResponse struct {
	RunID  string `json:"run_id"`
	DocID  string `json:"doc_id"`
	Status string `json:"status"`
}

// Upload handles POST /analysis/upload: accepts one document and dispatches
// it through the full pipeline in the background, returning immediately with
// the runID/docID the caller polls via GetStatus.
func (h *AnalysisHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.InvalidParam("request body is not valid JSON"))
		return
	}
	if strings.TrimSpace(req.DeclaredType) == "" {
		writeAppError(w, errors.InvalidParam("declared_type is required"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeAppError(w, errors.InvalidParam("text is required"))
		return
	}
	if !knownProviders[req.Provider] {
		writeAppError(w, errors.InvalidParam("unknown provider: "+req.Provider))
		return
	}

	level := document.AnalysisLevel(req.AnalysisLevel)
	if level == "" {
		level = document.LevelBasic
	}
	if level != document.LevelBasic && level != document.LevelComprehensive {
		writeAppError(w, errors.InvalidParam("analysis_level must be basic or comprehensive"))
		return
	}

	doc := &document.Document{
		DocID:        fingerprint(req.DeclaredType, req.Text),
		DeclaredType: req.DeclaredType,
		DetectedType: req.DeclaredType,
		CreatedAt:    time.Now(),
	}
	runID := document.RunID(doc.DocID, level)

	if err := h.repo.SaveRunStatus(r.Context(), &document.RunStatus{
		RunID:         runID,
		Stage:         document.StageIdle,
		Progress:      0,
		OverallStatus: document.OverallSuccess,
	}); err != nil {
		writeAppError(w, err)
		return
	}

	go h.runInBackground(doc, []byte(req.Text), req.DeclaredType, level, req.ForceRebuild)

	writeJSON(w, http.StatusAccepted, uploadResponse{
		RunID:  runID,
		DocID:  doc.DocID,
		Status: "processing",
	})
}

// runInBackground drives the pipeline after Upload has already responded to
// the caller; the request context is gone by the time this runs, so it uses
// a fresh background context and only logs failures — the caller learns the
// outcome by polling GetStatus.
func (h *AnalysisHandler) runInBackground(doc *document.Document, raw []byte, declaredType string, level document.AnalysisLevel, forceRebuild bool) {
	_, err := h.service.Run(context.Background(), doc, raw, extractor.TypeTXT, declaredType, level, forceRebuild)
	if err != nil && h.logger != nil {
		h.logger.Error("background analysis run failed",
			logging.RunID(document.RunID(doc.DocID, level)),
			logging.DocID(doc.DocID),
			logging.Err(err))
	}
}

// GetStatus handles GET /analysis/status/{runID}.
func (h *AnalysisHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	status, err := h.service.GetStatus(r.Context(), runID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GetArtifact handles GET /analysis/{docID}: returns the latest artifact for
// docID at the requested (or default basic) analysis level.
func (h *AnalysisHandler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	level := document.AnalysisLevel(r.URL.Query().Get("analysis_level"))
	if level == "" {
		level = document.LevelBasic
	}

	runID := document.RunID(docID, level)
	artifact, err := h.repo.GetArtifact(r.Context(), runID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if artifact == nil {
		writeAppError(w, errors.NotFound("no analysis artifact found for "+runID))
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

func fingerprint(declaredType, text string) string {
	sum := sha256.Sum256([]byte(declaredType + "\x00" + strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
