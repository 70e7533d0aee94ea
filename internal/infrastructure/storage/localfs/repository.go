// Package localfs implements document.Repository as JSON files on disk,
// following the persisted layout named in the external interface contract:
// artifacts/{runID}.json, comparisons/{comparisonID}.json, plus one
// directory per remaining record kind. It backs the standalone CLI and any
// deployment that runs without Postgres.
package localfs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/pkg/errors"
)

// Repository is a filesystem-backed document.Repository rooted at a single
// base directory. It does not lock across processes; concurrent writers
// within one process are safe because the orchestrator serializes writes
// per runID.
type Repository struct {
	root string
}

// New creates a Repository rooted at dir, creating dir if it does not exist.
func New(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "create repository root")
	}
	return &Repository{root: dir}, nil
}

func (r *Repository) path(kind, id string) string {
	return filepath.Join(r.root, kind, id+".json")
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "create parent directory")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "marshal record")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "write record")
	}
	return os.Rename(tmp, path)
}

// readJSON unmarshals path into v, returning (false, nil) when the file does
// not exist so callers can distinguish "absent" from "storage error".
func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CodeStorageError, "read record")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(err, errors.CodeStorageError, "unmarshal record")
	}
	return true, nil
}

func (r *Repository) SaveDocument(ctx context.Context, doc *document.Document) error {
	return writeJSON(r.path("documents", doc.DocID), doc)
}

func (r *Repository) GetDocument(ctx context.Context, docID string) (*document.Document, error) {
	var doc document.Document
	ok, err := readJSON(r.path("documents", docID), &doc)
	if err != nil || !ok {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) SaveFragments(ctx context.Context, runID string, fragments []document.Fragment) error {
	return writeJSON(r.path("fragments", runID), fragments)
}

func (r *Repository) GetFragments(ctx context.Context, runID string) ([]document.Fragment, error) {
	var fragments []document.Fragment
	ok, err := readJSON(r.path("fragments", runID), &fragments)
	if err != nil || !ok {
		return nil, err
	}
	return fragments, nil
}

func (r *Repository) SaveSectionAssignment(ctx context.Context, runID string, sa *document.SectionAssignment) error {
	return writeJSON(r.path("sections", runID), sa)
}

func (r *Repository) GetSectionAssignment(ctx context.Context, runID string) (*document.SectionAssignment, error) {
	var sa document.SectionAssignment
	ok, err := readJSON(r.path("sections", runID), &sa)
	if err != nil || !ok {
		return nil, err
	}
	return &sa, nil
}

func (r *Repository) SaveValidationRecord(ctx context.Context, runID string, vr *document.ValidationRecord) error {
	return writeJSON(r.path("validation", runID), vr)
}

func (r *Repository) GetValidationRecord(ctx context.Context, runID string) (*document.ValidationRecord, error) {
	var vr document.ValidationRecord
	ok, err := readJSON(r.path("validation", runID), &vr)
	if err != nil || !ok {
		return nil, err
	}
	return &vr, nil
}

func (r *Repository) SaveRiskAssessment(ctx context.Context, runID string, ra *document.RiskAssessment) error {
	return writeJSON(r.path("risk", runID), ra)
}

func (r *Repository) GetRiskAssessment(ctx context.Context, runID string) (*document.RiskAssessment, error) {
	var ra document.RiskAssessment
	ok, err := readJSON(r.path("risk", runID), &ra)
	if err != nil || !ok {
		return nil, err
	}
	return &ra, nil
}

func (r *Repository) SaveRUCRecord(ctx context.Context, runID string, rr *document.RUCRecord) error {
	return writeJSON(r.path("ruc", runID), rr)
}

func (r *Repository) GetRUCRecord(ctx context.Context, runID string) (*document.RUCRecord, error) {
	var rr document.RUCRecord
	ok, err := readJSON(r.path("ruc", runID), &rr)
	if err != nil || !ok {
		return nil, err
	}
	return &rr, nil
}

func (r *Repository) SaveArtifact(ctx context.Context, artifact *document.AnalysisArtifact) error {
	if err := writeJSON(r.path("artifacts", artifact.RunID), artifact); err != nil {
		return err
	}
	return writeJSON(r.path("artifacts_latest", artifact.DocID), artifact)
}

func (r *Repository) GetArtifact(ctx context.Context, runID string) (*document.AnalysisArtifact, error) {
	var artifact document.AnalysisArtifact
	ok, err := readJSON(r.path("artifacts", runID), &artifact)
	if err != nil || !ok {
		return nil, err
	}
	return &artifact, nil
}

func (r *Repository) GetLatestArtifactForDoc(ctx context.Context, docID string) (*document.AnalysisArtifact, error) {
	var artifact document.AnalysisArtifact
	ok, err := readJSON(r.path("artifacts_latest", docID), &artifact)
	if err != nil || !ok {
		return nil, err
	}
	return &artifact, nil
}

func (r *Repository) SaveComparison(ctx context.Context, cmp *document.Comparison) error {
	return writeJSON(r.path("comparisons", cmp.ComparisonID), cmp)
}

func (r *Repository) GetComparison(ctx context.Context, comparisonID string) (*document.Comparison, error) {
	var cmp document.Comparison
	ok, err := readJSON(r.path("comparisons", comparisonID), &cmp)
	if err != nil || !ok {
		return nil, err
	}
	return &cmp, nil
}

func (r *Repository) SaveRunStatus(ctx context.Context, status *document.RunStatus) error {
	return writeJSON(r.path("runs", status.RunID), status)
}

func (r *Repository) GetRunStatus(ctx context.Context, runID string) (*document.RunStatus, error) {
	var status document.RunStatus
	ok, err := readJSON(r.path("runs", runID), &status)
	if err != nil || !ok {
		return nil, err
	}
	return &status, nil
}
