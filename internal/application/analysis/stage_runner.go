package analysis

import (
	"context"
	"time"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/pipeline/extractor"
	"github.com/turtacn/tender-intel/pkg/errors"
)

var (
	errNoExtractedText     = errors.New(errors.CodeStageFailed, "no extracted text persisted for this run; document.extract must complete first")
	errNoFragments         = errors.New(errors.CodeStageFailed, "no fragments persisted for this run; document.classify must complete first")
	errNoSectionAssignment = errors.New(errors.CodeStageFailed, "no section assignment persisted for this run; document.classify must complete first")
)

// StageRunner exposes the orchestrator's individual stage implementations as
// independently callable units, each loading and persisting the artifact
// itself. The distributed worker dispatches one Kafka topic at a time to
// these methods instead of driving the full Run; both paths call the same
// runExtract/chunkAndClassify/runPostClassification code, so a stage behaves
// identically whether it runs inline or off a queue.
type StageRunner struct {
	o *Orchestrator
}

// NewStageRunner wraps o for per-topic dispatch.
func NewStageRunner(o *Orchestrator) *StageRunner {
	return &StageRunner{o: o}
}

func (r *StageRunner) loadOrInit(ctx context.Context, docID string, level document.AnalysisLevel) (*document.AnalysisArtifact, error) {
	runID := document.RunID(docID, level)
	artifact, err := r.o.repo.GetArtifact(ctx, runID)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		artifact = &document.AnalysisArtifact{
			RunID:         runID,
			DocID:         docID,
			AnalysisLevel: level,
			StageResults:  make(map[string]document.StageResult),
			CreatedAt:     time.Now(),
		}
	}
	return artifact, nil
}

// RunExtract handles a document.extract message: extracts text from raw and
// persists the extract StageResult.
func (r *StageRunner) RunExtract(ctx context.Context, doc *document.Document, raw []byte, artifactType extractor.ArtifactType, level document.AnalysisLevel) error {
	artifact, err := r.loadOrInit(ctx, doc.DocID, level)
	if err != nil {
		return err
	}
	if _, err := r.o.runExtract(ctx, artifact, doc, raw, artifactType); err != nil {
		_ = r.o.repo.SaveArtifact(ctx, artifact)
		return err
	}
	return r.o.repo.SaveArtifact(ctx, artifact)
}

// RunChunkAndClassify handles a document.classify message: reloads the
// extracted text from the persisted artifact, then chunks and classifies it.
func (r *StageRunner) RunChunkAndClassify(ctx context.Context, docID string, level document.AnalysisLevel) error {
	artifact, err := r.loadOrInit(ctx, docID, level)
	if err != nil {
		return err
	}
	text, ok := artifact.StageResults[stageExtract].Data.(string)
	if !ok {
		return errNoExtractedText
	}
	if _, _, err := r.o.chunkAndClassify(ctx, artifact, artifact.RunID, docID, text); err != nil {
		_ = r.o.repo.SaveArtifact(ctx, artifact)
		return err
	}
	return r.o.repo.SaveArtifact(ctx, artifact)
}

// RunValidate handles a document.validate message: reloads the extracted
// text and the classify stage's section assignment and runs validation alone.
func (r *StageRunner) RunValidate(ctx context.Context, doc *document.Document, docType string, level document.AnalysisLevel) error {
	artifact, err := r.loadOrInit(ctx, doc.DocID, level)
	if err != nil {
		return err
	}
	text, assignment, err := r.reloadClassifyOutput(ctx, artifact, doc.DocID, level)
	if err != nil {
		return err
	}

	started := time.Now()
	rec := r.o.validator.Validate(doc.DocID, docType, text, assignment)
	if err := r.o.repo.SaveValidationRecord(ctx, artifact.RunID, rec); err != nil {
		r.o.recordStage(artifact, stageValidate, document.StageFailed, nil, started, err)
		_ = r.o.repo.SaveArtifact(ctx, artifact)
		return err
	}
	r.o.recordStage(artifact, stageValidate, document.StageSuccess, summaryOf(rec), started, nil)
	return r.o.repo.SaveArtifact(ctx, artifact)
}

// RunRisk handles a risk.assess message.
func (r *StageRunner) RunRisk(ctx context.Context, doc *document.Document, level document.AnalysisLevel) error {
	artifact, err := r.loadOrInit(ctx, doc.DocID, level)
	if err != nil {
		return err
	}
	fragments, err := r.o.repo.GetFragments(ctx, artifact.RunID)
	if err != nil {
		return err
	}
	if fragments == nil {
		return errNoFragments
	}

	started := time.Now()
	assessment, err := r.o.risk.Assess(ctx, doc.DocID, fragments)
	if err != nil {
		r.o.recordStage(artifact, stageRisk, document.StageFailed, nil, started, err)
		_ = r.o.repo.SaveArtifact(ctx, artifact)
		return err
	}
	if err := r.o.repo.SaveRiskAssessment(ctx, artifact.RunID, assessment); err != nil {
		r.o.recordStage(artifact, stageRisk, document.StageFailed, nil, started, err)
		_ = r.o.repo.SaveArtifact(ctx, artifact)
		return err
	}
	r.o.recordStage(artifact, stageRisk, document.StageSuccess, assessment.TotalScore, started, nil)
	return r.o.repo.SaveArtifact(ctx, artifact)
}

// RunRUC handles a ruc.verify message.
func (r *StageRunner) RunRUC(ctx context.Context, doc *document.Document, level document.AnalysisLevel) error {
	artifact, err := r.loadOrInit(ctx, doc.DocID, level)
	if err != nil {
		return err
	}
	text, ok := artifact.StageResults[stageExtract].Data.(string)
	if !ok {
		return errNoExtractedText
	}

	started := time.Now()
	record := r.o.ruc.Validate(ctx, doc.DocID, text)
	if err := r.o.repo.SaveRUCRecord(ctx, artifact.RunID, record); err != nil {
		r.o.recordStage(artifact, stageRUC, document.StageFailed, nil, started, err)
		_ = r.o.repo.SaveArtifact(ctx, artifact)
		return err
	}
	r.o.recordStage(artifact, stageRUC, document.StageSuccess, record.Bucket, started, nil)
	return r.o.repo.SaveArtifact(ctx, artifact)
}

func (r *StageRunner) reloadClassifyOutput(ctx context.Context, artifact *document.AnalysisArtifact, docID string, level document.AnalysisLevel) (string, *document.SectionAssignment, error) {
	text, ok := artifact.StageResults[stageExtract].Data.(string)
	if !ok {
		return "", nil, errNoExtractedText
	}
	assignment, err := r.o.repo.GetSectionAssignment(ctx, artifact.RunID)
	if err != nil {
		return "", nil, err
	}
	if assignment == nil {
		return "", nil, errNoSectionAssignment
	}
	return text, assignment, nil
}
