// Package analysis implements the orchestrator: the stateful pipeline
// driver that takes a document through extraction, chunking,
// classification, and the three independent post-classification stages
// (validation, risk, RUC) before aggregating a final AnalysisArtifact.
package analysis

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/turtacn/tender-intel/internal/config"
	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/pipeline/chunker"
	"github.com/turtacn/tender-intel/internal/pipeline/classifier"
	"github.com/turtacn/tender-intel/internal/pipeline/extractor"
	"github.com/turtacn/tender-intel/internal/pipeline/risk"
	"github.com/turtacn/tender-intel/internal/pipeline/ruc"
	"github.com/turtacn/tender-intel/internal/pipeline/validator"
	"github.com/turtacn/tender-intel/pkg/errors"
)

const maxConcurrentStages = 3

// Stage names used as keys of AnalysisArtifact.StageResults. validate, risk
// and ruc run concurrently once classification has produced fragments and a
// section assignment.
const (
	stageExtract  = "extract"
	stageChunk    = "chunk"
	stageClassify = "classify"
	stageValidate = "validate"
	stageRisk     = "risk"
	stageRUC      = "ruc"
)

// Orchestrator drives one document through the full analysis pipeline.
type Orchestrator struct {
	repo       document.Repository
	extractor  *extractor.Extractor
	chunker    *chunker.Chunker
	classifier *classifier.Agent
	validator  *validator.Agent
	risk       *risk.Agent
	ruc        *ruc.Agent
	logger     logging.Logger
	stages     config.StageConfig
	workerSem  chan struct{}
}

// New constructs an Orchestrator. workerCount <= 0 defaults to
// min(maxConcurrentStages, GOMAXPROCS).
func New(
	repo document.Repository,
	ext *extractor.Extractor,
	chunk *chunker.Chunker,
	classify *classifier.Agent,
	validate *validator.Agent,
	riskAgent *risk.Agent,
	rucAgent *ruc.Agent,
	logger logging.Logger,
	stages config.StageConfig,
	workerCount int,
) *Orchestrator {
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}
	if workerCount > maxConcurrentStages {
		workerCount = maxConcurrentStages
	}
	return &Orchestrator{
		repo:       repo,
		extractor:  ext,
		chunker:    chunk,
		classifier: classify,
		validator:  validate,
		risk:       riskAgent,
		ruc:        rucAgent,
		logger:     logger,
		stages:     stages,
		workerSem:  make(chan struct{}, workerCount),
	}
}

// Run takes doc through the full pipeline for the given analysis level,
// persisting the artifact after extraction, after chunking and
// classification, and once more after the concurrent validate/risk/ruc
// stages have been aggregated. When forceRebuild is false and
// a prior artifact for this runID already completed with OverallSuccess, Run
// returns it immediately without re-executing any stage; otherwise it resumes
// from the last stage that completed successfully. forceRebuild=true always
// starts a fresh artifact, discarding any prior StageResults for this runID.
func (o *Orchestrator) Run(ctx context.Context, doc *document.Document, raw []byte, artifactType extractor.ArtifactType, docType string, level document.AnalysisLevel, forceRebuild bool) (*document.AnalysisArtifact, error) {
	runID := document.RunID(doc.DocID, level)

	artifact, err := o.repo.GetArtifact(ctx, runID)
	if err != nil {
		return nil, err
	}
	if artifact != nil && !forceRebuild && artifact.OverallStatus == document.OverallSuccess {
		return artifact, nil
	}
	if artifact == nil || forceRebuild {
		artifact = &document.AnalysisArtifact{
			RunID:         runID,
			DocID:         doc.DocID,
			AnalysisLevel: level,
			StageResults:  make(map[string]document.StageResult),
			CreatedAt:     time.Now(),
		}
	}

	o.setRunStatus(ctx, runID, document.StageExtracting, 0.1, document.OverallSuccess, nil)

	text, err := o.runExtract(ctx, artifact, doc, raw, artifactType)
	if err != nil {
		return o.fail(ctx, artifact, runID)
	}
	if err := o.repo.SaveArtifact(ctx, artifact); err != nil {
		return nil, err
	}

	o.setRunStatus(ctx, runID, document.StageClassifying, 0.35, document.OverallSuccess, nil)
	fragments, assignment, err := o.chunkAndClassify(ctx, artifact, runID, doc.DocID, text)
	if err != nil {
		return o.fail(ctx, artifact, runID)
	}
	if err := o.repo.SaveArtifact(ctx, artifact); err != nil {
		return nil, err
	}

	o.setRunStatus(ctx, runID, document.StageValidating, 0.5, document.OverallSuccess, nil)
	partial := o.runPostClassification(ctx, artifact, doc, docType, text, assignment, fragments)

	o.setRunStatus(ctx, runID, document.StageAggregating, 0.9, document.OverallSuccess, nil)
	o.aggregate(artifact, partial)

	if err := o.repo.SaveArtifact(ctx, artifact); err != nil {
		return nil, err
	}
	o.setRunStatus(ctx, runID, document.StageDone, 1.0, artifact.OverallStatus, []string{runID})

	return artifact, nil
}

func (o *Orchestrator) runExtract(ctx context.Context, artifact *document.AnalysisArtifact, doc *document.Document, raw []byte, artifactType extractor.ArtifactType) (string, error) {
	if res, ok := artifact.StageResults[stageExtract]; ok && res.Status == document.StageSuccess {
		if text, ok := res.Data.(string); ok {
			return text, nil
		}
	}

	started := time.Now()
	_, cancel := context.WithTimeout(ctx, orDefault(o.stages.ExtractTimeout, 30*time.Second))
	defer cancel()

	result, err := o.extractor.Extract(artifactType, raw)
	if err != nil {
		o.recordStage(artifact, stageExtract, document.StageFailed, nil, started, err)
		return "", err
	}
	if err := o.repo.SaveDocument(ctx, doc); err != nil {
		return "", err
	}
	o.recordStage(artifact, stageExtract, document.StageSuccess, result.Text, started, nil)
	return result.Text, nil
}

func (o *Orchestrator) runChunk(ctx context.Context, artifact *document.AnalysisArtifact, docID, text string) ([]document.Fragment, error) {
	started := time.Now()
	fragments := o.chunker.Split(docID, text)
	o.recordStage(artifact, stageChunk, document.StageSuccess, len(fragments), started, nil)
	return fragments, nil
}

// chunkAndClassify resumes from a persisted classify-stage result when one
// exists for runID, reloading the fragments and section assignment it
// produced instead of recomputing them; otherwise it runs chunk and classify
// fresh and persists their output.
func (o *Orchestrator) chunkAndClassify(ctx context.Context, artifact *document.AnalysisArtifact, runID, docID, text string) ([]document.Fragment, *document.SectionAssignment, error) {
	if res, ok := artifact.StageResults[stageClassify]; ok && res.Status == document.StageSuccess {
		fragments, err := o.repo.GetFragments(ctx, runID)
		if err != nil {
			return nil, nil, err
		}
		assignment, err := o.repo.GetSectionAssignment(ctx, runID)
		if err != nil {
			return nil, nil, err
		}
		if fragments != nil && assignment != nil {
			return fragments, assignment, nil
		}
	}

	fragments, err := o.runChunk(ctx, artifact, docID, text)
	if err != nil {
		return nil, nil, err
	}
	fragments, assignment, err := o.runClassify(ctx, artifact, docID, fragments)
	if err != nil {
		return nil, nil, err
	}
	if err := o.repo.SaveFragments(ctx, runID, fragments); err != nil {
		return nil, nil, err
	}
	if err := o.repo.SaveSectionAssignment(ctx, runID, assignment); err != nil {
		return nil, nil, err
	}
	return fragments, assignment, nil
}

func (o *Orchestrator) runClassify(ctx context.Context, artifact *document.AnalysisArtifact, docID string, fragments []document.Fragment) ([]document.Fragment, *document.SectionAssignment, error) {
	started := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, orDefault(o.stages.ClassifyTimeout, 30*time.Second))
	defer cancel()

	out, assignment, err := o.classifier.Classify(stageCtx, docID, fragments)
	if err != nil {
		o.recordStage(artifact, stageClassify, document.StageFailed, nil, started, err)
		return nil, nil, err
	}
	o.recordStage(artifact, stageClassify, document.StageSuccess, nil, started, nil)
	return out, assignment, nil
}

// postResult carries one post-classification stage's outcome back from its
// worker goroutine.
type postResult struct {
	stage string
	err   error
}

// runPostClassification runs validation, risk, and RUC concurrently over a
// shared worker-pool semaphore, returning whether any of the three failed.
func (o *Orchestrator) runPostClassification(ctx context.Context, artifact *document.AnalysisArtifact, doc *document.Document, docType, text string, assignment *document.SectionAssignment, fragments []document.Fragment) bool {
	runID := artifact.RunID
	var wg sync.WaitGroup
	results := make(chan postResult, 3)

	wg.Add(1)
	go o.runStage(&wg, func() {
		if res, ok := artifact.StageResults[stageValidate]; ok && res.Status == document.StageSuccess {
			results <- postResult{stage: stageValidate}
			return
		}
		started := time.Now()
		_, cancel := context.WithTimeout(ctx, orDefault(o.stages.ValidateTimeout, 20*time.Second))
		defer cancel()
		rec := o.validator.Validate(doc.DocID, docType, text, assignment)
		if err := o.repo.SaveValidationRecord(ctx, runID, rec); err != nil {
			o.recordStage(artifact, stageValidate, document.StageFailed, nil, started, err)
			results <- postResult{stage: stageValidate, err: err}
			return
		}
		o.recordStage(artifact, stageValidate, document.StageSuccess, summaryOf(rec), started, nil)
		results <- postResult{stage: stageValidate}
	})

	wg.Add(1)
	go o.runStage(&wg, func() {
		if res, ok := artifact.StageResults[stageRisk]; ok && res.Status == document.StageSuccess {
			results <- postResult{stage: stageRisk}
			return
		}
		started := time.Now()
		timeoutCtx, cancel := context.WithTimeout(ctx, orDefault(o.stages.RiskTimeout, 20*time.Second))
		defer cancel()
		assessment, err := o.risk.Assess(timeoutCtx, doc.DocID, fragments)
		if err != nil {
			o.recordStage(artifact, stageRisk, document.StageFailed, nil, started, err)
			results <- postResult{stage: stageRisk, err: err}
			return
		}
		if err := o.repo.SaveRiskAssessment(ctx, runID, assessment); err != nil {
			o.recordStage(artifact, stageRisk, document.StageFailed, nil, started, err)
			results <- postResult{stage: stageRisk, err: err}
			return
		}
		o.recordStage(artifact, stageRisk, document.StageSuccess, assessment.TotalScore, started, nil)
		results <- postResult{stage: stageRisk}
	})

	wg.Add(1)
	go o.runStage(&wg, func() {
		if res, ok := artifact.StageResults[stageRUC]; ok && res.Status == document.StageSuccess {
			results <- postResult{stage: stageRUC}
			return
		}
		started := time.Now()
		timeoutCtx, cancel := context.WithTimeout(ctx, orDefault(o.stages.RUCTimeout, 20*time.Second))
		defer cancel()
		record := o.ruc.Validate(timeoutCtx, doc.DocID, text)
		if err := o.repo.SaveRUCRecord(ctx, runID, record); err != nil {
			o.recordStage(artifact, stageRUC, document.StageFailed, nil, started, err)
			results <- postResult{stage: stageRUC, err: err}
			return
		}
		o.recordStage(artifact, stageRUC, document.StageSuccess, record.Bucket, started, nil)
		results <- postResult{stage: stageRUC}
	})

	wg.Wait()
	close(results)

	anyFailed := false
	for r := range results {
		if r.err != nil {
			anyFailed = true
			if o.logger != nil {
				o.logger.Error("post-classification stage failed", logging.Stage(r.stage), logging.Err(r.err))
			}
		}
	}
	return anyFailed
}

// runStage acquires a worker-pool slot before running fn, releasing the
// slot and the wait group on completion.
func (o *Orchestrator) runStage(wg *sync.WaitGroup, fn func()) {
	defer wg.Done()
	o.workerSem <- struct{}{}
	defer func() { <-o.workerSem }()
	fn()
}

func (o *Orchestrator) aggregate(artifact *document.AnalysisArtifact, anyPostClassificationFailed bool) {
	classifyOK := artifact.StageResults[stageClassify].Status == document.StageSuccess
	switch {
	case !classifyOK:
		artifact.OverallStatus = document.OverallFailed
	case anyPostClassificationFailed:
		artifact.OverallStatus = document.OverallPartialSuccess
	default:
		artifact.OverallStatus = document.OverallSuccess
	}

	artifact.KeyFindings = buildKeyFindings(artifact)
	artifact.Recommendations = buildRecommendations(artifact)
}

func (o *Orchestrator) fail(ctx context.Context, artifact *document.AnalysisArtifact, runID string) (*document.AnalysisArtifact, error) {
	artifact.OverallStatus = document.OverallFailed
	if err := o.repo.SaveArtifact(ctx, artifact); err != nil {
		return nil, err
	}
	o.setRunStatus(ctx, runID, document.StageFailedNode, 1.0, document.OverallFailed, nil)
	return artifact, errors.New(errors.CodeStageFailed, "pipeline run failed, see stage_results for detail")
}

func (o *Orchestrator) setRunStatus(ctx context.Context, runID string, stage document.RunStage, progress float64, status document.OverallStatus, artifactRefs []string) {
	_ = o.repo.SaveRunStatus(ctx, &document.RunStatus{
		RunID:         runID,
		Stage:         stage,
		Progress:      progress,
		OverallStatus: status,
		ArtifactRefs:  artifactRefs,
	})
}

// GetStatus returns the current run status, or CodeRunNotFound if none exists.
func (o *Orchestrator) GetStatus(ctx context.Context, runID string) (*document.RunStatus, error) {
	status, err := o.repo.GetRunStatus(ctx, runID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, errors.New(errors.CodeRunNotFound, "no run found for id "+runID)
	}
	return status, nil
}

func (o *Orchestrator) recordStage(artifact *document.AnalysisArtifact, stage string, status document.StageStatus, data interface{}, started time.Time, err error) {
	res := document.StageResult{
		Status:    status,
		Data:      data,
		StartedAt: started,
		EndedAt:   time.Now(),
	}
	if err != nil {
		res.Errors = []string{err.Error()}
	}
	artifact.StageResults[stage] = res
}

func summaryOf(rec *document.ValidationRecord) string {
	if rec == nil {
		return ""
	}
	return rec.Summary
}

func buildKeyFindings(artifact *document.AnalysisArtifact) []string {
	var findings []string
	if res, ok := artifact.StageResults[stageValidate]; ok && res.Status == document.StageFailed {
		findings = append(findings, "validation stage could not complete")
	}
	if res, ok := artifact.StageResults[stageRisk]; ok && res.Status == document.StageFailed {
		findings = append(findings, "risk assessment could not complete")
	}
	if res, ok := artifact.StageResults[stageRUC]; ok && res.Status == document.StageFailed {
		findings = append(findings, "RUC validation could not complete")
	}
	return findings
}

func buildRecommendations(artifact *document.AnalysisArtifact) []string {
	if artifact.OverallStatus == document.OverallPartialSuccess {
		return []string{"re-run the failed stage once the underlying issue is resolved"}
	}
	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
