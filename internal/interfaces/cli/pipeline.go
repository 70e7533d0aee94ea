package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/turtacn/tender-intel/internal/application/analysis"
	"github.com/turtacn/tender-intel/internal/config"
	"github.com/turtacn/tender-intel/internal/intelligence/embedding"
	"github.com/turtacn/tender-intel/internal/intelligence/vectorstore"
	"github.com/turtacn/tender-intel/internal/pipeline/chunker"
	"github.com/turtacn/tender-intel/internal/pipeline/classifier"
	"github.com/turtacn/tender-intel/internal/pipeline/extractor"
	"github.com/turtacn/tender-intel/internal/pipeline/risk"
	"github.com/turtacn/tender-intel/internal/pipeline/ruc"
	"github.com/turtacn/tender-intel/internal/pipeline/taxonomy"
	"github.com/turtacn/tender-intel/internal/pipeline/validator"
)

// buildOrchestrator wires a fully in-process pipeline over the default
// taxonomy and a local hash-based embedder, seeding both the classifier's
// and the risk agent's semantic corpora before the orchestrator can run.
// The apiserver and worker binaries build the same hash provider;
// embedding.FallbackChain is not wired into any binary, and no
// network-backed provider is constructed here.
func buildOrchestrator(ctx context.Context, cliCtx *CLIContext) (*analysis.Orchestrator, error) {
	cfg := cliCtx.Config

	dim := 32
	if len(cfg.Intelligence.Providers) > 0 && cfg.Intelligence.Providers[0].Dim > 0 {
		dim = cfg.Intelligence.Providers[0].Dim
	}
	embedder := embedding.NewHashProvider("tenderctl-local", dim)

	classifyAgent := classifier.New(taxonomy.Default(), embedder, vectorstore.NewInMemoryStore())
	if err := classifyAgent.SeedCorpus(ctx); err != nil {
		return nil, dependencyError{err}
	}

	riskAgent := risk.New(taxonomy.DefaultRiskCategories(), embedder, vectorstore.NewInMemoryStore())
	if err := riskAgent.SeedCorpus(ctx); err != nil {
		return nil, dependencyError{err}
	}

	validatorAgent := validator.New(taxonomy.DefaultRules(), taxonomy.Default())
	rucAgent := ruc.New(nil, "")

	workerCount := cfg.Worker.Concurrency
	if workerCount <= 0 || workerCount > 3 {
		workerCount = 3
	}

	return analysis.New(
		cliCtx.Repo,
		extractor.New(nil, 0.1),
		chunker.New(chunker.DefaultConfig()),
		classifyAgent,
		validatorAgent,
		riskAgent,
		rucAgent,
		cliCtx.Logger,
		cfg.Pipeline.Stage,
		workerCount,
	), nil
}

// fingerprintDoc derives a stable DocID from the declared type and
// canonicalized text, matching the HTTP ingest layer's fingerprint so a
// document analyzed via either surface resolves to the same run.
func fingerprintDoc(declaredType string, text []byte) string {
	sum := sha256.Sum256(append([]byte(declaredType+"\x00"), []byte(strings.TrimSpace(string(text)))...))
	return hex.EncodeToString(sum[:])
}
