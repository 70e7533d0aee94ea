// Package embedding computes dense vectors for text fragments through a
// provider-agnostic interface with an ordered fallback chain.
package embedding

import (
	"context"
	"math"

	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/pkg/errors"
)

// Provider computes embeddings for an ordered batch of texts, returning an
// ordered batch of equal-dimension vectors.
type Provider interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// FallbackChain tries providers in configured preference order, returning
// the first successful result. All-provider failure returns
// CodeEmbeddingUnavailable rather than a silently zero-filled vector.
type FallbackChain struct {
	providers []Provider
	logger    logging.Logger
}

// NewFallbackChain builds a chain from providers in preference order.
func NewFallbackChain(logger logging.Logger, providers ...Provider) *FallbackChain {
	return &FallbackChain{providers: providers, logger: logger}
}

// Name identifies the chain by its primary (first-preference) provider.
func (c *FallbackChain) Name() string {
	if len(c.providers) == 0 {
		return "empty-chain"
	}
	return c.providers[0].Name()
}

// Dimension returns the primary provider's output dimension. All providers
// in a chain are expected to share one dimension, matching the downstream
// vector store's fixed-dimension-per-collection contract.
func (c *FallbackChain) Dimension() int {
	if len(c.providers) == 0 {
		return 0
	}
	return c.providers[0].Dimension()
}

// Embed delegates to the first provider that responds without error,
// L2-normalizing the resulting vectors before returning them. Dimension is
// fixed per call; if a provider somehow returns mismatched dimensions the
// call fails with CodeEmbeddingDimensionMismatch rather than masking it.
func (c *FallbackChain) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(c.providers) == 0 {
		return nil, errors.New(errors.CodeEmbeddingUnavailable, "no embedding providers configured")
	}

	var lastErr error
	for _, p := range c.providers {
		vectors, err := p.Embed(ctx, texts)
		if err != nil {
			lastErr = err
			if c.logger != nil {
				c.logger.Warn("embedding provider failed, trying next",
					logging.String("provider", p.Name()), logging.Err(err))
			}
			continue
		}
		if err := validateDimensions(vectors, p.Dimension()); err != nil {
			return nil, err
		}
		normalizeAll(vectors)
		return vectors, nil
	}
	return nil, errors.Wrap(lastErr, errors.CodeEmbeddingUnavailable, "all embedding providers failed")
}

func validateDimensions(vectors [][]float32, want int) error {
	for _, v := range vectors {
		if len(v) != want {
			return errors.New(errors.CodeEmbeddingDimensionMismatch, "provider returned vector of unexpected dimension")
		}
	}
	return nil
}

func normalizeAll(vectors [][]float32) {
	for i := range vectors {
		vectors[i] = l2Normalize(vectors[i])
	}
}

// l2Normalize scales v to unit length; the zero vector is returned unchanged.
func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors, dividing the dot product by both norms so unnormalized inputs
// (such as HashProvider output) are scored in [-1, 1]. Mismatched lengths,
// empty vectors and zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
