package embedding

import (
	"context"
	"hash/fnv"
)

// HashProvider is a deterministic, dependency-free embedding provider. The
// tenderctl, apiserver and worker binaries and the tests use it directly as
// their embedder; it can also close a FallbackChain. It derives a fixed-dimension vector from
// token hashes, so identical text always yields identical vectors, which is
// enough to exercise similarity-based downstream logic without a real model.
type HashProvider struct {
	name string
	dim  int
}

// NewHashProvider constructs a HashProvider with the given name and output
// dimension.
func NewHashProvider(name string, dim int) *HashProvider {
	if dim <= 0 {
		dim = 128
	}
	return &HashProvider{name: name, dim: dim}
}

func (p *HashProvider) Name() string   { return p.name }
func (p *HashProvider) Dimension() int { return p.dim }

// Embed hashes each whitespace-separated token into a bucket of the output
// vector, accumulating signed counts — a bag-of-hashed-tokens embedding.
func (p *HashProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = p.embedOne(text)
	}
	return out, nil
}

func (p *HashProvider) embedOne(text string) []float32 {
	vec := make([]float32, p.dim)
	token := make([]byte, 0, 32)
	flush := func() {
		if len(token) == 0 {
			return
		}
		h := fnv.New32a()
		_, _ = h.Write(token)
		bucket := int(h.Sum32() % uint32(p.dim))
		sign := float32(1)
		if h.Sum32()%2 == 0 {
			sign = -1
		}
		vec[bucket] += sign
		token = token[:0]
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\n' {
			flush()
			continue
		}
		token = append(token, c)
	}
	flush()
	return vec
}
