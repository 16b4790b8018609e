package embeddings

import (
	"context"
	"fmt"
	"math"

	"github.com/hoybrett99/StudyBuddy/internal/document"
)

// Service wraps an Embedder backend with the guarantees the rest of the
// pipeline relies on: vectors are always unit-normalized, empty text still
// yields a full-dimension vector, and batching never changes results.
type Service struct {
	backend Embedder
}

// NewService creates a Service on top of the given backend.
func NewService(backend Embedder) *Service {
	return &Service{backend: backend}
}

// Dimensions returns the embedding dimension of the backend model.
func (s *Service) Dimensions() int { return s.backend.Dimensions() }

// ModelName returns the backend model identifier.
func (s *Service) ModelName() string { return s.backend.Name() }

// EmbedOne embeds a single text. Empty text is legal: API backends reject
// empty input, so it is substituted with a single space before the call.
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany embeds a batch of texts. The result is numerically equivalent
// to embedding each text independently; batching is purely a performance
// optimization. An empty input returns an empty, non-nil slice.
func (s *Service) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	prepared := make([]string, len(texts))
	for i, t := range texts {
		if t == "" {
			t = " "
		}
		prepared[i] = t
	}

	vecs, err := s.backend.Embed(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("backend returned %d vectors, expected %d", len(vecs), len(texts))
	}

	for i := range vecs {
		vecs[i] = Normalize(vecs[i])
	}
	return vecs, nil
}

// EmbedChunks embeds all chunk texts and returns new chunk values carrying
// the vectors, in the same order. The input chunks are not mutated. This
// can block on model inference for large batches; cancel via ctx.
func (s *Service) EmbedChunks(ctx context.Context, chunks []document.Chunk) ([]document.Chunk, error) {
	if len(chunks) == 0 {
		return []document.Chunk{}, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vecs, err := s.EmbedMany(ctx, texts)
	if err != nil {
		return nil, err
	}

	out := make([]document.Chunk, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.WithEmbedding(vecs[i])
	}
	return out, nil
}

// Similarity returns the cosine similarity of two texts' embeddings. Both
// vectors are unit-normalized, so the dot product is the cosine.
func (s *Service) Similarity(ctx context.Context, a, b string) (float64, error) {
	vecs, err := s.EmbedMany(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return Dot(vecs[0], vecs[1]), nil
}

// Normalize scales a vector to unit L2 norm. Zero vectors come back
// unchanged rather than producing NaNs.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// Dot computes the dot product of two equal-length vectors.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
