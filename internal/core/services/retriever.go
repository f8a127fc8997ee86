package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// Retriever ranks indexed chunks against a query by dot product.
type Retriever struct {
	embedder driven.EmbeddingService
}

// NewRetriever creates a retriever. The embedder must be the one the index was built with.
func NewRetriever(embedder driven.EmbeddingService) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve embeds the query and returns the min(topK, N) best chunks of index.
func (r *Retriever) Retrieve(
	ctx context.Context, index *domain.EmbeddingIndex, query string, topK int,
) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidTopK
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return Rank(index, vector, topK)
}

// Rank scores every row of the index against the query vector and returns
// the min(topK, N) highest, descending by score. Equal scores keep corpus order.
// Scores are raw dot products; vectors are not normalised.
func Rank(index *domain.EmbeddingIndex, query []float32, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidTopK
	}

	n := index.Len()
	if n == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if dims := index.Dimensions(); len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrIndexMismatch, len(query), dims)
	}

	scores := make([]float64, n)
	for i, row := range index.Vectors {
		scores[i] = dot(row, query)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	k := min(topK, n)
	results := make([]domain.ScoredChunk, k)
	for i, pos := range order[:k] {
		results[i] = domain.ScoredChunk{
			Chunk:    index.Chunks[pos],
			Score:    scores[pos],
			Position: pos,
		}
	}

	logger.Debug("Ranked %d chunks, returning %d", n, k)
	return results, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
