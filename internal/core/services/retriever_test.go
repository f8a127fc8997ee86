package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

func positions(results []domain.ScoredChunk) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.Position
	}
	return out
}

func TestRank_TopK(t *testing.T) {
	index := scoredIndex(0.9, 0.1, 0.5, 0.7, 0.2)

	results, err := Rank(index, []float32{1}, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 2}, positions(results))
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
	assert.InDelta(t, 0.7, results[1].Score, 1e-6)
	assert.InDelta(t, 0.5, results[2].Score, 1e-6)
	assert.Equal(t, "chunk-A", results[0].Chunk.ID)
	assert.Equal(t, "chunk-D", results[1].Chunk.ID)
}

func TestRank_TopKLargerThanCorpus(t *testing.T) {
	index := scoredIndex(0.9, 0.1, 0.5, 0.7, 0.2)

	results, err := Rank(index, []float32{1}, 10)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 2, 4, 1}, positions(results))
}

func TestRank_ScoresNonIncreasing(t *testing.T) {
	index := scoredIndex(0.3, -0.2, 0.8, 0.8, 0, 1.5, -3)

	results, err := Rank(index, []float32{1}, 7)
	require.NoError(t, err)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRank_TiesKeepCorpusOrder(t *testing.T) {
	index := scoredIndex(0.5, 0.5, 0.9, 0.5)

	results, err := Rank(index, []float32{1}, 4)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 0, 1, 3}, positions(results))
}

func TestRank_Idempotent(t *testing.T) {
	index := scoredIndex(0.4, 0.4, 0.1, 0.9, 0.4)

	first, err := Rank(index, []float32{1}, 5)
	require.NoError(t, err)
	second, err := Rank(index, []float32{1}, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRank_RawDotProduct(t *testing.T) {
	chunks := []domain.Chunk{{ID: "a"}, {ID: "b"}}
	index := &domain.EmbeddingIndex{
		Chunks:  chunks,
		Vectors: [][]float32{{1, 2, 3}, {10, 0, 0}},
		Entries: domain.NewIndexEntries(chunks),
	}

	results, err := Rank(index, []float32{2, 1, 1}, 2)
	require.NoError(t, err)

	// Not normalised: the long vector wins.
	assert.Equal(t, []int{1, 0}, positions(results))
	assert.InDelta(t, 20.0, results[0].Score, 1e-9)
	assert.InDelta(t, 7.0, results[1].Score, 1e-9)
}

func TestRank_Errors(t *testing.T) {
	index := scoredIndex(0.1, 0.2)

	tests := []struct {
		name  string
		query []float32
		topK  int
		want  error
	}{
		{"zero top_k", []float32{1}, 0, domain.ErrInvalidTopK},
		{"negative top_k", []float32{1}, -3, domain.ErrInvalidInput},
		{"dimension mismatch", []float32{1, 0}, 2, domain.ErrIndexMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rank(index, tt.query, tt.topK)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRank_EmptyIndex(t *testing.T) {
	results, err := Rank(&domain.EmbeddingIndex{}, []float32{1, 2}, 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRetriever_Retrieve(t *testing.T) {
	embedder := &mockEmbeddingService{
		vectors: map[string][]float32{"how does grappling work": {1}},
	}
	retriever := NewRetriever(embedder)

	results, err := retriever.Retrieve(context.Background(), scoredIndex(0.2, 0.8), "how does grappling work", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, positions(results))
}

func TestRetriever_Retrieve_Errors(t *testing.T) {
	index := scoredIndex(0.2, 0.8)
	ctx := context.Background()

	t.Run("invalid top_k checked first", func(t *testing.T) {
		_, err := NewRetriever(nil).Retrieve(ctx, index, "q", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidTopK)
	})

	t.Run("no embedder", func(t *testing.T) {
		_, err := NewRetriever(nil).Retrieve(ctx, index, "q", 1)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("embed failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		_, err := NewRetriever(&mockEmbeddingService{embedErr: boom}).Retrieve(ctx, index, "q", 1)
		assert.ErrorIs(t, err, boom)
	})
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 32.0, dot([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-9)
	assert.Zero(t, dot(nil, nil))
}
