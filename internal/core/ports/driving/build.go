package driving

import (
	"context"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// CorpusBuilder chunks every raw category and persists the corpus.
type CorpusBuilder interface {
	// Build produces and saves the ordered chunk collection.
	Build(ctx context.Context) ([]domain.Chunk, error)
}

// Indexer embeds the saved corpus and persists the embedding index.
type Indexer interface {
	// BuildIndex embeds the given corpus and saves the index.
	BuildIndex(ctx context.Context, chunks []domain.Chunk) (*domain.EmbeddingIndex, error)

	// Rebuild loads the saved corpus, then embeds and saves it.
	Rebuild(ctx context.Context) (*domain.EmbeddingIndex, error)
}

// FetchService downloads the remote catalog into raw record files.
type FetchService interface {
	// Fetch downloads the given categories and returns the record count per category.
	Fetch(ctx context.Context, categories []domain.Category) (map[domain.Category]int, error)
}
