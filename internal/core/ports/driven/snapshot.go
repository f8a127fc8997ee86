package driven

import (
	"context"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// SnapshotStore persists the corpus and its embedding index.
// Both are written wholesale by the offline build and read once at engine start.
type SnapshotStore interface {
	// SaveCorpus replaces the stored chunk collection.
	SaveCorpus(ctx context.Context, chunks []domain.Chunk) error

	// LoadCorpus returns the stored chunk collection in build order.
	// Returns domain.ErrNotFound if no corpus has been saved.
	LoadCorpus(ctx context.Context) ([]domain.Chunk, error)

	// SaveIndex replaces the stored embedding matrix and metadata sequence.
	SaveIndex(ctx context.Context, index *domain.EmbeddingIndex) error

	// LoadIndex returns the corpus aligned with its embedding matrix.
	// Returns domain.ErrNotFound if either artifact is missing and an
	// error wrapping domain.ErrIndexMismatch if they disagree.
	LoadIndex(ctx context.Context) (*domain.EmbeddingIndex, error)

	// Close releases resources.
	Close() error
}
