package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.Indexer = (*IndexService)(nil)

// IndexService embeds the corpus in batches and saves the embedding index.
type IndexService struct {
	store     driven.SnapshotStore
	embedder  driven.EmbeddingService
	batchSize int
}

// NewIndexService creates a new index service.
// A non-positive batch size selects domain.DefaultBatchSize.
func NewIndexService(store driven.SnapshotStore, embedder driven.EmbeddingService, batchSize int) *IndexService {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	return &IndexService{
		store:     store,
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// BuildIndex embeds every chunk text, in corpus order, and saves the index.
// Row i of the matrix is the embedding of chunks[i].Text.
func (s *IndexService) BuildIndex(ctx context.Context, chunks []domain.Chunk) (*domain.EmbeddingIndex, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Index Build")
	logger.Debug("Embedding %d chunks with %s (batch size %d)", len(chunks), s.embedder.ModelName(), s.batchSize)

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))

		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts",
				domain.ErrIndexMismatch, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
		logger.Debug("Embedded %d/%d", end, len(chunks))
	}

	index := &domain.EmbeddingIndex{
		Chunks:  chunks,
		Vectors: vectors,
		Entries: domain.NewIndexEntries(chunks),
	}
	if err := index.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.SaveIndex(ctx, index); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	logger.Info("Index saved: %d x %d", index.Len(), index.Dimensions())
	return index, nil
}

// Rebuild loads the saved corpus and rebuilds its index.
func (s *IndexService) Rebuild(ctx context.Context) (*domain.EmbeddingIndex, error) {
	chunks, err := s.store.LoadCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return s.BuildIndex(ctx, chunks)
}
