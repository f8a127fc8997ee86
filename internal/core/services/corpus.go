package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusBuilder = (*CorpusService)(nil)

// RecordChunker converts one raw record into chunks.
type RecordChunker interface {
	Chunk(record domain.RawRecord, category domain.Category) ([]domain.Chunk, error)
}

// CorpusService chunks every raw category in a fixed order and saves the result.
type CorpusService struct {
	records driven.RecordSource
	chunker RecordChunker
	store   driven.SnapshotStore
}

// NewCorpusService creates a new corpus service.
func NewCorpusService(records driven.RecordSource, chunker RecordChunker, store driven.SnapshotStore) *CorpusService {
	return &CorpusService{
		records: records,
		chunker: chunker,
		store:   store,
	}
}

// Build produces the ordered chunk collection and persists it.
// A category with no raw file is skipped with a warning.
func (s *CorpusService) Build(ctx context.Context) ([]domain.Chunk, error) {
	logger.Section("Corpus Build")

	var corpus []domain.Chunk
	for _, category := range domain.Categories() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := s.records.Load(ctx, category)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("raw category %q not found, skipping", category)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", category, err)
		}

		before := len(corpus)
		for i, record := range records {
			chunks, err := s.chunker.Chunk(record, category)
			if err != nil {
				return nil, fmt.Errorf("chunk %s record %d: %w", category, i, err)
			}
			corpus = append(corpus, chunks...)
		}
		logger.Info("%s: %d records, %d chunks", category, len(records), len(corpus)-before)
	}

	if err := s.store.SaveCorpus(ctx, corpus); err != nil {
		return nil, fmt.Errorf("save corpus: %w", err)
	}

	logger.Info("Corpus saved: %d chunks", len(corpus))
	return corpus, nil
}
