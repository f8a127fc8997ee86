package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
// It holds copies so callers cannot mutate stored snapshots.
type SnapshotStore struct {
	mu      sync.RWMutex
	chunks  []domain.Chunk
	vectors [][]float32
	entries []domain.IndexEntry
	corpus  bool
	indexed bool
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// SaveCorpus replaces the stored chunk collection.
func (s *SnapshotStore) SaveCorpus(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = cloneChunks(chunks)
	s.corpus = true
	return nil
}

// LoadCorpus returns the stored chunk collection.
func (s *SnapshotStore) LoadCorpus(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.corpus {
		return nil, domain.ErrNotFound
	}
	return cloneChunks(s.chunks), nil
}

// SaveIndex replaces the stored embedding matrix and metadata sequence.
func (s *SnapshotStore) SaveIndex(_ context.Context, index *domain.EmbeddingIndex) error {
	if err := index.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = make([][]float32, len(index.Vectors))
	for i, v := range index.Vectors {
		s.vectors[i] = append([]float32(nil), v...)
	}
	s.entries = make([]domain.IndexEntry, len(index.Entries))
	for i, e := range index.Entries {
		e.Metadata = e.Metadata.Clone()
		s.entries[i] = e
	}
	s.indexed = true
	return nil
}

// LoadIndex returns the stored corpus aligned with its embedding matrix.
func (s *SnapshotStore) LoadIndex(_ context.Context) (*domain.EmbeddingIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.corpus || !s.indexed {
		return nil, domain.ErrNotFound
	}
	index := &domain.EmbeddingIndex{
		Chunks:  cloneChunks(s.chunks),
		Vectors: s.vectors,
		Entries: s.entries,
	}
	if err := index.Validate(); err != nil {
		return nil, err
	}
	return index, nil
}

// Close is a no-op.
func (s *SnapshotStore) Close() error {
	return nil
}

func cloneChunks(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Metadata = c.Metadata.Clone()
		out[i] = c
	}
	return out
}
