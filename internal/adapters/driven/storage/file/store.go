package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
)

// Snapshot file locations relative to the data directory.
const (
	CorpusFile     = "processed/all_chunks.json"
	EmbeddingsFile = "embeddings/embeddings.npy"
	MetadataFile   = "embeddings/metadata.json"
)

// Store is a file-backed snapshot store.
type Store struct {
	mu      sync.RWMutex
	dataDir string
}

var _ driven.SnapshotStore = (*Store)(nil)

// NewStore creates a store rooted at dataDir. Directories are created on save.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrInvalidConfig)
	}
	return &Store{dataDir: dataDir}, nil
}

// DataDir returns the root directory of the snapshot.
func (s *Store) DataDir() string {
	return s.dataDir
}

// SaveCorpus writes processed/all_chunks.json.
func (s *Store) SaveCorpus(_ context.Context, chunks []domain.Chunk) error {
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	data, err := encodeJSON(chunks)
	if err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.path(CorpusFile), data)
}

// LoadCorpus reads processed/all_chunks.json.
func (s *Store) LoadCorpus(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadCorpus()
}

func (s *Store) loadCorpus() ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	if err := s.readJSON(CorpusFile, &chunks); err != nil {
		return nil, err
	}
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	return chunks, nil
}

// SaveIndex writes embeddings/embeddings.npy and embeddings/metadata.json.
func (s *Store) SaveIndex(_ context.Context, index *domain.EmbeddingIndex) error {
	if err := index.Validate(); err != nil {
		return err
	}

	var npy bytes.Buffer
	if err := writeNPY(&npy, index.Vectors); err != nil {
		return fmt.Errorf("encoding embeddings: %w", err)
	}

	entries := index.Entries
	if entries == nil {
		entries = []domain.IndexEntry{}
	}
	meta, err := encodeJSON(entries)
	if err != nil {
		return fmt.Errorf("encoding index metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.path(EmbeddingsFile), npy.Bytes()); err != nil {
		return err
	}
	return writeFileAtomic(s.path(MetadataFile), meta)
}

// LoadIndex reads all three snapshot files and checks they agree.
func (s *Store) LoadIndex(_ context.Context) (*domain.EmbeddingIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, err := s.loadCorpus()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path(EmbeddingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", EmbeddingsFile, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", EmbeddingsFile, err)
	}
	vectors, err := readNPY(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrIndexMismatch, EmbeddingsFile, err)
	}

	var entries []domain.IndexEntry
	if err := s.readJSON(MetadataFile, &entries); err != nil {
		return nil, err
	}

	index := &domain.EmbeddingIndex{
		Chunks:  chunks,
		Vectors: vectors,
		Entries: entries,
	}
	if err := index.Validate(); err != nil {
		return nil, err
	}
	return index, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(rel string) string {
	return filepath.Join(s.dataDir, filepath.FromSlash(rel))
}

// readJSON returns an error wrapping domain.ErrNotFound for a missing file.
func (s *Store) readJSON(rel string, v any) error {
	data, err := os.ReadFile(s.path(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", rel, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", rel, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", rel, err)
	}
	return nil
}

// encodeJSON renders indented JSON without HTML escaping, so text such as
// "<f4" or "&" stays readable in the snapshot.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}
