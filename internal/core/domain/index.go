package domain

import "fmt"

// IndexEntry is the per-chunk metadata stored alongside the embedding matrix.
type IndexEntry struct {
	// ID is the positional index of the chunk in the corpus.
	ID int `json:"id"`

	// ChunkID is the chunk's immutable identifier.
	ChunkID string `json:"chunk_id"`

	// Metadata is a copy of the chunk metadata.
	Metadata Metadata `json:"metadata"`

	// TokenCount is the chunk's token count.
	TokenCount int `json:"token_count"`
}

// EmbeddingIndex is the corpus together with its embedding matrix.
// Row i of Vectors, Chunks[i] and Entries[i] describe the same chunk.
// It is read-only once built or loaded.
type EmbeddingIndex struct {
	// Chunks is the corpus in build order.
	Chunks []Chunk

	// Vectors is the (N, D) embedding matrix.
	Vectors [][]float32

	// Entries is the metadata sequence, index-aligned with Vectors.
	Entries []IndexEntry
}

// NewIndexEntries builds the metadata sequence for a corpus.
func NewIndexEntries(chunks []Chunk) []IndexEntry {
	entries := make([]IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = IndexEntry{
			ID:         i,
			ChunkID:    c.ID,
			Metadata:   c.Metadata,
			TokenCount: c.TokenCount,
		}
	}
	return entries
}

// Len returns the number of indexed chunks.
func (ix *EmbeddingIndex) Len() int {
	return len(ix.Chunks)
}

// Dimensions returns the embedding dimensionality, or 0 for an empty index.
func (ix *EmbeddingIndex) Dimensions() int {
	if len(ix.Vectors) == 0 {
		return 0
	}
	return len(ix.Vectors[0])
}

// Validate checks that the matrix, corpus and metadata sequence are aligned.
// It returns an error wrapping ErrIndexMismatch on any disagreement.
func (ix *EmbeddingIndex) Validate() error {
	n := len(ix.Chunks)
	if len(ix.Vectors) != n || len(ix.Entries) != n {
		return fmt.Errorf("%w: %d chunks, %d vectors, %d metadata entries",
			ErrIndexMismatch, n, len(ix.Vectors), len(ix.Entries))
	}

	dims := ix.Dimensions()
	for i := range ix.Chunks {
		if ix.Entries[i].ID != i {
			return fmt.Errorf("%w: metadata entry %d has id %d", ErrIndexMismatch, i, ix.Entries[i].ID)
		}
		if ix.Entries[i].ChunkID != ix.Chunks[i].ID {
			return fmt.Errorf("%w: entry %d refers to chunk %q, corpus has %q",
				ErrIndexMismatch, i, ix.Entries[i].ChunkID, ix.Chunks[i].ID)
		}
		if len(ix.Vectors[i]) != dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrIndexMismatch, i, len(ix.Vectors[i]), dims)
		}
	}
	return nil
}

// VerifyChunkIDs checks that every chunk id equals idFor(chunk text), so a
// corpus edited after indexing is rejected with ErrIndexMismatch.
func (ix *EmbeddingIndex) VerifyChunkIDs(idFor func(text string) string) error {
	for i := range ix.Chunks {
		if want := idFor(ix.Chunks[i].Text); ix.Chunks[i].ID != want {
			return fmt.Errorf("%w: chunk %d text does not match id %q",
				ErrIndexMismatch, i, ix.Chunks[i].ID)
		}
	}
	return nil
}
