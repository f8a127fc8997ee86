package domain

import "fmt"

// Document types carried in chunk metadata under MetaType.
const (
	DocTypeSpell   = "spell"
	DocTypeMonster = "monster"
	DocTypeRule    = "rule"
)

// Well-known metadata keys.
const (
	MetaType        = "type"
	MetaName        = "name"
	MetaSource      = "source"
	MetaURL         = "url"
	MetaSection     = "section"
	MetaChunkIndex  = "chunk_index"
	MetaLevel       = "level"
	MetaSchool      = "school"
	MetaCR          = "cr"
	MetaMonsterType = "monster_type"
	MetaSize        = "size"
)

// Chunk is the atomic retrievable unit of the corpus.
// It is built deterministically from one raw record or one bounded slice of it.
type Chunk struct {
	// ID is an immutable identifier derived from the chunk text.
	// It is carried through every snapshot and compared at load time.
	ID string `json:"id"`

	// Text is the normalised, human-readable content (markdown-like).
	Text string `json:"text"`

	// Metadata holds the type, provenance and type-specific fields.
	Metadata Metadata `json:"metadata"`

	// TokenCount is the number of sub-word tokens in Text.
	// It is a size measure only.
	TokenCount int `json:"token_count"`
}

// Type returns the chunk's document type.
func (c Chunk) Type() string {
	return c.Metadata.String(MetaType)
}

// ScoredChunk is one entry of a retrieval result.
type ScoredChunk struct {
	// Chunk is the retrieved chunk.
	Chunk Chunk `json:"chunk"`

	// Score is the unnormalised dot product between query and chunk vectors.
	Score float64 `json:"score"`

	// Position is the chunk's index in the corpus.
	Position int `json:"position"`
}

// Metadata is the structured description attached to a chunk.
// Values are JSON-compatible (string, number, bool, nil).
type Metadata map[string]any

// String returns the value for key rendered as text.
// Missing keys and nil values return the empty string.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// StringOr returns the value for key, or fallback when it is missing or empty.
func (m Metadata) StringOr(key, fallback string) string {
	if s := m.String(key); s != "" {
		return s
	}
	return fallback
}

// Clone returns a shallow copy of the metadata.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
