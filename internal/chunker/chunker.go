// Package chunker turns raw rules records into normalised, token-bounded chunks.
//
// Spells and monsters always produce one chunk. Rule sections longer than the
// window size are split into overlapping token windows.
package chunker

import (
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
)

// DefaultMaxTokens is the default window size in tokens.
const DefaultMaxTokens = domain.DefaultMaxTokens

// DefaultOverlap is the default number of tokens shared by consecutive windows.
const DefaultOverlap = domain.DefaultOverlap

// DefaultSource is the provenance label attached to every chunk.
const DefaultSource = "SRD 5e"

// DefaultBaseURL prefixes the record url to form the canonical reference.
const DefaultBaseURL = "https://www.dnd5eapi.co"

// idNamespace scopes chunk identifiers.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sage://chunks"))

// Chunker builds chunks from raw records.
// It is safe for concurrent use once constructed.
type Chunker struct {
	tokenizer driven.Tokenizer
	maxTokens int
	overlap   int
	source    string
	baseURL   string
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the window size in tokens.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		c.maxTokens = n
	}
}

// WithOverlap sets the overlap between windows in tokens.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		c.overlap = n
	}
}

// WithSource sets the provenance label.
func WithSource(source string) Option {
	return func(c *Chunker) {
		c.source = source
	}
}

// WithBaseURL sets the prefix for chunk urls.
func WithBaseURL(baseURL string) Option {
	return func(c *Chunker) {
		c.baseURL = baseURL
	}
}

// New creates a chunker. It returns an error wrapping domain.ErrInvalidConfig
// when the window parameters would give a non-positive stride.
func New(tokenizer driven.Tokenizer, opts ...Option) (*Chunker, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", domain.ErrInvalidConfig)
	}

	c := &Chunker{
		tokenizer: tokenizer,
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlap,
		source:    DefaultSource,
		baseURL:   DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := domain.ChunkingSettings{MaxTokens: c.maxTokens, Overlap: c.overlap}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: max_tokens=%d overlap=%d", err, c.maxTokens, c.overlap)
	}

	return c, nil
}

// MaxTokens returns the window size.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Stride returns the distance between window starts.
func (c *Chunker) Stride() int {
	return c.maxTokens - c.overlap
}

// CountTokens returns the number of tokens in text.
func (c *Chunker) CountTokens(text string) int {
	return len(c.tokenizer.Encode(text))
}

// Chunk converts one record of the given category into chunks.
func (c *Chunker) Chunk(record domain.RawRecord, category domain.Category) ([]domain.Chunk, error) {
	switch category {
	case domain.CategorySpells:
		return []domain.Chunk{c.Spell(record)}, nil
	case domain.CategoryMonsters:
		return []domain.Chunk{c.Monster(record)}, nil
	case domain.CategoryRules:
		return c.Rule(record), nil
	default:
		return nil, fmt.Errorf("%w: category %q", domain.ErrUnsupportedType, category)
	}
}

// Spell builds the single chunk for a spell record.
func (c *Chunker) Spell(record domain.RawRecord) domain.Chunk {
	text := formatSpell(record)
	return c.newChunk(text, domain.Metadata{
		domain.MetaType:   domain.DocTypeSpell,
		domain.MetaName:   record["name"],
		domain.MetaLevel:  record["level"],
		domain.MetaSchool: schoolName(record["school"]),
		domain.MetaSource: c.source,
		domain.MetaURL:    c.url(record),
	}, c.CountTokens(text))
}

// Monster builds the single chunk for a monster record.
func (c *Chunker) Monster(record domain.RawRecord) domain.Chunk {
	text := formatMonster(record)
	return c.newChunk(text, domain.Metadata{
		domain.MetaType:        domain.DocTypeMonster,
		domain.MetaName:        record["name"],
		domain.MetaCR:          record["challenge_rating"],
		domain.MetaMonsterType: record["type"],
		domain.MetaSize:        record["size"],
		domain.MetaSource:      c.source,
		domain.MetaURL:         c.url(record),
	}, c.CountTokens(text))
}

// Rule builds the chunks for a rule section. A section within the window
// size yields one chunk; a longer one yields one chunk per window, each
// tagged with its zero-based chunk_index.
func (c *Chunker) Rule(record domain.RawRecord) []domain.Chunk {
	title := display(record["name"], "Unknown Rule")
	text := formatRule(title, record)
	tokens := c.tokenizer.Encode(text)

	meta := func() domain.Metadata {
		return domain.Metadata{
			domain.MetaType:    domain.DocTypeRule,
			domain.MetaSection: title,
			domain.MetaSource:  c.source,
			domain.MetaURL:     c.url(record),
		}
	}

	if len(tokens) <= c.maxTokens {
		return []domain.Chunk{c.newChunk(text, meta(), len(tokens))}
	}

	var chunks []domain.Chunk
	for i, window := range c.Windows(tokens) {
		m := meta()
		m[domain.MetaChunkIndex] = i
		chunks = append(chunks, c.newChunk(c.tokenizer.Decode(window), m, len(window)))
	}
	return chunks
}

// Windows yields overlapping token windows in order, with their zero-based index.
// Every window holds at most MaxTokens tokens; the last may be shorter.
func (c *Chunker) Windows(tokens []int) iter.Seq2[int, []int] {
	return func(yield func(int, []int) bool) {
		index := 0
		for start := 0; start < len(tokens); start += c.Stride() {
			end := min(start+c.maxTokens, len(tokens))
			if !yield(index, tokens[start:end]) {
				return
			}
			index++
		}
	}
}

func (c *Chunker) url(record domain.RawRecord) string {
	return c.baseURL + display(record["url"], "")
}

func (c *Chunker) newChunk(text string, meta domain.Metadata, tokens int) domain.Chunk {
	return domain.Chunk{
		ID:         ChunkID(text),
		Text:       text,
		Metadata:   meta,
		TokenCount: tokens,
	}
}

// ChunkID returns the content-derived identifier for a chunk text.
func ChunkID(text string) string {
	return uuid.NewSHA1(idNamespace, []byte(text)).String()
}
