// Package tiktoken provides a Tokenizer backed by OpenAI's BPE encodings.
// Encodings are loaded from data embedded in the binary, so no network access is needed.
package tiktoken

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.Tokenizer = (*Tokenizer)(nil)

var loaderOnce sync.Once

// Tokenizer counts and windows text with a tiktoken encoding.
type Tokenizer struct {
	name     string
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer for the named encoding (e.g. cl100k_base).
// An empty name selects domain.DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = domain.DefaultEncoding
	}

	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %q: %v", domain.ErrInvalidConfig, encoding, err)
	}

	return &Tokenizer{name: encoding, encoding: enc}, nil
}

// Encode returns the token ids for text. Special tokens are treated as plain text.
func (t *Tokenizer) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

// Decode returns the text for a token id sequence.
func (t *Tokenizer) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}

// Name returns the encoding name.
func (t *Tokenizer) Name() string {
	return t.name
}
