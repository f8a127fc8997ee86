package driven

// Tokenizer converts text to and from sub-word tokens under a fixed,
// versioned encoding. Chunk sizing and token_count use the same Tokenizer
// so they never disagree.
type Tokenizer interface {
	// Encode returns the token ids for text.
	Encode(text string) []int

	// Decode returns the text for a token id sequence.
	Decode(tokens []int) string

	// Name returns the encoding name (e.g. cl100k_base).
	Name() string
}
