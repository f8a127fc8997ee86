package domain

// Default ask parameters.
const (
	DefaultTopK        = 5
	DefaultTemperature = 0.3
)

// AskOptions configures a question.
type AskOptions struct {
	// TopK is the number of chunks to retrieve. Must be positive.
	TopK int

	// Temperature is passed to the generation model, in [0, 1].
	Temperature float64
}

// DefaultAskOptions returns the defaults used by every surface.
func DefaultAskOptions() AskOptions {
	return AskOptions{
		TopK:        DefaultTopK,
		Temperature: DefaultTemperature,
	}
}

// Source is the provenance record of one chunk used as context.
type Source struct {
	// DocID is the 1-based position of the chunk in the context.
	DocID int `json:"doc_id"`

	// Type is the chunk's document type.
	Type string `json:"type"`

	// Name is the record name, "Unknown" when absent.
	Name string `json:"name"`

	// Source is the provenance label.
	Source string `json:"source"`

	// URL is the canonical external reference, empty when absent.
	URL string `json:"url"`

	// RelevanceScore is the similarity score rounded to 3 decimals.
	RelevanceScore float64 `json:"relevance_score"`
}

// AnswerResponse is the structured answer to one question.
type AnswerResponse struct {
	// Answer is the generated text, or an inline error description.
	Answer string `json:"answer"`

	// Sources lists the chunks supplied to the generator, in rank order.
	Sources []Source `json:"sources"`

	// ContextUsed is the number of chunks supplied to the generator.
	ContextUsed int `json:"context_used"`
}

// GenerationResult is the outcome of one call to the generation model.
// Exactly one of Text or Err is meaningful.
type GenerationResult struct {
	// Text is the generated completion on success.
	Text string

	// Err is the failure reason.
	Err error
}

// GenerationSucceeded wraps a completion.
func GenerationSucceeded(text string) GenerationResult {
	return GenerationResult{Text: text}
}

// GenerationFailed wraps a failure reason.
func GenerationFailed(err error) GenerationResult {
	return GenerationResult{Err: err}
}

// Failed returns true if the call did not produce a completion.
func (r GenerationResult) Failed() bool {
	return r.Err != nil
}

// EngineStatus describes the loaded engine.
type EngineStatus struct {
	// Ready is true once an index has been loaded.
	Ready bool

	// ChunksLoaded is the corpus size.
	ChunksLoaded int

	// Dimensions is the embedding dimensionality of the loaded index.
	Dimensions int

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string

	// LLMModel is the generation model name.
	LLMModel string
}
