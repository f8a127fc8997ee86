package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// llmErrorPrefix starts every answer that carries a generation failure.
const llmErrorPrefix = "Error calling LLM: "

// Synthesizer builds a grounded prompt from ranked chunks and asks the LLM to answer it.
// It is stateless per call and never retries.
type Synthesizer struct {
	llm       driven.LLMService
	prompts   driven.PromptStore
	maxTokens int
	timeout   time.Duration
}

// SynthesizerOption configures the synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithPromptStore loads the answer template from a prompt store.
func WithPromptStore(store driven.PromptStore) SynthesizerOption {
	return func(s *Synthesizer) {
		s.prompts = store
	}
}

// WithMaxTokens caps the generated answer length.
func WithMaxTokens(n int) SynthesizerOption {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTimeout bounds a single generation call.
func WithTimeout(d time.Duration) SynthesizerOption {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSynthesizer creates a synthesizer. llm may be nil, in which case every
// answer reports the generator as unavailable.
func NewSynthesizer(llm driven.LLMService, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		llm:       llm,
		maxTokens: domain.DefaultAnswerTokens,
		timeout:   domain.DefaultLLMTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize answers query from the ranked chunks. A failed generation is
// reported in the answer text; sources and context_used are always populated.
func (s *Synthesizer) Synthesize(
	ctx context.Context, query string, ranked []domain.ScoredChunk, temperature float64,
) *domain.AnswerResponse {
	documents, sources := BuildContext(ranked)
	prompt := s.BuildPrompt(documents, query)

	result := s.generate(ctx, prompt, temperature)

	answer := result.Text
	if result.Failed() {
		logger.Warn("generation failed: %v", result.Err)
		answer = llmErrorPrefix + result.Err.Error()
	}

	return &domain.AnswerResponse{
		Answer:      strings.TrimSpace(answer),
		Sources:     sources,
		ContextUsed: len(ranked),
	}
}

// BuildContext renders ranked chunks as numbered document blocks and builds
// their source records. Numbering is 1-based in rank order.
func BuildContext(ranked []domain.ScoredChunk) (string, []domain.Source) {
	blocks := make([]string, len(ranked))
	sources := make([]domain.Source, len(ranked))

	for i, sc := range ranked {
		docID := i + 1
		blocks[i] = fmt.Sprintf("[Document %d]\n%s", docID, sc.Chunk.Text)

		meta := sc.Chunk.Metadata
		sources[i] = domain.Source{
			DocID:          docID,
			Type:           meta.String(domain.MetaType),
			Name:           meta.StringOr(domain.MetaName, "Unknown"),
			Source:         meta.String(domain.MetaSource),
			URL:            meta.String(domain.MetaURL),
			RelevanceScore: roundScore(sc.Score),
		}
	}

	return strings.Join(blocks, "\n\n"), sources
}

// BuildPrompt fills the answer template with the document context and the question.
func (s *Synthesizer) BuildPrompt(documents, query string) string {
	template := driven.DefaultAnswerPrompt
	if s.prompts != nil {
		custom, err := s.prompts.Load(driven.PromptAnswer)
		switch {
		case err != nil:
			logger.Warn("using built-in answer prompt: %v", err)
		case custom == "":
		case !validTemplate(custom):
			logger.Warn("using built-in answer prompt: custom template must contain exactly two %%s and no other verbs")
		default:
			template = custom
		}
	}
	return fmt.Sprintf(template, documents, query)
}

// validTemplate reports whether t has exactly two %s verbs and otherwise
// only escaped %% sequences.
func validTemplate(t string) bool {
	verbs := 0
	for i := 0; i < len(t); i++ {
		if t[i] != '%' {
			continue
		}
		if i+1 >= len(t) {
			return false
		}
		switch t[i+1] {
		case 's':
			verbs++
		case '%':
		default:
			return false
		}
		i++
	}
	return verbs == 2
}

func (s *Synthesizer) generate(ctx context.Context, prompt string, temperature float64) domain.GenerationResult {
	if s.llm == nil {
		return domain.GenerationFailed(domain.ErrLLMUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger.Debug("Generating with %s (temperature %.2f, max tokens %d)", s.llm.ModelName(), temperature, s.maxTokens)
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return domain.GenerationFailed(err)
	}
	return domain.GenerationSucceeded(text)
}

func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
