package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.AskService = (*Engine)(nil)

// Engine answers questions against a loaded embedding index.
// The index is swapped in atomically by Load and never mutated, so
// concurrent requests read it without locking.
type Engine struct {
	store       driven.SnapshotStore
	embedder    driven.EmbeddingService
	llm         driven.LLMService
	retriever   *Retriever
	synthesizer *Synthesizer
	chunkID     func(text string) string
	index       atomic.Pointer[domain.EmbeddingIndex]
}

// NewEngine creates an engine. It is not ready until Load succeeds.
// llm may be nil; answers then carry the failure inline.
func NewEngine(
	store driven.SnapshotStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	opts ...SynthesizerOption,
) *Engine {
	return &Engine{
		store:       store,
		embedder:    embedder,
		llm:         llm,
		retriever:   NewRetriever(embedder),
		synthesizer: NewSynthesizer(llm, opts...),
	}
}

// WithChunkID makes Load recompute every chunk id from its text and reject
// a snapshot whose corpus no longer matches its ids.
func (e *Engine) WithChunkID(idFor func(text string) string) *Engine {
	e.chunkID = idFor
	return e
}

// Load reads the snapshot, validates it and makes it the serving index.
// On failure the previously loaded index, if any, stays in place.
func (e *Engine) Load(ctx context.Context) error {
	logger.Section("Engine Load")

	index, err := e.store.LoadIndex(ctx)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	if err := index.Validate(); err != nil {
		return err
	}
	if e.chunkID != nil {
		if err := index.VerifyChunkIDs(e.chunkID); err != nil {
			return err
		}
	}
	if e.embedder != nil && index.Len() > 0 {
		if dims := e.embedder.Dimensions(); dims > 0 && dims != index.Dimensions() {
			return fmt.Errorf("%w: index has %d dimensions, %s produces %d",
				domain.ErrIndexMismatch, index.Dimensions(), e.embedder.ModelName(), dims)
		}
	}

	e.index.Store(index)
	logger.Info("Engine ready: %d chunks, %d dimensions", index.Len(), index.Dimensions())
	return nil
}

// Retrieve ranks the corpus against a question.
func (e *Engine) Retrieve(ctx context.Context, question string, topK int) ([]domain.ScoredChunk, error) {
	index, err := e.current()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	return e.retriever.Retrieve(ctx, index, question, topK)
}

// GenerateAnswer synthesizes a grounded answer from ranked chunks.
func (e *Engine) GenerateAnswer(
	ctx context.Context, question string, ranked []domain.ScoredChunk, temperature float64,
) (*domain.AnswerResponse, error) {
	if _, err := e.current(); err != nil {
		return nil, err
	}
	if err := validateTemperature(temperature); err != nil {
		return nil, err
	}
	return e.synthesizer.Synthesize(ctx, question, ranked, temperature), nil
}

// Ask retrieves context for a question and answers it.
func (e *Engine) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.AnswerResponse, error) {
	if _, err := e.current(); err != nil {
		return nil, err
	}
	if err := validateTemperature(opts.Temperature); err != nil {
		return nil, err
	}

	ranked, err := e.Retrieve(ctx, question, opts.TopK)
	if err != nil {
		return nil, err
	}
	return e.GenerateAnswer(ctx, question, ranked, opts.Temperature)
}

// Sources returns the metadata of every chunk of docType, in corpus order.
func (e *Engine) Sources(_ context.Context, docType string) ([]domain.Metadata, error) {
	index, err := e.current()
	if err != nil {
		return nil, err
	}

	out := []domain.Metadata{}
	for _, c := range index.Chunks {
		if c.Type() == docType {
			out = append(out, c.Metadata.Clone())
		}
	}
	return out, nil
}

// Status describes the loaded engine.
func (e *Engine) Status() domain.EngineStatus {
	status := domain.EngineStatus{}
	if e.embedder != nil {
		status.EmbeddingModel = e.embedder.ModelName()
	}
	if e.llm != nil {
		status.LLMModel = e.llm.ModelName()
	}
	if index := e.index.Load(); index != nil {
		status.Ready = true
		status.ChunksLoaded = index.Len()
		status.Dimensions = index.Dimensions()
	}
	return status
}

func (e *Engine) current() (*domain.EmbeddingIndex, error) {
	index := e.index.Load()
	if index == nil {
		return nil, domain.ErrEngineNotReady
	}
	return index, nil
}

func validateTemperature(t float64) error {
	if t < 0 || t > 1 {
		return fmt.Errorf("%w: temperature must be between 0 and 1, got %g", domain.ErrInvalidInput, t)
	}
	return nil
}
