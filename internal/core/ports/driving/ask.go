package driving

import (
	"context"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// AskService is the engine contract consumed by the CLI, HTTP API, MCP server and TUI.
// Every method returns domain.ErrEngineNotReady until Load succeeds.
type AskService interface {
	// Load reads and validates the corpus and index snapshot.
	// It is the single point at which engine state changes.
	Load(ctx context.Context) error

	// Retrieve ranks the corpus against a question and returns min(topK, N) chunks.
	Retrieve(ctx context.Context, question string, topK int) ([]domain.ScoredChunk, error)

	// GenerateAnswer synthesizes a grounded answer from ranked chunks.
	// Generation failures are reported inside the answer text.
	GenerateAnswer(ctx context.Context, question string, ranked []domain.ScoredChunk, temperature float64) (*domain.AnswerResponse, error)

	// Ask retrieves and generates in one call.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.AnswerResponse, error)

	// Sources returns the metadata of every chunk of a document type, in corpus order.
	Sources(ctx context.Context, docType string) ([]domain.Metadata, error)

	// Status describes the loaded engine.
	Status() domain.EngineStatus
}
