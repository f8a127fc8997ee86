package driven

import (
	"context"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// RecordSource reads raw records produced by the acquisition step.
type RecordSource interface {
	// Load returns every record of a category.
	// Returns domain.ErrNotFound if the category was never collected.
	Load(ctx context.Context, category domain.Category) ([]domain.RawRecord, error)

	// Paths returns the files backing the source, for change watching.
	Paths() []string
}

// CatalogFetcher downloads raw records from a remote rules catalog.
type CatalogFetcher interface {
	// Fetch downloads every item of a category.
	// Items that fail individually are skipped.
	Fetch(ctx context.Context, category domain.Category) ([]domain.RawRecord, error)
}

// RecordSink writes raw records for a category.
type RecordSink interface {
	// Save replaces the stored records of a category.
	Save(ctx context.Context, category domain.Category, records []domain.RawRecord) error
}
