package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// Ensure FetchService implements the interface.
var _ driving.FetchService = (*FetchService)(nil)

// FetchService downloads remote catalog categories into the raw record store.
type FetchService struct {
	fetcher driven.CatalogFetcher
	sink    driven.RecordSink
}

// NewFetchService creates a new fetch service.
func NewFetchService(fetcher driven.CatalogFetcher, sink driven.RecordSink) *FetchService {
	return &FetchService{fetcher: fetcher, sink: sink}
}

// Fetch downloads each category and saves it. An empty list fetches all categories.
func (s *FetchService) Fetch(ctx context.Context, categories []domain.Category) (map[domain.Category]int, error) {
	if len(categories) == 0 {
		categories = domain.Categories()
	}

	counts := make(map[domain.Category]int, len(categories))
	for _, category := range categories {
		if !category.IsValid() {
			return counts, fmt.Errorf("%w: category %q", domain.ErrUnsupportedType, category)
		}

		logger.Section("Fetch " + category.String())
		records, err := s.fetcher.Fetch(ctx, category)
		if err != nil {
			return counts, fmt.Errorf("fetch %s: %w", category, err)
		}
		if err := s.sink.Save(ctx, category, records); err != nil {
			return counts, fmt.Errorf("save %s: %w", category, err)
		}

		counts[category] = len(records)
		logger.Info("%s: %d records", category, len(records))
	}
	return counts, nil
}
