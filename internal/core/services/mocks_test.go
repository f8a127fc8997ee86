package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts found in vectors get that vector; everything else gets fallback.
type mockEmbeddingService struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	dims     int
	batches  []int
	short    bool
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return m.fallback
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, len(texts))
	m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, 0, len(texts))
	for _, t := range texts {
		result = append(result, m.vectorFor(t))
	}
	if m.short && len(result) > 0 {
		result = result[:len(result)-1]
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return m.dims }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu          sync.Mutex
	response    string
	generateErr error
	block       bool
	prompts     []string
	options     []driven.GenerateOptions
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, opts)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.response, nil
}

func (m *mockLLMService) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	template string
	err      error
}

func (m *mockPromptStore) Load(_ string) (string, error) {
	return m.template, m.err
}

func (m *mockPromptStore) Reload() {}

// mockRecordSource implements driven.RecordSource for testing.
type mockRecordSource struct {
	records map[domain.Category][]domain.RawRecord
	errs    map[domain.Category]error
	loaded  []domain.Category
}

func (m *mockRecordSource) Load(_ context.Context, category domain.Category) ([]domain.RawRecord, error) {
	m.loaded = append(m.loaded, category)
	if err := m.errs[category]; err != nil {
		return nil, err
	}
	records, ok := m.records[category]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return records, nil
}

func (m *mockRecordSource) Paths() []string { return nil }

// mockChunker implements RecordChunker: one chunk per record, text from "name".
type mockChunker struct {
	err error
}

func (m *mockChunker) Chunk(record domain.RawRecord, category domain.Category) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	name, _ := record["name"].(string)
	return []domain.Chunk{{
		ID:         category.String() + ":" + name,
		Text:       name,
		Metadata:   domain.Metadata{domain.MetaType: category.DocType(), domain.MetaName: name},
		TokenCount: 1,
	}}, nil
}

// mockCatalogFetcher implements driven.CatalogFetcher for testing.
type mockCatalogFetcher struct {
	records map[domain.Category][]domain.RawRecord
	err     error
}

func (m *mockCatalogFetcher) Fetch(_ context.Context, category domain.Category) ([]domain.RawRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records[category], nil
}

// mockRecordSink implements driven.RecordSink for testing.
type mockRecordSink struct {
	saved map[domain.Category][]domain.RawRecord
	err   error
}

func (m *mockRecordSink) Save(_ context.Context, category domain.Category, records []domain.RawRecord) error {
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = make(map[domain.Category][]domain.RawRecord)
	}
	m.saved[category] = records
	return nil
}

// failingSnapshotStore fails every save and load.
type failingSnapshotStore struct{}

var errStoreFailed = errors.New("store failed")

func (failingSnapshotStore) SaveCorpus(context.Context, []domain.Chunk) error { return errStoreFailed }

func (failingSnapshotStore) LoadCorpus(context.Context) ([]domain.Chunk, error) {
	return nil, errStoreFailed
}

func (failingSnapshotStore) SaveIndex(context.Context, *domain.EmbeddingIndex) error {
	return errStoreFailed
}

func (failingSnapshotStore) LoadIndex(context.Context) (*domain.EmbeddingIndex, error) {
	return nil, errStoreFailed
}

func (failingSnapshotStore) Close() error { return nil }

// scoredIndex builds an index whose 1-d vectors make the dot product with
// the query [1] equal the given scores.
func scoredIndex(scores ...float32) *domain.EmbeddingIndex {
	chunks := make([]domain.Chunk, len(scores))
	vectors := make([][]float32, len(scores))
	for i, s := range scores {
		name := string(rune('A' + i))
		chunks[i] = domain.Chunk{
			ID:   "chunk-" + name,
			Text: "text " + name,
			Metadata: domain.Metadata{
				domain.MetaType:   domain.DocTypeRule,
				domain.MetaName:   name,
				domain.MetaSource: "SRD 5e",
			},
		}
		vectors[i] = []float32{s}
	}
	return &domain.EmbeddingIndex{
		Chunks:  chunks,
		Vectors: vectors,
		Entries: domain.NewIndexEntries(chunks),
	}
}
