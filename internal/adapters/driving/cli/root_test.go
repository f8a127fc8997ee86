package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
)

// fakeEngine implements driving.AskService for CLI tests.
type fakeEngine struct {
	loadErr error
	ranked  []domain.ScoredChunk
	answer  *domain.AnswerResponse
	askErr  error
	sources []domain.Metadata
	status  domain.EngineStatus
	loaded  bool
	asked   []string
	gotOpts domain.AskOptions
	gotTopK int
	gotType string
}

func (f *fakeEngine) Load(context.Context) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = true
	return nil
}

func (f *fakeEngine) Retrieve(_ context.Context, _ string, topK int) ([]domain.ScoredChunk, error) {
	f.gotTopK = topK
	return f.ranked, nil
}

func (f *fakeEngine) GenerateAnswer(
	context.Context, string, []domain.ScoredChunk, float64,
) (*domain.AnswerResponse, error) {
	return f.answer, nil
}

func (f *fakeEngine) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.AnswerResponse, error) {
	f.asked = append(f.asked, question)
	f.gotOpts = opts
	if f.askErr != nil {
		return nil, f.askErr
	}
	return f.answer, nil
}

func (f *fakeEngine) Sources(_ context.Context, docType string) ([]domain.Metadata, error) {
	f.gotType = docType
	return f.sources, nil
}

func (f *fakeEngine) Status() domain.EngineStatus { return f.status }

// fakeBuilder implements driving.CorpusBuilder.
type fakeBuilder struct {
	chunks []domain.Chunk
	err    error
	calls  int
}

func (f *fakeBuilder) Build(context.Context) ([]domain.Chunk, error) {
	f.calls++
	return f.chunks, f.err
}

// fakeIndexer implements driving.Indexer.
type fakeIndexer struct {
	index     *domain.EmbeddingIndex
	err       error
	gotChunks []domain.Chunk
	rebuilt   bool
}

func (f *fakeIndexer) BuildIndex(_ context.Context, chunks []domain.Chunk) (*domain.EmbeddingIndex, error) {
	f.gotChunks = chunks
	return f.index, f.err
}

func (f *fakeIndexer) Rebuild(context.Context) (*domain.EmbeddingIndex, error) {
	f.rebuilt = true
	return f.index, f.err
}

// fakeFetcher implements driving.FetchService.
type fakeFetcher struct {
	counts        map[domain.Category]int
	err           error
	gotCategories []domain.Category
}

func (f *fakeFetcher) Fetch(_ context.Context, categories []domain.Category) (map[domain.Category]int, error) {
	f.gotCategories = categories
	return f.counts, f.err
}

// fakeSettings implements driving.SettingsService.
type fakeSettings struct {
	settings domain.AppSettings
	entries  []domain.SettingEntry
	setErr   error
	set      map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: domain.DefaultAppSettings(), set: make(map[string]string)}
}

func (f *fakeSettings) Get() (*domain.AppSettings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeSettings) Save(s *domain.AppSettings) error {
	f.settings = *s
	return nil
}

func (f *fakeSettings) Set(key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.set[key] = value
	return nil
}

func (f *fakeSettings) Entries() ([]domain.SettingEntry, error) { return f.entries, nil }

func (f *fakeSettings) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	f.settings.Embedding.Provider = p
	f.settings.Embedding.Model = model
	f.settings.Embedding.APIKey = apiKey
	return nil
}

func (f *fakeSettings) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	f.settings.LLM.Provider = p
	f.settings.LLM.Model = model
	f.settings.LLM.APIKey = apiKey
	return nil
}

func (f *fakeSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (f *fakeSettings) ValidateEmbeddingConfig() error { return nil }

func (f *fakeSettings) ValidateLLMConfig() error { return nil }

// fakeWiring implements Wiring with the fakes above.
type fakeWiring struct {
	engine     *fakeEngine
	builder    *fakeBuilder
	indexer    *fakeIndexer
	fetcher    *fakeFetcher
	settings   *fakeSettings
	watchPaths []string
	initOpts   Options
	initErr    error
}

func (w *fakeWiring) Init(opts Options) error {
	w.initOpts = opts
	return w.initErr
}

func (w *fakeWiring) Settings() (driving.SettingsService, error) { return w.settings, nil }

func (w *fakeWiring) CorpusBuilder() (driving.CorpusBuilder, error) { return w.builder, nil }

func (w *fakeWiring) Indexer() (driving.Indexer, error) { return w.indexer, nil }

func (w *fakeWiring) Engine() (driving.AskService, error) { return w.engine, nil }

func (w *fakeWiring) Fetcher() (driving.FetchService, error) { return w.fetcher, nil }

func (w *fakeWiring) WatchPaths() ([]string, error) { return w.watchPaths, nil }

func (w *fakeWiring) Close() error { return nil }

func testChunk(docType, name, text string) domain.Chunk {
	return domain.Chunk{
		ID:   name,
		Text: text,
		Metadata: domain.Metadata{
			domain.MetaType:   docType,
			domain.MetaName:   name,
			domain.MetaSource: "SRD 5e",
			domain.MetaURL:    "https://www.dnd5eapi.co/api/" + name,
		},
	}
}

// setupTestWiring installs a fake wiring and restores the previous one after the test.
func setupTestWiring(t *testing.T) *fakeWiring {
	t.Helper()
	chunks := []domain.Chunk{
		testChunk(domain.DocTypeSpell, "Fireball", "# Fireball\nA bright streak flashes."),
		testChunk(domain.DocTypeMonster, "Goblin", "# Goblin\nSmall humanoid."),
		testChunk(domain.DocTypeMonster, "Orc", "# Orc\nMedium humanoid."),
	}
	w := &fakeWiring{
		engine: &fakeEngine{
			status: domain.EngineStatus{Ready: true, ChunksLoaded: 2},
			answer: &domain.AnswerResponse{
				Answer: "A goblin has 7 hit points [1].",
				Sources: []domain.Source{
					{DocID: 1, Type: "monster", Name: "Goblin", Source: "SRD 5e", URL: "https://www.dnd5eapi.co/api/monsters/goblin", RelevanceScore: 0.874},
				},
				ContextUsed: 1,
			},
		},
		builder: &fakeBuilder{chunks: chunks},
		indexer: &fakeIndexer{index: &domain.EmbeddingIndex{
			Chunks:  chunks,
			Vectors: [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		}},
		fetcher:  &fakeFetcher{},
		settings: newFakeSettings(),
	}

	prev := wiring
	SetWiring(w)
	t.Cleanup(func() { SetWiring(prev) })
	return w
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns its combined output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_InitPassesOptions(t *testing.T) {
	w := setupTestWiring(t)

	_, err := executeCommand(t, "", "--config-dir", "/tmp/sage-test", "-v", "version")

	require.NoError(t, err)
	assert.Equal(t, Options{ConfigDir: "/tmp/sage-test", Verbose: true}, w.initOpts)
}

func TestRootCmd_InitError(t *testing.T) {
	w := setupTestWiring(t)
	w.initErr = errors.New("bad config")

	_, err := executeCommand(t, "", "version")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestLoadedEngine_NotWired(t *testing.T) {
	prev := wiring
	SetWiring(nil)
	defer SetWiring(prev)

	_, err := loadedEngine(context.Background())

	assert.ErrorIs(t, err, errNotWired)
}

func TestLoadedEngine_LoadFailureHintsBuild(t *testing.T) {
	w := setupTestWiring(t)
	w.engine.loadErr = domain.ErrNotFound

	_, err := loadedEngine(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "sage build")
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}
