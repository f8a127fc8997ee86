package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

func TestAskCmd_SingleQuestion(t *testing.T) {
	w := setupTestWiring(t)

	out, err := executeCommand(t, "", "ask", "How many hit points does a goblin have?")

	require.NoError(t, err)
	assert.True(t, w.engine.loaded)
	assert.Equal(t, []string{"How many hit points does a goblin have?"}, w.engine.asked)
	assert.Equal(t, domain.DefaultAskOptions(), w.engine.gotOpts)
	assert.Contains(t, out, "A goblin has 7 hit points [1].")
	assert.Contains(t, out, "Sources (1):")
	assert.Contains(t, out, "[1] Goblin (monster, 0.874)")
	assert.Contains(t, out, "https://www.dnd5eapi.co/api/monsters/goblin")
}

func TestAskCmd_FlagsOverrideSettings(t *testing.T) {
	w := setupTestWiring(t)
	w.settings.settings.Retrieval = domain.RetrievalSettings{TopK: 8, Temperature: 0.9}

	t.Run("settings defaults", func(t *testing.T) {
		_, err := executeCommand(t, "", "ask", "q")
		require.NoError(t, err)
		assert.Equal(t, domain.AskOptions{TopK: 8, Temperature: 0.9}, w.engine.gotOpts)
	})

	t.Run("explicit flags", func(t *testing.T) {
		_, err := executeCommand(t, "", "ask", "-k", "3", "-t", "0", "q")
		require.NoError(t, err)
		assert.Equal(t, domain.AskOptions{TopK: 3, Temperature: 0}, w.engine.gotOpts)
	})
}

func TestAskCmd_JSON(t *testing.T) {
	setupTestWiring(t)

	out, err := executeCommand(t, "", "ask", "--json", "q")

	require.NoError(t, err)
	assert.Contains(t, out, `"context_used": 1`)
	assert.Contains(t, out, `"relevance_score": 0.874`)
}

func TestAskCmd_ReadsQuestionsFromStdin(t *testing.T) {
	w := setupTestWiring(t)

	_, err := executeCommand(t, "first\n\n  second  \nexit\nthird\n", "ask")

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, w.engine.asked)
}

func TestAskCmd_LoopContinuesAfterError(t *testing.T) {
	w := setupTestWiring(t)
	w.engine.askErr = errors.New("embedding service down")

	out, err := executeCommand(t, "one\ntwo\n", "ask")

	require.NoError(t, err)
	assert.Len(t, w.engine.asked, 2)
	assert.Equal(t, 2, strings.Count(out, "embedding service down"))
}

func TestAskCmd_NotBuilt(t *testing.T) {
	w := setupTestWiring(t)
	w.engine.loadErr = domain.ErrNotFound

	_, err := executeCommand(t, "", "ask", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'sage build' first")
	assert.Empty(t, w.engine.asked)
}

func TestRetrieveCmd(t *testing.T) {
	w := setupTestWiring(t)
	w.engine.ranked = []domain.ScoredChunk{
		{Chunk: testChunk(domain.DocTypeSpell, "Fireball", "# Fireball\nA bright streak flashes."), Score: 0.9123},
	}

	t.Run("table", func(t *testing.T) {
		out, err := executeCommand(t, "", "retrieve", "fire damage")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultTopK, w.engine.gotTopK)
		assert.Contains(t, out, "[1] Fireball (spell, 0.912)")
		assert.Contains(t, out, "A bright streak flashes.")
	})

	t.Run("top k flag", func(t *testing.T) {
		_, err := executeCommand(t, "", "retrieve", "-k", "2", "fire damage")
		require.NoError(t, err)
		assert.Equal(t, 2, w.engine.gotTopK)
	})

	t.Run("requires question", func(t *testing.T) {
		_, err := executeCommand(t, "", "retrieve")
		assert.Error(t, err)
	})
}

func TestRetrieveCmd_Empty(t *testing.T) {
	setupTestWiring(t)

	out, err := executeCommand(t, "", "retrieve", "q")
	require.NoError(t, err)
	assert.Contains(t, out, "No chunks indexed.")

	out, err = executeCommand(t, "", "retrieve", "--json", "q")
	require.NoError(t, err)
	assert.Contains(t, out, "[]")
}

func TestSourcesCmd(t *testing.T) {
	w := setupTestWiring(t)
	w.engine.sources = []domain.Metadata{
		{domain.MetaType: "spell", domain.MetaName: "Fireball", domain.MetaSource: "SRD 5e", domain.MetaURL: "https://example.test/fireball"},
		{domain.MetaType: "spell", domain.MetaName: "Shield", domain.MetaSource: "SRD 5e"},
	}

	t.Run("table", func(t *testing.T) {
		out, err := executeCommand(t, "", "sources", "spell")
		require.NoError(t, err)
		assert.Equal(t, "spell", w.engine.gotType)
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "Fireball")
		assert.Contains(t, out, "https://example.test/fireball")
		assert.Contains(t, out, "2 spell sources")
	})

	t.Run("json", func(t *testing.T) {
		out, err := executeCommand(t, "", "sources", "-f", "json", "spell")
		require.NoError(t, err)
		assert.Contains(t, out, `"name": "Shield"`)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := executeCommand(t, "", "sources", "--format", "yaml", "spell")
		require.NoError(t, err)
		assert.Contains(t, out, "name: Fireball")
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := executeCommand(t, "", "sources", "-f", "xml", "spell")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSourcesCmd_EmptyType(t *testing.T) {
	setupTestWiring(t)

	out, err := executeCommand(t, "", "sources", "dragon")

	require.NoError(t, err)
	assert.Contains(t, out, "No dragon sources indexed.")
}

func TestFetchCmd(t *testing.T) {
	w := setupTestWiring(t)
	w.fetcher.counts = map[domain.Category]int{
		domain.CategorySpells:   319,
		domain.CategoryMonsters: 334,
		domain.CategoryRules:    33,
	}

	t.Run("all categories by default", func(t *testing.T) {
		out, err := executeCommand(t, "", "fetch")
		require.NoError(t, err)
		assert.Equal(t, domain.Categories(), w.fetcher.gotCategories)
		assert.Contains(t, out, "spells: 319")
		assert.Contains(t, out, "Run 'sage build'")
	})

	t.Run("selected categories", func(t *testing.T) {
		out, err := executeCommand(t, "", "fetch", "rules", "rules")
		require.NoError(t, err)
		assert.Equal(t, []domain.Category{domain.CategoryRules}, w.fetcher.gotCategories)
		assert.NotContains(t, out, "spells:")
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := executeCommand(t, "", "fetch", "items")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCorpusBuildCmd(t *testing.T) {
	w := setupTestWiring(t)

	out, err := executeCommand(t, "", "corpus", "build")

	require.NoError(t, err)
	assert.Equal(t, 1, w.builder.calls)
	assert.Contains(t, out, "Corpus built: 3 chunks")
	assert.Less(t, strings.Index(out, "monster: 2"), strings.Index(out, "spell: 1"))
}

func TestIndexBuildCmd(t *testing.T) {
	w := setupTestWiring(t)

	out, err := executeCommand(t, "", "index", "build")

	require.NoError(t, err)
	assert.True(t, w.indexer.rebuilt)
	assert.Contains(t, out, "Index built: 3 vectors, 3 dimensions")
}

func TestBuildCmd(t *testing.T) {
	w := setupTestWiring(t)

	out, err := executeCommand(t, "", "build")

	require.NoError(t, err)
	assert.Len(t, w.indexer.gotChunks, 3)
	assert.False(t, w.indexer.rebuilt)
	assert.Contains(t, out, "Corpus built: 3 chunks")
	assert.Contains(t, out, "Index built: 3 vectors")
}

func TestBuildCmd_CorpusFailure(t *testing.T) {
	w := setupTestWiring(t)
	w.builder.err = errors.New("no raw files")

	_, err := executeCommand(t, "", "build")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no raw files")
	assert.Nil(t, w.indexer.gotChunks)
}

func TestSettingsSetCmd(t *testing.T) {
	w := setupTestWiring(t)

	t.Run("plain value", func(t *testing.T) {
		out, err := executeCommand(t, "", "settings", "set", "retrieval.top_k", "8")
		require.NoError(t, err)
		assert.Equal(t, "8", w.settings.set["retrieval.top_k"])
		assert.Contains(t, out, "retrieval.top_k = 8")
	})

	t.Run("api key is masked", func(t *testing.T) {
		out, err := executeCommand(t, "", "settings", "set", "llm.api_key", "sk-ant-1234567890")
		require.NoError(t, err)
		assert.Contains(t, out, "llm.api_key = sk-a...7890")
		assert.NotContains(t, out, "1234567890")
	})

	t.Run("api key prompt", func(t *testing.T) {
		_, err := executeCommand(t, "sk-prompted-key\n", "settings", "set", "embedding.api_key")
		require.NoError(t, err)
		assert.Equal(t, "sk-prompted-key", w.settings.set["embedding.api_key"])
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := executeCommand(t, "", "settings", "set", "llm.model")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejected key", func(t *testing.T) {
		w.settings.setErr = domain.ErrInvalidInput
		defer func() { w.settings.setErr = nil }()
		_, err := executeCommand(t, "", "settings", "set", "nope", "1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsShowCmd(t *testing.T) {
	w := setupTestWiring(t)
	w.settings.entries = []domain.SettingEntry{
		{Key: "llm.api_key", Value: "sk-abcdefghijkl", Source: "env", Secret: true},
		{Key: "embedding.api_key", Source: "default", Secret: true},
		{Key: "llm.model", Value: "gpt-4o-mini", Source: "config"},
	}
	w.settings.settings.LLM.Provider = domain.AIProviderOpenAI

	out, err := executeCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "sk-a...ijkl")
	assert.NotContains(t, out, "sk-abcdefghijkl")
	assert.Contains(t, out, "(not set)")
	assert.Contains(t, out, "gpt-4o-mini")
	assert.Contains(t, out, "Warning: LLM provider is not configured")
	assert.NotContains(t, out, "Warning: embedding provider")
}

func TestSettingsLLMCmd(t *testing.T) {
	w := setupTestWiring(t)

	out, err := executeCommand(t, "2\n\nsk-test-123456789\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, w.settings.settings.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", w.settings.settings.LLM.Model)
	assert.Equal(t, "sk-test-123456789", w.settings.settings.LLM.APIKey)
	assert.Contains(t, out, "LLM provider configured: OpenAI (cloud) (gpt-4o-mini)")
}

func TestSettingsEmbeddingCmd_DefaultsToOllama(t *testing.T) {
	w := setupTestWiring(t)

	_, err := executeCommand(t, "\nnomic-embed-text\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, w.settings.settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", w.settings.settings.Embedding.Model)
}

func TestParseCategories(t *testing.T) {
	got, err := parseCategories([]string{"monsters", "spells", "monsters"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{domain.CategoryMonsters, domain.CategorySpells}, got)

	_, err = parseCategories([]string{"Spells"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFirstContentLine(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "skips headings", text: "# Goblin\n\n## Actions\nScimitar attack.", want: "Scimitar attack."},
		{name: "only headings", text: "# Goblin", want: ""},
		{name: "truncates", text: strings.Repeat("a", 120), want: strings.Repeat("a", 100) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstContentLine(tt.text))
		})
	}
}

func TestChunkTitle(t *testing.T) {
	assert.Equal(t, "Goblin", chunkTitle(domain.Metadata{domain.MetaName: "Goblin"}))
	assert.Equal(t, "Combat", chunkTitle(domain.Metadata{domain.MetaSection: "Combat"}))
	assert.Equal(t, "Unknown", chunkTitle(domain.Metadata{}))
}
