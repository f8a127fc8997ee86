package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

func testIndex() *domain.EmbeddingIndex {
	chunks := []domain.Chunk{
		{
			ID:   "c-fireball",
			Text: "# Fireball\n\n**Level:** 3",
			Metadata: domain.Metadata{
				domain.MetaType:  domain.DocTypeSpell,
				domain.MetaName:  "Fireball",
				domain.MetaLevel: 3,
			},
			TokenCount: 7,
		},
		{
			ID:   "c-grapple",
			Text: "# Grappling\n\nWhen you want to grab a creature & wrestle",
			Metadata: domain.Metadata{
				domain.MetaType:       domain.DocTypeRule,
				domain.MetaSection:    "Grappling",
				domain.MetaChunkIndex: 0,
			},
			TokenCount: 11,
		},
	}
	return &domain.EmbeddingIndex{
		Chunks:  chunks,
		Vectors: [][]float32{{0.25, -0.5}, {1, 0.125}},
		Entries: domain.NewIndexEntries(chunks),
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewStore_RequiresDir(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestStore_LoadCorpus_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadCorpus(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CorpusRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	index := testIndex()

	require.NoError(t, store.SaveCorpus(ctx, index.Chunks))
	assert.FileExists(t, filepath.Join(store.DataDir(), "processed", "all_chunks.json"))

	chunks, err := store.LoadCorpus(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, index.Chunks[1].Text, chunks[1].Text)
	assert.Equal(t, json.Number("3"), chunks[0].Metadata[domain.MetaLevel])
	assert.Equal(t, "0", chunks[1].Metadata.String(domain.MetaChunkIndex))
}

func TestStore_SaveCorpus_JSONShape(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveCorpus(context.Background(), testIndex().Chunks))

	data, err := os.ReadFile(filepath.Join(store.DataDir(), CorpusFile))
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {"))
	assert.Contains(t, text, `"token_count": 7`)
	assert.Contains(t, text, "creature & wrestle", "no HTML escaping")

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.ElementsMatch(t, []string{"id", "text", "metadata", "token_count"}, keys(decoded[0]))
}

func TestStore_SaveCorpus_Deterministic(t *testing.T) {
	first := newTestStore(t)
	second := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, first.SaveCorpus(ctx, testIndex().Chunks))
	require.NoError(t, second.SaveCorpus(ctx, testIndex().Chunks))

	a, err := os.ReadFile(filepath.Join(first.DataDir(), CorpusFile))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(second.DataDir(), CorpusFile))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStore_IndexRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	index := testIndex()

	require.NoError(t, store.SaveCorpus(ctx, index.Chunks))
	require.NoError(t, store.SaveIndex(ctx, index))

	assert.FileExists(t, filepath.Join(store.DataDir(), "embeddings", "embeddings.npy"))
	assert.FileExists(t, filepath.Join(store.DataDir(), "embeddings", "metadata.json"))

	loaded, err := store.LoadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, index.Vectors, loaded.Vectors)
	assert.Equal(t, 2, loaded.Dimensions())
	assert.Equal(t, "c-grapple", loaded.Entries[1].ChunkID)
	assert.Equal(t, 1, loaded.Entries[1].ID)
	assert.NoError(t, store.Close())
}

func TestStore_LoadIndex_Missing(t *testing.T) {
	ctx := context.Background()

	t.Run("no corpus", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.LoadIndex(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no embeddings", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SaveCorpus(ctx, testIndex().Chunks))
		_, err := store.LoadIndex(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no metadata", func(t *testing.T) {
		store := newTestStore(t)
		index := testIndex()
		require.NoError(t, store.SaveCorpus(ctx, index.Chunks))
		require.NoError(t, store.SaveIndex(ctx, index))
		require.NoError(t, os.Remove(filepath.Join(store.DataDir(), MetadataFile)))

		_, err := store.LoadIndex(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStore_LoadIndex_Mismatch(t *testing.T) {
	ctx := context.Background()

	t.Run("corpus rebuilt without reindex", func(t *testing.T) {
		store := newTestStore(t)
		index := testIndex()
		require.NoError(t, store.SaveCorpus(ctx, index.Chunks))
		require.NoError(t, store.SaveIndex(ctx, index))

		changed := testIndex().Chunks
		changed[0].ID = "c-fire-bolt"
		require.NoError(t, store.SaveCorpus(ctx, changed))

		_, err := store.LoadIndex(ctx)
		assert.ErrorIs(t, err, domain.ErrIndexMismatch)
	})

	t.Run("row count differs", func(t *testing.T) {
		store := newTestStore(t)
		index := testIndex()
		require.NoError(t, store.SaveCorpus(ctx, index.Chunks))
		require.NoError(t, store.SaveIndex(ctx, index))
		require.NoError(t, store.SaveCorpus(ctx, index.Chunks[:1]))

		_, err := store.LoadIndex(ctx)
		assert.ErrorIs(t, err, domain.ErrIndexMismatch)
	})

	t.Run("corrupt npy", func(t *testing.T) {
		store := newTestStore(t)
		index := testIndex()
		require.NoError(t, store.SaveCorpus(ctx, index.Chunks))
		require.NoError(t, store.SaveIndex(ctx, index))
		require.NoError(t, os.WriteFile(filepath.Join(store.DataDir(), EmbeddingsFile), []byte("garbage"), 0600))

		_, err := store.LoadIndex(ctx)
		assert.ErrorIs(t, err, domain.ErrIndexMismatch)
	})
}

func TestStore_SaveIndex_RejectsMisaligned(t *testing.T) {
	store := newTestStore(t)
	index := testIndex()
	index.Entries[1].ChunkID = "other"

	err := store.SaveIndex(context.Background(), index)
	assert.ErrorIs(t, err, domain.ErrIndexMismatch)
	assert.NoFileExists(t, filepath.Join(store.DataDir(), EmbeddingsFile))
}

func TestStore_LoadCorpus_InvalidJSON(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.DataDir(), CorpusFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := store.LoadCorpus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, writeFileAtomic(path, []byte("[]")))
	require.NoError(t, writeFileAtomic(path, []byte("[1]")))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(data))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
