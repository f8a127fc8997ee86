package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
	"github.com/custodia-labs/sages-oracle/internal/core/services"
)

// settingsWiring serves a real settings service over an in-memory config store.
type settingsWiring struct {
	*fakeWiring
	svc driving.SettingsService
}

func (w *settingsWiring) Settings() (driving.SettingsService, error) { return w.svc, nil }

func setupSettingsWiring(t *testing.T) (*services.SettingsService, *memory.ConfigStore) {
	t.Helper()
	store := memory.NewConfigStore()
	svc := services.NewSettingsService(store, nil)
	svc.SetEnvLookup(func(string) (string, bool) { return "", false })

	SetWiring(&settingsWiring{fakeWiring: setupTestWiring(t), svc: svc})
	return svc, store
}

// settingsRow returns the whitespace-separated fields of the table row for key.
func settingsRow(t *testing.T, out, key string) []string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == key {
			return fields
		}
	}
	t.Fatalf("no row for %s in:\n%s", key, out)
	return nil
}

func TestSettingsSet(t *testing.T) {
	t.Run("integer key is stored typed", func(t *testing.T) {
		svc, store := setupSettingsWiring(t)

		out, err := executeCommand(t, "", "settings", "set", "retrieval.top_k", "8")
		require.NoError(t, err)
		assert.Contains(t, out, "retrieval.top_k = 8")

		raw, ok := store.Get("retrieval.top_k")
		require.True(t, ok)
		assert.Equal(t, 8, raw)

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, 8, settings.Retrieval.TopK)
	})

	t.Run("float key is stored typed", func(t *testing.T) {
		_, store := setupSettingsWiring(t)

		_, err := executeCommand(t, "", "settings", "set", "retrieval.temperature", "0.25")
		require.NoError(t, err)
		assert.InDelta(t, 0.25, store.GetFloat("retrieval.temperature"), 1e-9)
	})

	t.Run("non-integer value is rejected", func(t *testing.T) {
		_, store := setupSettingsWiring(t)

		_, err := executeCommand(t, "", "settings", "set", "retrieval.top_k", "many")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		_, ok := store.Get("retrieval.top_k")
		assert.False(t, ok)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		setupSettingsWiring(t)

		_, err := executeCommand(t, "", "settings", "set", "retrieval.depth", "3")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown provider is rejected", func(t *testing.T) {
		setupSettingsWiring(t)

		_, err := executeCommand(t, "", "settings", "set", "llm.provider", "oracle-of-delphi")
		require.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("temperature out of range is rejected", func(t *testing.T) {
		setupSettingsWiring(t)

		_, err := executeCommand(t, "", "settings", "set", "retrieval.temperature", "1.5")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("api key is read from stdin and masked", func(t *testing.T) {
		svc, _ := setupSettingsWiring(t)

		out, err := executeCommand(t, "sk-test-1234567890\n", "settings", "set", "llm.api_key")
		require.NoError(t, err)
		assert.Contains(t, out, "Enter value for llm.api_key")
		assert.Contains(t, out, "llm.api_key = sk-t...7890")
		assert.NotContains(t, out, "sk-test-1234567890")

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "sk-test-1234567890", settings.LLM.APIKey)
	})

	t.Run("missing value for a plain key", func(t *testing.T) {
		setupSettingsWiring(t)

		_, err := executeCommand(t, "", "settings", "set", "llm.model")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty stdin for an api key", func(t *testing.T) {
		_, store := setupSettingsWiring(t)

		_, err := executeCommand(t, "\n", "settings", "set", "embedding.api_key")
		require.Error(t, err)
		_, ok := store.Get("embedding.api_key")
		assert.False(t, ok)
	})
}

func TestSettingsShow(t *testing.T) {
	_, store := setupSettingsWiring(t)
	require.NoError(t, store.Set("retrieval.top_k", 8))
	require.NoError(t, store.Set("llm.api_key", "sk-live-abcdef123456"))

	out, err := executeCommand(t, "", "settings", "show")
	require.NoError(t, err)

	assert.Equal(t, []string{"KEY", "VALUE", "SOURCE"}, settingsRow(t, out, "KEY"))
	assert.Equal(t, []string{"retrieval.top_k", "8", "config"}, settingsRow(t, out, "retrieval.top_k"))
	assert.Equal(t, []string{"llm.api_key", "sk-l...3456", "config"}, settingsRow(t, out, "llm.api_key"))
	assert.Equal(t, []string{"embedding.api_key", "(not set)", "default"}, settingsRow(t, out, "embedding.api_key"))
	assert.NotContains(t, out, "sk-live-abcdef123456")

	t.Run("rows follow key order", func(t *testing.T) {
		assert.Less(t, strings.Index(out, "embedding.api_key"), strings.Index(out, "llm.api_key"))
		assert.Less(t, strings.Index(out, "llm.api_key"), strings.Index(out, "retrieval.top_k"))
	})
}

func TestSettingsShow_EnvOverridesConfig(t *testing.T) {
	svc, store := setupSettingsWiring(t)
	require.NoError(t, store.Set("llm.model", "from-config"))
	svc.SetEnvLookup(func(name string) (string, bool) {
		if name == services.EnvVar("llm.model") {
			return "from-env", true
		}
		return "", false
	})

	out, err := executeCommand(t, "", "settings", "show")
	require.NoError(t, err)
	assert.Equal(t, []string{"llm.model", "from-env", "env"}, settingsRow(t, out, "llm.model"))
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: "****"},
		{name: "eight characters or fewer", key: "sk-12345", want: "****"},
		{name: "nine characters", key: "sk-123456", want: "sk-1...3456"},
		{name: "project key", key: "sk-proj-1234567890abcdefghijklmnop", want: "sk-p...mnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskAPIKey(tt.key))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "empty takes default", input: "", want: 2},
		{name: "first option", input: "1", want: 1},
		{name: "last option", input: "4", want: 4},
		{name: "zero takes default", input: "0", want: 2},
		{name: "past the end takes default", input: "5", want: 2},
		{name: "negative takes default", input: "-3", want: 2},
		{name: "not a number takes default", input: "ollama", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseChoice(tt.input, 4, 2))
		})
	}
}
