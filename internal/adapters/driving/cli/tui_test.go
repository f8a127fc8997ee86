package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

func TestTUICmd_Use(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.NotNil(t, tuiCmd.RunE)
}

func TestNewTUIApp(t *testing.T) {
	w := setupTestWiring(t)
	resetFlags(rootCmd)
	w.settings.settings.Retrieval = domain.RetrievalSettings{TopK: 7, Temperature: 0.2}

	app, err := newTUIApp(tuiCmd)

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.True(t, w.engine.loaded)
}

func TestNewTUIApp_NotBuilt(t *testing.T) {
	w := setupTestWiring(t)
	w.engine.loadErr = domain.ErrNotFound

	app, err := newTUIApp(tuiCmd)

	assert.Nil(t, app)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
