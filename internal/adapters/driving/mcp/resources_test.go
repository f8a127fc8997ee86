package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

func TestExtractDocType(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "spell", uri: "sage://sources/spell", expected: "spell"},
		{name: "rule", uri: "sage://sources/rule", expected: "rule"},
		{name: "invalid prefix", uri: "file://sources/spell", expected: ""},
		{name: "nested path", uri: "sage://sources/spell/fireball", expected: ""},
		{name: "missing type", uri: "sage://sources/", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocType(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleSourcesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns metadata list", func(t *testing.T) {
		ask := &mockAskService{
			sources: map[string][]domain.Metadata{
				"spell": {
					{"type": "spell", "name": "Fireball", "level": 3},
					{"type": "spell", "name": "Shield", "level": 1},
				},
			},
		}
		server := newTestServer(t, ask)

		result, err := server.handleSourcesResource(ctx, makeReadResourceRequest("sage://sources/spell"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "spell", ask.gotDocType)
		assert.Equal(t, "sage://sources/spell", result.Contents[0].URI)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "Fireball", got[0]["name"])
		assert.Equal(t, "Shield", got[1]["name"])
	})

	t.Run("unknown type is empty list", func(t *testing.T) {
		server := newTestServer(t, &mockAskService{})

		result, err := server.handleSourcesResource(ctx, makeReadResourceRequest("sage://sources/artifact"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("invalid URI is not found", func(t *testing.T) {
		server := newTestServer(t, &mockAskService{})

		_, err := server.handleSourcesResource(ctx, makeReadResourceRequest("sage://sources/"))

		require.Error(t, err)
	})

	t.Run("engine error", func(t *testing.T) {
		server := newTestServer(t, &mockAskService{err: errors.New("not ready")})

		_, err := server.handleSourcesResource(ctx, makeReadResourceRequest("sage://sources/spell"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing sources")
	})
}

func TestServer_handleStatusResource(t *testing.T) {
	ask := &mockAskService{
		status: domain.EngineStatus{
			Ready:          true,
			ChunksLoaded:   1200,
			Dimensions:     384,
			EmbeddingModel: "all-minilm",
			LLMModel:       "phi3:mini",
		},
	}
	server := newTestServer(t, ask)

	result, err := server.handleStatusResource(context.Background(), makeReadResourceRequest("sage://status"))

	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ready": true,
		"chunks_loaded": 1200,
		"dimensions": 384,
		"embedding_model": "all-minilm",
		"llm_model": "phi3:mini"
	}`, result.Contents[0].Text)
}
