package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrIndexMismatch", ErrIndexMismatch},
		{"ErrEngineNotReady", ErrEngineNotReady},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrInvalidTopK", ErrInvalidTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrInvalidTopK_WrapsInvalidInput tests that a bad top_k is a caller error
func TestErrInvalidTopK_WrapsInvalidInput(t *testing.T) {
	assert.True(t, errors.Is(ErrInvalidTopK, ErrInvalidInput))
	assert.False(t, errors.Is(ErrInvalidTopK, ErrEngineNotReady))
	assert.Contains(t, ErrInvalidTopK.Error(), "top_k")
}

// TestErrors_Distinct tests that not-ready is not conflated with other failures
func TestErrors_Distinct(t *testing.T) {
	wrapped := fmt.Errorf("ask: %w", ErrEngineNotReady)

	assert.True(t, errors.Is(wrapped, ErrEngineNotReady))
	assert.False(t, errors.Is(wrapped, ErrInvalidInput))
	assert.False(t, errors.Is(wrapped, ErrIndexMismatch))
	assert.False(t, errors.Is(ErrIndexMismatch, ErrInvalidConfig))
}
