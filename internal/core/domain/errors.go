package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates malformed configuration, such as chunking
	// parameters that would yield a non-positive stride.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates an unknown provider, backend or record kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIndexMismatch indicates the chunk collection and the embedding
	// artifacts do not describe the same corpus.
	ErrIndexMismatch = errors.New("index does not match corpus")

	// ErrEngineNotReady indicates no index has been loaded yet.
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ErrInvalidTopK indicates a non-positive top_k. It wraps ErrInvalidInput.
var ErrInvalidTopK = fmt.Errorf("%w: top_k must be positive", ErrInvalidInput)
