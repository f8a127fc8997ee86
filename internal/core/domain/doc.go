// Package domain defines the core business entities for Sage's Oracle.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawRecord: One item of a raw category file (spell, monster, rule section)
//   - Chunk: A retrievable unit of normalised text with metadata
//   - EmbeddingIndex: The corpus aligned with its embedding matrix
//   - AnswerResponse: A grounded answer with its sources
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
