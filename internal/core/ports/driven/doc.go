// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Tokenizer: Sub-word token counting and windowing (tiktoken)
//   - RecordSource: Raw records per category (JSON, YAML, PDF files)
//   - SnapshotStore: Corpus and embedding index persistence (files, SQLite, bbolt)
//   - EmbeddingService: Query and chunk embeddings
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, answers carry an inline error.
//   - PromptStore: Custom answer template. Without it, the built-in template is used.
//   - CatalogFetcher, RecordSink: Only needed by the fetch command.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
