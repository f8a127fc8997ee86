// Package services implements the driving port interfaces.
//
// The offline build runs CorpusService then IndexService. The online side
// is Engine, which loads the saved index once and serves Retrieve, Ask and
// Sources from it through Retriever and Synthesizer.
//
// Services depend only on domain types and driven ports.
package services
