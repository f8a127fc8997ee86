// Package mcp provides an MCP (Model Context Protocol) server adapter for Sage's Oracle.
// It lets AI assistants ask rules questions and browse the indexed SRD sources.
package mcp

import "errors"

// ErrMissingAskService is returned when the engine is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")

var errEmptyQuestion = errors.New("question must not be empty")
