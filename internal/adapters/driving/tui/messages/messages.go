// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// AskRequested is a command to answer a question.
type AskRequested struct {
	Question string
	Options  domain.AskOptions
}

// AnswerReceived carries the engine's answer back to the model.
type AnswerReceived struct {
	Question string
	Answer   *domain.AnswerResponse
	Err      error
}

// StatusLoaded carries the engine status shown in the status bar.
type StatusLoaded struct {
	Status domain.EngineStatus
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
