// Package tui provides an interactive terminal chat for Sage's Oracle.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Ask answers questions against the loaded index.
	Ask driving.AskService

	// Options are applied to every question asked from the TUI.
	Options domain.AskOptions
}

// NewPorts creates a Ports aggregate using the default ask options.
func NewPorts(ask driving.AskService) *Ports {
	return &Ports{
		Ask:     ask,
		Options: domain.DefaultAskOptions(),
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Options.TopK <= 0 {
		return ErrInvalidPorts
	}
	return nil
}
