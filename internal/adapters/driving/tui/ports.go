// Package tui provides galassia's interactive question console.
// It is a driving adapter over the workflow service.
package tui

import (
	"errors"

	"github.com/custodia-labs/galassia/internal/core/ports/driving"
)

var (
	ErrInvalidPorts           = errors.New("tui: nil ports")
	ErrMissingWorkflowService = errors.New("tui: workflow service is required")
)

// ResultFormatter turns result entity names into dataset identifiers.
type ResultFormatter interface {
	Format(results []string) string
}

// Ports aggregates the services the console drives.
type Ports struct {
	// Workflow answers questions.
	Workflow driving.WorkflowService

	// Formatter adds dataset ids to each answer. Optional.
	Formatter ResultFormatter
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Workflow == nil {
		return ErrMissingWorkflowService
	}
	return nil
}
