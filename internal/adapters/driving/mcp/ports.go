package mcp

import (
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/core/ports/driving"
)

// ResultFormatter turns result entity names into dataset identifiers.
type ResultFormatter interface {
	Format(results []string) string
}

// Ports are the collaborators behind the MCP tools and resources.
type Ports struct {
	// Workflow answers questions.
	Workflow driving.WorkflowService

	// Formatter adds dataset ids to answers. Optional.
	Formatter ResultFormatter

	// Prompts exposes prompt templates as resources. Optional.
	Prompts driven.PromptStore
}

// Validate reports a missing workflow service, the only required port.
func (p *Ports) Validate() error {
	if p == nil || p.Workflow == nil {
		return ErrMissingWorkflowService
	}
	return nil
}
