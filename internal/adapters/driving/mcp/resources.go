package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

const (
	// URIScheme is the custom URI scheme for galassia resources.
	uriScheme = "galassia://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "prompts",
		Name:        "prompts",
		Description: "Names of the prompt templates used by the workflow",
		MIMEType:    "application/json",
	}, s.handlePromptsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "prompts/{name}",
		Name:        "prompt-template",
		Description: "Text of a prompt template with its {placeholders}",
		MIMEType:    "text/plain",
	}, s.handlePromptResource)
}

// handlePromptsResource lists the prompt names.
func (s *Server) handlePromptsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	names := []string{}
	if s.ports.Prompts != nil {
		names = driven.AllPromptNames()
	}

	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling prompts: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handlePromptResource returns one prompt template.
func (s *Server) handlePromptResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Prompts == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	name := extractPromptName(req.Params.URI)
	if !isKnownPrompt(name) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	template, err := s.ports.Prompts.Load(name)
	if err != nil {
		return nil, fmt.Errorf("loading prompt: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     template,
		}},
	}, nil
}

// extractPromptName extracts the name from a URI like galassia://prompts/{name}.
func extractPromptName(uri string) string {
	const prefix = uriScheme + "prompts/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}

func isKnownPrompt(name string) bool {
	for _, known := range driven.AllPromptNames() {
		if name == known {
			return true
		}
	}
	return false
}
