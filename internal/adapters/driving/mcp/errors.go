// Package mcp provides an MCP (Model Context Protocol) server adapter for galassia.
// It lets AI assistants ask the workflow engine questions and inspect its prompts.
package mcp

import "errors"

// ErrMissingWorkflowService is returned when the workflow service is not provided.
var ErrMissingWorkflowService = errors.New("mcp: workflow service is required")
