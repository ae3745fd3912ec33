package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question about restaurants, dishes, chefs or planets"`
	QuestionID int    `json:"question_id,omitempty" jsonschema:"identifier echoed back with the answer"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer        string   `json:"answer"`
	Results       []string `json:"results"`
	ResultIDs     string   `json:"result_ids,omitempty"`
	LowConfidence bool     `json:"low_confidence"`
	Trace         []string `json:"trace,omitempty"`
}

// DishIDsInput is the input schema for the dish_ids tool.
type DishIDsInput struct {
	Dishes []string `json:"dishes" jsonschema:"dish names exactly as they appear on the menus"`
}

// DishIDsOutput is the output schema for the dish_ids tool.
type DishIDsOutput struct {
	IDs string `json:"ids" jsonschema:"comma separated dataset ids, 1 when no dish is known"`
}

// registerTools adds ask, and dish_ids when a formatter is available.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the galactic restaurant dataset and list the matching dishes",
	}, s.handleAsk)

	if s.ports.Formatter != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "dish_ids",
			Description: "Map dish names to their dataset ids",
		}, s.handleDishIDs)
	}
}

func (s *Server) handleDishIDs(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input DishIDsInput,
) (*mcp.CallToolResult, DishIDsOutput, error) {
	return nil, DishIDsOutput{IDs: s.ports.Formatter.Format(input.Dishes)}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Workflow.RunWorkflow(ctx, input.Question, input.QuestionID)
	if err != nil {
		s.log.Warn("ask %d failed: %v", input.QuestionID, err)
		return nil, AskOutput{}, err
	}
	s.log.Debug("ask %d answered with %d dishes", input.QuestionID, len(result.Results))
	return nil, s.askOutput(result), nil
}

func (s *Server) askOutput(result domain.WorkflowResult) AskOutput {
	output := AskOutput{
		Answer:        result.Answer,
		Results:       result.Results,
		LowConfidence: result.LowConfidence,
		Trace:         make([]string, len(result.State.Trace)),
	}
	if output.Results == nil {
		output.Results = []string{}
	}
	for i, stage := range result.State.Trace {
		output.Trace[i] = stage.String()
	}
	if s.ports.Formatter != nil {
		output.ResultIDs = s.ports.Formatter.Format(result.Results)
	}
	return output
}
