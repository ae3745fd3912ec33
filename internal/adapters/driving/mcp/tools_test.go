package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and results", func(t *testing.T) {
		workflow := &mockWorkflowService{
			result: domain.WorkflowResult{
				Answer:  "Nebula Stew is served on Tatooine.",
				Results: []string{"Nebula Stew"},
				State: domain.WorkflowState{
					Trace: []domain.Stage{domain.StageRoute, domain.StageGenerate, domain.StageEnd},
				},
			},
		}

		server, err := NewServer(&Ports{Workflow: workflow, Formatter: countFormatter{}})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What is served on Tatooine?"})

		require.NoError(t, err)
		assert.Equal(t, "What is served on Tatooine?", workflow.question)
		assert.Equal(t, "Nebula Stew is served on Tatooine.", output.Answer)
		assert.Equal(t, []string{"Nebula Stew"}, output.Results)
		assert.Equal(t, "1", output.ResultIDs)
		assert.Equal(t, []string{"ROUTE", "GENERATE", "END"}, output.Trace)
		assert.False(t, output.LowConfidence)
	})

	t.Run("no results encode as empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Workflow: &mockWorkflowService{
			result: domain.WorkflowResult{LowConfidence: true},
		}})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		assert.NotNil(t, output.Results)
		assert.Empty(t, output.Results)
		assert.Empty(t, output.ResultIDs)
		assert.True(t, output.LowConfidence)
	})

	t.Run("returns error on workflow failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Workflow: &mockWorkflowService{err: errors.New("llm down")}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm down")
	})
}

func TestServer_handleDishIDs(t *testing.T) {
	server, err := NewServer(&Ports{Workflow: &mockWorkflowService{}, Formatter: countFormatter{}})
	require.NoError(t, err)

	_, output, err := server.handleDishIDs(context.Background(), nil, DishIDsInput{Dishes: []string{"Nebula Stew", "Comet Tart"}})

	require.NoError(t, err)
	assert.Equal(t, "2", output.IDs)
}
