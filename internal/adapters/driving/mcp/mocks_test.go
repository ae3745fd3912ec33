package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// mockWorkflowService is a mock implementation of driving.WorkflowService.
type mockWorkflowService struct {
	result   domain.WorkflowResult
	err      error
	question string
}

func (m *mockWorkflowService) RunWorkflow(_ context.Context, question string, _ int) (domain.WorkflowResult, error) {
	m.question = question
	return m.result, m.err
}

// mockPromptStore is a mock implementation of driven.PromptStore.
type mockPromptStore struct {
	templates map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	return t, nil
}

func (m *mockPromptStore) Reload() {}

type countFormatter struct{}

func (countFormatter) Format(results []string) string {
	return fmt.Sprintf("%d", len(results))
}
