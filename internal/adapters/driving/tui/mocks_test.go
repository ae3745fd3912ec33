package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

type mockWorkflowService struct {
	mu     sync.Mutex
	result domain.WorkflowResult
	err    error
	calls  []int
}

func (m *mockWorkflowService) RunWorkflow(_ context.Context, _ string, id int) (domain.WorkflowResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	return m.result, m.err
}

type mockFormatter struct{}

func (mockFormatter) Format(results []string) string {
	return strings.Join(results, "+")
}
