package driving

import (
	"context"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// WorkflowService answers one question per call.
type WorkflowService interface {
	// RunWorkflow resolves a question and returns the answer, the result list
	// and the terminal state. Only connectivity failures and cancellation are
	// returned as errors; every other failure still reaches a terminal state.
	RunWorkflow(ctx context.Context, question string, questionID int) (domain.WorkflowResult, error)
}

// BatchService runs many questions and records a formatted result for each.
type BatchService interface {
	// Run processes questions and appends one result per question to the sink
	// configured on the service. It returns a summary of the batch.
	Run(ctx context.Context, questions []domain.Question) (BatchSummary, error)
}

// BatchSummary reports the outcome of a batch.
type BatchSummary struct {
	Total         int
	Answered      int
	LowConfidence int
	Failed        int
}
