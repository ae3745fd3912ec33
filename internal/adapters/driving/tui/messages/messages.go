// Package messages defines Bubbletea message types for the console.
package messages

import (
	"github.com/custodia-labs/galassia/internal/core/domain"
)

// QuestionSubmitted is sent when a question is handed to the workflow.
type QuestionSubmitted struct {
	ID       int
	Question string
}

// AnswerReceived carries a finished workflow run back to the model.
type AnswerReceived struct {
	ID       int
	Question string
	Result   domain.WorkflowResult
	Err      error
}

// TranscriptCleared is sent when the transcript is emptied.
type TranscriptCleared struct{}
