package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

func numberedDocs(n int) []domain.Document {
	docs := make([]domain.Document, n)
	for i := range docs {
		docs[i] = domain.Document{Content: fmt.Sprintf("doc-%02d", i)}
	}
	return docs
}

// relevantWhen answers relevance prompts with keep(document text).
func relevantWhen(keep func(document string) bool) func(string, string) (string, error, bool) {
	return func(prompt, rendered string) (string, error, bool) {
		if prompt != driven.PromptRelevanceGrader {
			return "", nil, false
		}
		return scoreReply(keep(rendered)), nil, true
	}
}

func TestGradingStage_GradeDocuments_PreservesOrder(t *testing.T) {
	llm := newMockLLM()
	llm.delay = time.Millisecond
	llm.handler = relevantWhen(func(rendered string) bool {
		for _, odd := range []string{"doc-01", "doc-03", "doc-05", "doc-07", "doc-09", "doc-11"} {
			if strings.Contains(rendered, odd) {
				return false
			}
		}
		return true
	})
	grader := NewGradingStage(newTestJudge(llm), 4)

	kept, rejected, err := grader.GradeDocuments(context.Background(), "q", numberedDocs(12))

	require.NoError(t, err)
	assert.True(t, rejected)
	require.Len(t, kept, 6)
	for i, d := range kept {
		assert.Equal(t, fmt.Sprintf("doc-%02d", i*2), d.Content)
	}
}

func TestGradingStage_GradeDocuments_AllRelevant(t *testing.T) {
	llm := newMockLLM().on(driven.PromptRelevanceGrader, scoreReply(true))
	grader := NewGradingStage(newTestJudge(llm), 0)

	kept, rejected, err := grader.GradeDocuments(context.Background(), "q", numberedDocs(3))

	require.NoError(t, err)
	assert.False(t, rejected)
	assert.Len(t, kept, 3)
}

func TestGradingStage_GradeDocuments_Empty(t *testing.T) {
	grader := NewGradingStage(newTestJudge(newMockLLM()), 2)

	kept, rejected, err := grader.GradeDocuments(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.False(t, rejected)
	assert.Empty(t, kept)
}

func TestGradingStage_GradeDocuments_FailureCountsAsNotRelevant(t *testing.T) {
	llm := newMockLLM()
	llm.handler = func(prompt, rendered string) (string, error, bool) {
		if strings.Contains(rendered, "doc-01") {
			return "no idea", nil, true
		}
		return scoreReply(true), nil, true
	}
	grader := NewGradingStage(newTestJudge(llm), 2)

	kept, rejected, err := grader.GradeDocuments(context.Background(), "q", numberedDocs(3))

	require.NoError(t, err)
	assert.True(t, rejected)
	assert.Equal(t, []domain.Document{{Content: "doc-00"}, {Content: "doc-02"}}, kept)
}

func TestGradingStage_GradeDocuments_ConnectivityFailure(t *testing.T) {
	llm := newMockLLM().fail(driven.PromptRelevanceGrader, errTransport)
	grader := NewGradingStage(newTestJudge(llm), 2)

	_, _, err := grader.GradeDocuments(context.Background(), "q", numberedDocs(5))

	assert.True(t, domain.IsFatal(err))
}

func TestGradingStage_GradeGeneration(t *testing.T) {
	tests := []struct {
		name          string
		grounded      string
		useful        string
		want          domain.GenerationGrade
		usefulChecked bool
	}{
		{"useful", scoreReply(true), scoreReply(true), domain.GradeUseful, true},
		{"not useful", scoreReply(true), scoreReply(false), domain.GradeNotUseful, true},
		{"hallucination skips usefulness", scoreReply(false), scoreReply(true), domain.GradeHallucination, false},
		{"broken grounding is hallucination", "???", scoreReply(true), domain.GradeHallucination, false},
		{"broken usefulness is not useful", scoreReply(true), "???", domain.GradeNotUseful, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newMockLLM().
				on(driven.PromptHallucinationGrader, tt.grounded).
				on(driven.PromptAnswerGrader, tt.useful)
			grader := NewGradingStage(newTestJudge(llm), 1)

			grade, err := grader.GradeGeneration(context.Background(), "q", numberedDocs(2), "answer")

			require.NoError(t, err)
			assert.Equal(t, tt.want, grade)
			assert.Equal(t, tt.usefulChecked, llm.callCount(driven.PromptAnswerGrader) == 1)
		})
	}
}

func TestGradingStage_GradeGeneration_GroundingSeesDocuments(t *testing.T) {
	llm := newMockLLM().
		on(driven.PromptHallucinationGrader, scoreReply(true)).
		on(driven.PromptAnswerGrader, scoreReply(true))
	grader := NewGradingStage(newTestJudge(llm), 1)

	_, err := grader.GradeGeneration(context.Background(), "q", numberedDocs(2), "the answer")

	require.NoError(t, err)
	rendered := llm.callsFor(driven.PromptHallucinationGrader)[0].Rendered
	assert.Contains(t, rendered, "doc-00")
	assert.Contains(t, rendered, "doc-01")
	assert.Contains(t, rendered, "generation=the answer")
}

func TestGradingStage_GradeGeneration_ConnectivityFailure(t *testing.T) {
	llm := newMockLLM().
		on(driven.PromptHallucinationGrader, scoreReply(true)).
		fail(driven.PromptAnswerGrader, errTransport)
	grader := NewGradingStage(newTestJudge(llm), 1)

	grade, err := grader.GradeGeneration(context.Background(), "q", nil, "answer")

	assert.True(t, domain.IsFatal(err))
	assert.Equal(t, domain.GradeNone, grade)
}
