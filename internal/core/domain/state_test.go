package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWorkflowState(t *testing.T) {
	s := NewWorkflowState("run-1", Question{ID: 7, Text: "  Quali piatti includono Teste di Idra?  "})

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 7, s.QuestionID)
	assert.Equal(t, "Quali piatti includono Teste di Idra?", s.Question)
	assert.Empty(t, s.Trace)
	assert.Equal(t, Stage(""), s.LastStage())
}

func TestWorkflowState_ContextDocuments(t *testing.T) {
	s := &WorkflowState{
		Documents: []Document{{Content: "menu"}},
		AuxDocuments: []AuxDocument{
			{Kind: AuxRegulatory, Document: Document{Content: "codice"}},
			{Kind: AuxDistance, Document: Document{Content: "distanze"}},
		},
	}

	docs := s.ContextDocuments()

	assert.Equal(t, []string{"menu", "codice", "distanze"},
		[]string{docs[0].Content, docs[1].Content, docs[2].Content})
}

func TestStage_IsTerminal(t *testing.T) {
	assert.True(t, StageEnd.IsTerminal())
	assert.False(t, StageGenerate.IsTerminal())
}

func TestRoute_IsValid(t *testing.T) {
	assert.True(t, RouteVectorstore.IsValid())
	assert.True(t, RouteWebsearch.IsValid())
	assert.False(t, Route("graph").IsValid())
}

func TestJudgmentShape_IsValid(t *testing.T) {
	assert.True(t, ShapeBinaryScore.IsValid())
	assert.True(t, ShapeRoute.IsValid())
	assert.True(t, ShapeEntityList.IsValid())
	assert.False(t, JudgmentShape("number").IsValid())
}
