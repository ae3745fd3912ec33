package domain

import "strings"

// Question is one natural-language question and its dataset identifier.
type Question struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Stage is a state of the workflow engine.
type Stage string

// Workflow stages.
const (
	StageRoute           Stage = "ROUTE"
	StageExtractMetadata Stage = "EXTRACT_METADATA"
	StageBuildQuery      Stage = "BUILD_QUERY"
	StageRetrieve        Stage = "RETRIEVE"
	StageGradeDocuments  Stage = "GRADE_DOCUMENTS"
	StageGenerate        Stage = "GENERATE"
	StageGradeGeneration Stage = "GRADE_GENERATION"
	StageWebSearch       Stage = "WEB_SEARCH"
	StageEnd             Stage = "END"
)

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true for the end state.
func (s Stage) IsTerminal() bool {
	return s == StageEnd
}

// WorkflowState is the mutable record threaded through every stage of one run.
// It is owned by the engine for the duration of the run and never shared.
type WorkflowState struct {
	RunID      string
	Question   string
	QuestionID int

	// Documents are the primary retrieved documents in retrieval order.
	Documents []Document

	// AuxDocuments are enrichment documents in regulatory, manual, distance order.
	AuxDocuments []AuxDocument

	// NearEntities are the planets returned by the distance lookup.
	NearEntities []string

	Generation string

	// Results is the final entity list, typically dish names.
	Results []string

	MenuMetadata *MenuMetadata
	DishMetadata *DishMetadata

	Route Route

	// DocumentsRejected is set when relevance grading dropped at least one document.
	DocumentsRejected bool

	Grade GenerationGrade

	Regenerations int
	Escalations   int
	Steps         int

	// LowConfidence is set when a loop bound ended the run before a useful grade.
	LowConfidence bool

	// Trace records every executed stage in order.
	Trace []Stage
}

// NewWorkflowState creates the initial state for a question.
func NewWorkflowState(runID string, q Question) *WorkflowState {
	return &WorkflowState{
		RunID:      runID,
		Question:   strings.TrimSpace(q.Text),
		QuestionID: q.ID,
	}
}

// ContextDocuments returns primary documents followed by auxiliary documents.
func (s *WorkflowState) ContextDocuments() []Document {
	docs := make([]Document, 0, len(s.Documents)+len(s.AuxDocuments))
	docs = append(docs, s.Documents...)
	for _, aux := range s.AuxDocuments {
		docs = append(docs, aux.Document)
	}
	return docs
}

// LastStage returns the most recently executed stage, or empty if none ran.
func (s *WorkflowState) LastStage() Stage {
	if len(s.Trace) == 0 {
		return ""
	}
	return s.Trace[len(s.Trace)-1]
}

// WorkflowResult is what a workflow run hands back to its caller.
type WorkflowResult struct {
	Answer        string
	Results       []string
	LowConfidence bool
	State         WorkflowState
}
