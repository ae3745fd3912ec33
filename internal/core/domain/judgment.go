package domain

// JudgmentShape selects one of the closed structured judgment shapes.
type JudgmentShape string

// Available judgment shapes.
const (
	// ShapeBinaryScore is a boolean relevance, grounding or usefulness score.
	ShapeBinaryScore JudgmentShape = "binary_score"

	// ShapeRoute is an enumerated datasource route.
	ShapeRoute JudgmentShape = "route"

	// ShapeEntityList is a free list of entity names.
	ShapeEntityList JudgmentShape = "entity_list"
)

// IsValid returns true if the shape is recognised.
func (s JudgmentShape) IsValid() bool {
	switch s {
	case ShapeBinaryScore, ShapeRoute, ShapeEntityList:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s JudgmentShape) String() string {
	return string(s)
}

// Route is the entry routing decision.
type Route string

// Available routes.
const (
	// RouteVectorstore sends the question through metadata extraction and retrieval.
	RouteVectorstore Route = "vectorstore"

	// RouteWebsearch sends the question straight to enrichment and web search.
	RouteWebsearch Route = "websearch"
)

// IsValid returns true if the route is recognised.
func (r Route) IsValid() bool {
	return r == RouteVectorstore || r == RouteWebsearch
}

// String returns the string representation.
func (r Route) String() string {
	return string(r)
}

// Judgment is a validated structured answer.
// Only the field selected by Shape is meaningful. Judgments are produced
// by the structured judge and never mutated afterwards.
type Judgment struct {
	Shape    JudgmentShape
	Score    bool
	Route    Route
	Entities []string
}

// GenerationGrade is the outcome of grading a generated answer.
type GenerationGrade string

// Generation grades.
const (
	// GradeNone means the answer has not been graded yet.
	GradeNone GenerationGrade = ""

	// GradeHallucination means the answer is not grounded in the documents.
	GradeHallucination GenerationGrade = "hallucination"

	// GradeUseful means the answer is grounded and addresses the question.
	GradeUseful GenerationGrade = "useful"

	// GradeNotUseful means the answer is grounded but does not address the question.
	GradeNotUseful GenerationGrade = "not_useful"
)

// String returns the string representation.
func (g GenerationGrade) String() string {
	return string(g)
}
