package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
// Templates use {name} placeholders filled by the structured judge.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used by the workflow engine.
const (
	// PromptRouter decides between the vectorstore and websearch routes.
	// Placeholders: {question}.
	PromptRouter = "router"

	// PromptMenuMetadata extracts menu-scope metadata.
	// Placeholders: {question}, {field_descriptions}.
	PromptMenuMetadata = "menu_metadata"

	// PromptDishMetadata extracts dish-scope metadata.
	// Placeholders: {question}, {field_descriptions}.
	PromptDishMetadata = "dish_metadata"

	// PromptMenuDocument extracts menu-scope metadata from an imported
	// restaurant section. Placeholders: {restaurant}, {document}.
	PromptMenuDocument = "menu_document"

	// PromptDishDocument extracts dish-scope metadata from an imported
	// dish section. Placeholders: {dish}, {document}.
	PromptDishDocument = "dish_document"

	// PromptGraphQuery writes a read-only query over the dish graph.
	// Placeholders: {question}, {graph_schema}, {previous_attempts}.
	PromptGraphQuery = "graph_query"

	// PromptQueryGeneration produces a record store filter.
	// Placeholders: {question}, {field_descriptions}, {previous_attempts}.
	PromptQueryGeneration = "query_generation"

	// PromptRelevanceGrader grades one document against the question.
	// Placeholders: {question}, {document}.
	PromptRelevanceGrader = "relevance_grader"

	// PromptHallucinationGrader checks an answer is grounded in documents.
	// Placeholders: {documents}, {generation}.
	PromptHallucinationGrader = "hallucination_grader"

	// PromptAnswerGrader checks an answer addresses the question.
	// Placeholders: {question}, {generation}.
	PromptAnswerGrader = "answer_grader"

	// PromptGeneration produces the answer.
	// Placeholders: {question}, {context}.
	PromptGeneration = "generation"

	// PromptNeedsCode decides whether the regulatory code is needed.
	// Placeholders: {question}.
	PromptNeedsCode = "needs_galactic_code"

	// PromptNeedsManual decides whether the technique manual is needed.
	// Placeholders: {question}.
	PromptNeedsManual = "needs_cooking_manual"

	// PromptNeedsDistance decides whether planet distances are needed.
	// Placeholders: {question}.
	PromptNeedsDistance = "needs_planet_distance"

	// PromptDistanceQuery extracts the reference planet and maximum distance.
	// Placeholders: {question}.
	PromptDistanceQuery = "distance_query"

	// PromptExtractDishes lists the dish names mentioned in an answer.
	// Placeholders: {question}, {generation}.
	PromptExtractDishes = "extract_dishes"
)

// AllPromptNames returns every prompt used by the engine.
func AllPromptNames() []string {
	return []string{
		PromptRouter,
		PromptMenuMetadata,
		PromptDishMetadata,
		PromptMenuDocument,
		PromptDishDocument,
		PromptGraphQuery,
		PromptQueryGeneration,
		PromptRelevanceGrader,
		PromptHallucinationGrader,
		PromptAnswerGrader,
		PromptGeneration,
		PromptNeedsCode,
		PromptNeedsManual,
		PromptNeedsDistance,
		PromptDistanceQuery,
		PromptExtractDishes,
	}
}
