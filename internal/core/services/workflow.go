package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/core/ports/driving"
	"github.com/custodia-labs/galassia/internal/logger"
)

// Verify interface compliance.
var _ driving.WorkflowService = (*WorkflowEngine)(nil)

// WorkflowPorts holds the collaborators of the workflow engine.
type WorkflowPorts struct {
	// Required.
	LLM     driven.LLMService
	Prompts driven.PromptStore
	Docs    driven.DocumentStore
	Records driven.RecordStore

	// Optional. Nil skips the corresponding step.
	Distances driven.DistanceTable
	Graph     driven.GraphStore
	Web       driven.WebSearcher
	Cache     driven.JudgmentCache
	Observer  driven.WorkflowObserver

	// WebResults is the number of web results fetched per search.
	WebResults int
}

// Validate checks that required ports are set.
func (p *WorkflowPorts) Validate() error {
	if p == nil {
		return errors.New("ports cannot be nil")
	}
	if p.LLM == nil {
		return domain.ErrLLMUnavailable
	}
	if p.Prompts == nil {
		return errors.New("prompt store is required")
	}
	if p.Docs == nil {
		return errors.New("document store is required")
	}
	if p.Records == nil {
		return errors.New("record store is required")
	}
	return nil
}

// WorkflowEngine resolves one question per run by walking a bounded state
// machine over routing, retrieval, grading, enrichment and generation.
type WorkflowEngine struct {
	ports     WorkflowPorts
	cfg       domain.WorkflowSettings
	judge     *StructuredJudge
	extractor *MetadataExtractor
	queries   *QueryBuilder
	graphs    *GraphRetriever
	grader    *GradingStage
	enricher  *KnowledgeEnricher

	fieldsMu sync.Mutex
	fields   domain.FieldDescriptions
}

// NewWorkflowEngine creates an engine. Zero settings fall back to defaults.
func NewWorkflowEngine(ports *WorkflowPorts, cfg domain.WorkflowSettings) (*WorkflowEngine, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	cfg = withWorkflowDefaults(cfg)

	judge := NewStructuredJudge(ports.LLM, ports.Prompts, cfg.CallTimeout)
	if ports.Cache != nil {
		judge.SetCache(ports.Cache)
	}
	if ports.Observer != nil {
		judge.SetObserver(ports.Observer)
	}

	p := *ports
	if p.WebResults <= 0 {
		p.WebResults = domain.DefaultWebSearchResults
	}

	return &WorkflowEngine{
		ports:     p,
		cfg:       cfg,
		judge:     judge,
		extractor: NewMetadataExtractor(judge),
		queries:   NewQueryBuilder(judge, ports.Records),
		graphs:    NewGraphRetriever(judge, ports.Graph),
		grader:    NewGradingStage(judge, cfg.GradingConcurrency),
		enricher:  NewKnowledgeEnricher(judge, ports.Docs, ports.Distances),
	}, nil
}

// withWorkflowDefaults fills zero bounds with defaults. A negative loop bound
// disables that loop.
func withWorkflowDefaults(cfg domain.WorkflowSettings) domain.WorkflowSettings {
	def := domain.DefaultWorkflowSettings()
	switch {
	case cfg.MaxRegenerations == 0:
		cfg.MaxRegenerations = def.MaxRegenerations
	case cfg.MaxRegenerations < 0:
		cfg.MaxRegenerations = 0
	}
	switch {
	case cfg.MaxEscalations == 0:
		cfg.MaxEscalations = def.MaxEscalations
	case cfg.MaxEscalations < 0:
		cfg.MaxEscalations = 0
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = def.MaxSteps
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if cfg.GradingConcurrency <= 0 {
		cfg.GradingConcurrency = def.GradingConcurrency
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = def.BatchConcurrency
	}
	if cfg.SimilarityK <= 0 {
		cfg.SimilarityK = def.SimilarityK
	}
	return cfg
}

// Settings returns the effective engine bounds.
func (e *WorkflowEngine) Settings() domain.WorkflowSettings {
	return e.cfg
}

// RunWorkflow resolves a question. The returned result always carries the
// state reached, including on error.
func (e *WorkflowEngine) RunWorkflow(ctx context.Context, question string, questionID int) (domain.WorkflowResult, error) {
	start := time.Now()
	state := domain.NewWorkflowState(uuid.NewString(), domain.Question{ID: questionID, Text: question})

	ctx = logger.WithScope(ctx, logger.Scoped(runLabel(questionID)))

	var err error
	if state.Question == "" {
		err = fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	} else {
		logger.FromContext(ctx).Section(fmt.Sprintf("Question %d (%s)", questionID, state.RunID))
		err = e.run(ctx, state)
		if err == nil {
			err = e.finalize(ctx, state)
		}
	}

	result := domain.WorkflowResult{
		Answer:        state.Generation,
		Results:       state.Results,
		LowConfidence: state.LowConfidence,
		State:         *state,
	}
	if e.ports.Observer != nil {
		e.ports.Observer.ObserveRun(result, time.Since(start), err)
	}
	if err != nil {
		return result, err
	}

	logger.FromContext(ctx).Info("Run %s finished after %d steps (grade=%s, low confidence=%t)",
		state.RunID, state.Steps, state.Grade, state.LowConfidence)
	return result, nil
}

// run walks the state machine until END or a fatal error.
func (e *WorkflowEngine) run(ctx context.Context, state *domain.WorkflowState) error {
	log := logger.FromContext(ctx)
	stage := domain.StageRoute
	for !stage.IsTerminal() {
		if state.Steps >= e.cfg.MaxSteps {
			log.Warn("Step limit %d reached at %s, ending with low confidence", e.cfg.MaxSteps, stage)
			state.LowConfidence = true
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", stage, err)
		}

		log.Section(stage.String())
		began := time.Now()
		if err := e.execute(ctx, stage, state); err != nil {
			return fmt.Errorf("%s: %w", stage, err)
		}
		state.Steps++
		state.Trace = append(state.Trace, stage)
		if e.ports.Observer != nil {
			e.ports.Observer.ObserveStage(stage, time.Since(began))
		}

		next := nextStage(state, stage, e.cfg)
		if stage == domain.StageGradeGeneration {
			switch next {
			case domain.StageGenerate:
				state.Regenerations++
			case domain.StageWebSearch:
				state.Escalations++
			case domain.StageEnd:
				if state.Grade != domain.GradeUseful {
					log.Warn("Loop bound reached with grade %s, ending with low confidence", state.Grade)
					state.LowConfidence = true
				}
			}
		}
		log.Debug("%s -> %s", stage, next)
		stage = next
	}
	return nil
}

// nextStage decides the transition out of current. It only reads state.
func nextStage(state *domain.WorkflowState, current domain.Stage, cfg domain.WorkflowSettings) domain.Stage {
	switch current {
	case domain.StageRoute:
		if state.Route == domain.RouteWebsearch {
			return domain.StageWebSearch
		}
		return domain.StageExtractMetadata
	case domain.StageExtractMetadata:
		return domain.StageBuildQuery
	case domain.StageBuildQuery:
		return domain.StageRetrieve
	case domain.StageRetrieve:
		return domain.StageGradeDocuments
	case domain.StageGradeDocuments:
		if state.DocumentsRejected {
			return domain.StageWebSearch
		}
		return domain.StageGenerate
	case domain.StageWebSearch:
		return domain.StageGenerate
	case domain.StageGenerate:
		return domain.StageGradeGeneration
	case domain.StageGradeGeneration:
		switch state.Grade {
		case domain.GradeHallucination:
			if state.Regenerations < cfg.MaxRegenerations {
				return domain.StageGenerate
			}
		case domain.GradeNotUseful:
			if state.Escalations < cfg.MaxEscalations {
				return domain.StageWebSearch
			}
		}
		return domain.StageEnd
	default:
		return domain.StageEnd
	}
}

// execute runs one stage against the state.
func (e *WorkflowEngine) execute(ctx context.Context, stage domain.Stage, state *domain.WorkflowState) error {
	switch stage {
	case domain.StageRoute:
		return e.route(ctx, state)
	case domain.StageExtractMetadata:
		return e.extractMetadata(ctx, state)
	case domain.StageBuildQuery:
		return e.buildQuery(ctx, state)
	case domain.StageRetrieve:
		return e.retrieve(ctx, state)
	case domain.StageGradeDocuments:
		return e.gradeDocuments(ctx, state)
	case domain.StageWebSearch:
		return e.webSearch(ctx, state)
	case domain.StageGenerate:
		return e.generate(ctx, state)
	case domain.StageGradeGeneration:
		return e.gradeGeneration(ctx, state)
	default:
		return fmt.Errorf("%w: stage %q", domain.ErrInvalidInput, stage)
	}
}

func (e *WorkflowEngine) route(ctx context.Context, state *domain.WorkflowState) error {
	judgment, err := e.judge.Judge(ctx, driven.PromptRouter,
		map[string]string{"question": state.Question}, domain.ShapeRoute)
	if err != nil {
		if domain.IsFatal(err) {
			return err
		}
		logger.FromContext(ctx).Warn("Routing failed, using %s: %v", domain.RouteVectorstore, err)
		state.Route = domain.RouteVectorstore
		return nil
	}
	state.Route = judgment.Route
	logger.FromContext(ctx).Info("Route: %s", state.Route)
	return nil
}

func (e *WorkflowEngine) extractMetadata(ctx context.Context, state *domain.WorkflowState) error {
	fields, err := e.fieldDescriptions(ctx)
	if err != nil {
		return err
	}
	menu, dish, err := e.extractor.Extract(ctx, state.Question, fields)
	if err != nil {
		return err
	}
	state.MenuMetadata = menu
	state.DishMetadata = dish
	return nil
}

func (e *WorkflowEngine) buildQuery(ctx context.Context, state *domain.WorkflowState) error {
	fields, err := e.fieldDescriptions(ctx)
	if err != nil {
		return err
	}
	docs, err := e.queries.Retrieve(ctx, state.Question, fields, state.MenuMetadata, state.DishMetadata)
	if err != nil {
		return err
	}
	state.Documents = docs
	return nil
}

// retrieve merges menu similarity hits and graph results after the record store hits.
func (e *WorkflowEngine) retrieve(ctx context.Context, state *domain.WorkflowState) error {
	filter := driven.SearchFilter{
		Partition: domain.PartitionMenu,
		Predicate: CompileFilter(state.MenuMetadata, state.DishMetadata),
	}
	similar, err := e.ports.Docs.SimilaritySearch(ctx, state.Question, e.cfg.SimilarityK, filter)
	if err != nil {
		if domain.IsFatal(err) {
			return fmt.Errorf("similarity search: %w", err)
		}
		logger.FromContext(ctx).Warn("Similarity search failed: %v", err)
	}
	state.Documents = mergeDocuments(state.Documents, similar)

	graphDocs, err := e.graphs.Retrieve(ctx, state.Question, state.MenuMetadata, state.DishMetadata)
	if err != nil {
		return err
	}
	state.Documents = mergeDocuments(state.Documents, graphDocs)

	logger.FromContext(ctx).Info("Retrieved %d documents", len(state.Documents))
	return nil
}

func (e *WorkflowEngine) gradeDocuments(ctx context.Context, state *domain.WorkflowState) error {
	kept, rejected, err := e.grader.GradeDocuments(ctx, state.Question, state.Documents)
	if err != nil {
		return err
	}
	state.Documents = kept
	state.DocumentsRejected = rejected
	return nil
}

// webSearch refreshes auxiliary documents and appends one web result document.
func (e *WorkflowEngine) webSearch(ctx context.Context, state *domain.WorkflowState) error {
	enrichment, err := e.enricher.Enrich(ctx, state.Question)
	if err != nil {
		return err
	}
	state.AuxDocuments = enrichment.Documents
	state.NearEntities = enrichment.NearEntities

	if e.ports.Web == nil {
		return nil
	}
	results, err := e.ports.Web.Search(ctx, state.Question, e.ports.WebResults)
	if err != nil {
		if domain.IsFatal(err) {
			return fmt.Errorf("web search: %w", err)
		}
		logger.FromContext(ctx).Warn("Web search failed: %v", err)
		return nil
	}
	if doc, ok := webDocument(results); ok {
		state.Documents = mergeDocuments(state.Documents, []domain.Document{doc})
	}
	return nil
}

// generate answers from the current context. A failed generation keeps the
// previous answer so grading can still decide.
func (e *WorkflowEngine) generate(ctx context.Context, state *domain.WorkflowState) error {
	text, err := e.judge.Generate(ctx, driven.PromptGeneration, map[string]string{
		"question": state.Question,
		"context":  domain.FormatDocuments(state.ContextDocuments()),
	})
	if err != nil {
		if domain.IsFatal(err) {
			return err
		}
		logger.FromContext(ctx).Warn("Generation failed, keeping previous answer: %v", err)
		return nil
	}
	state.Generation = text
	logger.FromContext(ctx).Debug("Generation: %s", truncate(text, 200))
	return nil
}

func (e *WorkflowEngine) gradeGeneration(ctx context.Context, state *domain.WorkflowState) error {
	if strings.TrimSpace(state.Generation) == "" {
		state.Grade = domain.GradeHallucination
		return nil
	}
	grade, err := e.grader.GradeGeneration(ctx, state.Question, state.ContextDocuments(), state.Generation)
	if err != nil {
		return err
	}
	state.Grade = grade
	logger.FromContext(ctx).Info("Generation grade: %s", grade)
	return nil
}

// finalize extracts the entity list from the final answer.
func (e *WorkflowEngine) finalize(ctx context.Context, state *domain.WorkflowState) error {
	state.Results = []string{}
	if strings.TrimSpace(state.Generation) == "" {
		return nil
	}
	judgment, err := e.judge.Judge(ctx, driven.PromptExtractDishes, map[string]string{
		"question":   state.Question,
		"generation": state.Generation,
	}, domain.ShapeEntityList)
	if err != nil {
		if domain.IsFatal(err) {
			return fmt.Errorf("extract results: %w", err)
		}
		logger.FromContext(ctx).Warn("Result extraction failed: %v", err)
		return nil
	}
	state.Results = judgment.Entities
	logger.FromContext(ctx).Info("Results: %v", state.Results)
	return nil
}

// fieldDescriptions returns the record schema, cached after the first success.
// A non-fatal failure yields empty descriptions and is retried next time.
func (e *WorkflowEngine) fieldDescriptions(ctx context.Context) (domain.FieldDescriptions, error) {
	e.fieldsMu.Lock()
	defer e.fieldsMu.Unlock()

	if e.fields != nil {
		return e.fields, nil
	}
	fields, err := e.ports.Records.DescribeSchema(ctx)
	if err != nil {
		if domain.IsFatal(err) {
			return nil, fmt.Errorf("describe schema: %w", err)
		}
		logger.FromContext(ctx).Warn("Describe schema failed: %v", err)
		return domain.FieldDescriptions{}, nil
	}
	e.fields = fields
	return fields, nil
}

// mergeDocuments appends extra to docs, skipping content already present.
func mergeDocuments(docs, extra []domain.Document) []domain.Document {
	seen := make(map[string]struct{}, len(docs)+len(extra))
	merged := make([]domain.Document, 0, len(docs)+len(extra))
	for _, group := range [][]domain.Document{docs, extra} {
		for _, d := range group {
			if _, ok := seen[d.Content]; ok {
				continue
			}
			seen[d.Content] = struct{}{}
			merged = append(merged, d)
		}
	}
	return merged
}

// webDocument joins web result contents into one document.
func webDocument(results []driven.WebResult) (domain.Document, bool) {
	parts := make([]string, 0, len(results))
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if c := strings.TrimSpace(r.Content); c != "" {
			parts = append(parts, c)
			if r.URL != "" {
				urls = append(urls, r.URL)
			}
		}
	}
	if len(parts) == 0 {
		return domain.Document{}, false
	}
	return domain.Document{
		Content:  strings.Join(parts, "\n"),
		Metadata: map[string]any{"source": "web", "urls": urls},
	}, true
}

// runLabel tags log lines of one run so concurrent batch runs stay readable.
func runLabel(questionID int) string {
	return fmt.Sprintf("q%d", questionID)
}
