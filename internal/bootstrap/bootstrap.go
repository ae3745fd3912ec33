// Package bootstrap assembles galassia's adapters and core services from
// application settings. Commands build what they need through New and
// release it with Close.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/galassia/internal/adapters/driven/ai"
	rediscache "github.com/custodia-labs/galassia/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/galassia/internal/adapters/driven/config/file"
	"github.com/custodia-labs/galassia/internal/adapters/driven/dataset"
	"github.com/custodia-labs/galassia/internal/adapters/driven/metrics"
	"github.com/custodia-labs/galassia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/galassia/internal/adapters/driven/storage/mongo"
	"github.com/custodia-labs/galassia/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/galassia/internal/adapters/driven/websearch/tavily"
	"github.com/custodia-labs/galassia/internal/connectors/filesystem"
	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/core/ports/driving"
	"github.com/custodia-labs/galassia/internal/core/services"
	"github.com/custodia-labs/galassia/internal/logger"
	"github.com/custodia-labs/galassia/internal/normalisers"
	"github.com/custodia-labs/galassia/internal/postprocessors"
)

// Options controls what New builds.
type Options struct {
	// RequireLLM builds the workflow engine and fails when no language
	// model is reachable. Import-only commands leave it false.
	RequireLLM bool

	// Registry receives workflow metrics. Nil disables the observer.
	Registry prometheus.Registerer

	// PromptDir overrides the prompt template directory.
	PromptDir string

	// Chunking configures the chunker applied to imported files, with
	// chunk_size and overlap keys. Nil uses the defaults.
	Chunking map[string]any

	// ExtractMenuMetadata asks the language model for chef, planet, licence,
	// ingredient and technique metadata while importing menus. Without a
	// reachable model menus are annotated from their headings only.
	ExtractMenuMetadata bool
}

// Services holds the assembled collaborators. Fields are nil when the
// corresponding feature is not available.
type Services struct {
	Settings  *domain.AppSettings
	Workflow  driving.WorkflowService
	Importer  driving.ImportService
	Formatter *services.ResultFormatter
	Prompts   *file.PromptStore

	// Sources reads dataset files for Importer.ImportFiles.
	Sources *filesystem.Collector

	// Warnings lists degraded features, such as lexical similarity in
	// place of embeddings.
	Warnings []string

	batchConcurrency int
	closers          []func() error
}

// New builds the services described by settings.
func New(ctx context.Context, settings *domain.AppSettings, opts Options) (*Services, error) {
	s := &Services{
		Settings:         settings,
		batchConcurrency: settings.Workflow.BatchConcurrency,
	}
	if err := s.build(ctx, opts); err != nil {
		s.Close() //nolint:errcheck // the build error is more useful
		return nil, err
	}
	return s, nil
}

func (s *Services) build(ctx context.Context, opts Options) error {
	settings := s.Settings

	store, err := sqlite.NewStore(settings.Data.Dir)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	s.onClose(store.Close)
	logger.Debug("Document store at %s", store.Path())

	graph := store.GraphStore()
	if settings.GraphStore.IsConfigured() {
		graphDB, err := sqlite.OpenFile(settings.GraphStore.Path)
		if err != nil {
			return fmt.Errorf("open dish graph: %w", err)
		}
		s.onClose(graphDB.Close)
		graph = graphDB.GraphStore()
	}

	var llm driven.LLMService
	var embedder driven.EmbeddingService
	if opts.RequireLLM {
		result, err := ai.Init(ctx, settings)
		if err != nil {
			return err
		}
		s.onClose(func() error { result.Close(); return nil })
		s.Warnings = append(s.Warnings, result.Warnings...)
		llm = result.LLMService
		embedder = result.EmbeddingService
	} else {
		embed, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
		switch {
		case err != nil:
			s.Warnings = append(s.Warnings, fmt.Sprintf("embeddings disabled, using lexical similarity: %v", err))
		case embed != nil:
			s.onClose(embed.Close)
			embedder = embed
		}
	}
	docs := store.DocumentStore(embedder)

	records, persistent, err := s.recordStore(ctx)
	if err != nil {
		return err
	}

	var importRecords driven.RecordStore
	if persistent {
		importRecords = records
	}
	registry := normalisers.NewDefaultRegistry()
	pipeline, err := postprocessors.NewDefaultPipeline(opts.Chunking)
	if err != nil {
		return fmt.Errorf("import pipeline: %w", err)
	}
	prompts, err := file.NewPromptStore(opts.PromptDir)
	if err != nil {
		return fmt.Errorf("prompt store: %w", err)
	}
	s.Prompts = prompts

	s.Sources = filesystem.NewCollector(normalisers.DetectMIME, registry.Supports)
	s.Importer = services.NewImporter(docs, importRecords, graph,
		services.WithFileProcessing(registry, pipeline),
		services.WithMenuAnnotation(s.menuAnnotator(ctx, opts, llm, prompts)))

	var catalog driven.DishCatalog
	if path := settings.Data.DishMapping; path != "" {
		c, err := dataset.LoadDishCatalog(path)
		if err != nil {
			return err
		}
		catalog = c
	}
	s.Formatter = services.NewResultFormatter(catalog)

	if llm == nil {
		return nil
	}

	ports := &services.WorkflowPorts{
		LLM:        llm,
		Prompts:    prompts,
		Docs:       docs,
		Records:    records,
		Graph:      graph,
		Cache:      s.judgmentCache(ctx, store),
		WebResults: settings.WebSearch.MaxResults,
	}

	if path := settings.Data.DistanceCSV; path != "" {
		table, err := dataset.LoadDistanceTable(path)
		if err != nil {
			return err
		}
		ports.Distances = table
	}

	if settings.WebSearch.IsConfigured() {
		searcher, err := tavily.New(tavily.Config{APIKey: settings.WebSearch.APIKey})
		if err != nil {
			return err
		}
		ports.Web = searcher
	} else {
		s.Warnings = append(s.Warnings, "web search not configured, the websearch route answers from an empty context")
	}

	if opts.Registry != nil {
		observer, err := metrics.NewObserver(opts.Registry)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		ports.Observer = observer
	}

	engine, err := services.NewWorkflowEngine(ports, settings.Workflow)
	if err != nil {
		return err
	}
	s.Workflow = engine
	return nil
}

// recordStore connects to MongoDB when configured, else serves the records
// file from memory. The second result reports whether writes persist.
func (s *Services) recordStore(ctx context.Context) (driven.RecordStore, bool, error) {
	settings := s.Settings
	if settings.RecordStore.IsConfigured() {
		store, err := mongo.NewRecordStore(ctx, settings.RecordStore)
		if err != nil {
			return nil, false, err
		}
		s.onClose(store.Close)
		return store, true, nil
	}

	var records []domain.Record
	if path := settings.Data.RecordsFile; path != "" {
		loaded, err := dataset.LoadRecords(path)
		if err != nil {
			return nil, false, err
		}
		records = loaded
		logger.Info("Loaded %d records from %s", len(records), path)
	} else {
		s.Warnings = append(s.Warnings, "no record store configured, structured retrieval finds nothing")
	}
	return memory.NewRecordStore(records...), false, nil
}

// judgmentCache prefers Redis and falls back to the SQLite table.
func (s *Services) judgmentCache(ctx context.Context, store *sqlite.Store) driven.JudgmentCache {
	if !s.Settings.Cache.IsConfigured() {
		return store.JudgmentCache()
	}
	cache, err := rediscache.New(ctx, s.Settings.Cache)
	if err != nil {
		s.Warnings = append(s.Warnings, fmt.Sprintf("redis cache disabled, using local cache: %v", err))
		return store.JudgmentCache()
	}
	s.onClose(cache.Close)
	return cache
}

// Batch returns a batch runner writing to sink.
func (s *Services) Batch(sink driven.ResultSink) (driving.BatchService, error) {
	if s.Workflow == nil {
		return nil, domain.ErrLLMUnavailable
	}
	return services.NewBatchRunner(s.Workflow, s.Formatter, sink, s.batchConcurrency), nil
}

// menuAnnotator returns a model-backed annotator when menu extraction was
// requested, or nil to keep the heading-only default.
func (s *Services) menuAnnotator(
	ctx context.Context, opts Options, llm driven.LLMService, prompts driven.PromptStore,
) *services.MenuAnnotator {
	if !opts.ExtractMenuMetadata {
		return nil
	}
	if llm == nil {
		if !s.Settings.LLM.IsConfigured() {
			s.Warnings = append(s.Warnings, "no language model configured, menu metadata comes from headings only")
			return nil
		}
		svc, err := ai.CreateAndValidateLLMService(ctx, &s.Settings.LLM)
		if err != nil || svc == nil {
			logger.Warn("Menu metadata extraction disabled: %v", err)
			s.Warnings = append(s.Warnings, fmt.Sprintf("menu metadata comes from headings only: %v", err))
			return nil
		}
		s.onClose(svc.Close)
		llm = svc
	}
	return services.NewMenuAnnotator(services.NewStructuredJudge(llm, prompts, s.Settings.Workflow.CallTimeout))
}

// Close releases every resource in reverse order of acquisition.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Services) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}
