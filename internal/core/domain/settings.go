package domain

import "time"

// EmbeddingSettings selects the embedding backend. BaseURL overrides the
// provider endpoint; APIKey is required by cloud providers.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether the provider is known and, for cloud
// providers, has a key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.ready(e.APIKey)
}

// LLMSettings selects the chat backend.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// RequestsPerSecond caps outbound calls. Zero disables limiting.
	RequestsPerSecond float64
}

func (l LLMSettings) IsConfigured() bool {
	return l.Provider.ready(l.APIKey)
}

// WorkflowSettings bounds the workflow engine loops and fan-out.
type WorkflowSettings struct {
	// MaxRegenerations bounds the hallucination regeneration loop.
	MaxRegenerations int

	// MaxEscalations bounds the not-useful web search loop.
	MaxEscalations int

	// MaxSteps bounds the total number of executed stages.
	MaxSteps int

	// CallTimeout is applied to every language model call.
	CallTimeout time.Duration

	// GradingConcurrency bounds parallel relevance grading.
	GradingConcurrency int

	// BatchConcurrency bounds parallel workflow runs in batch mode.
	BatchConcurrency int

	// SimilarityK is the number of menu documents fetched by similarity search.
	SimilarityK int
}

// RecordStoreSettings configures the structured record store.
type RecordStoreSettings struct {
	URI        string
	Database   string
	Collection string
}

// IsConfigured returns true if a record store connection is configured.
func (r RecordStoreSettings) IsConfigured() bool {
	return r.URI != ""
}

// GraphStoreSettings locates the dish graph.
type GraphStoreSettings struct {
	// Path is a SQLite database holding the dish graph. Empty keeps the
	// graph in the document database.
	Path string
}

// IsConfigured returns true if the graph lives in its own database.
func (g GraphStoreSettings) IsConfigured() bool {
	return g.Path != ""
}

// CacheSettings configures the judgment cache.
type CacheSettings struct {
	Addr string
	TTL  time.Duration
}

// IsConfigured returns true if a cache server is configured.
func (c CacheSettings) IsConfigured() bool {
	return c.Addr != ""
}

// WebSearchSettings configures the web search collaborator.
type WebSearchSettings struct {
	APIKey     string
	MaxResults int
}

// IsConfigured returns true if web search can be used.
func (w WebSearchSettings) IsConfigured() bool {
	return w.APIKey != ""
}

// DataSettings locates the local dataset files.
type DataSettings struct {
	// Dir holds the document database.
	Dir string

	// DistanceCSV is the planet distance matrix.
	DistanceCSV string

	// DishMapping is the JSON file mapping dish names to ids.
	DishMapping string

	// RecordsFile seeds the in-memory record store when no URI is configured.
	RecordsFile string
}

// AppSettings is the full configuration, one section per collaborator.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	Workflow    WorkflowSettings
	RecordStore RecordStoreSettings
	GraphStore  GraphStoreSettings
	Cache       CacheSettings
	WebSearch   WebSearchSettings
	Data        DataSettings
}

// Default workflow bounds.
const (
	DefaultMaxRegenerations   = 3
	DefaultMaxEscalations     = 2
	DefaultMaxSteps           = 32
	DefaultCallTimeout        = 60 * time.Second
	DefaultGradingConcurrency = 4
	DefaultBatchConcurrency   = 2
	DefaultSimilarityK        = 10
	DefaultWebSearchResults   = 3
	DefaultCacheTTL           = 24 * time.Hour
)

// DefaultWorkflowSettings returns the default engine bounds.
func DefaultWorkflowSettings() WorkflowSettings {
	return WorkflowSettings{
		MaxRegenerations:   DefaultMaxRegenerations,
		MaxEscalations:     DefaultMaxEscalations,
		MaxSteps:           DefaultMaxSteps,
		CallTimeout:        DefaultCallTimeout,
		GradingConcurrency: DefaultGradingConcurrency,
		BatchConcurrency:   DefaultBatchConcurrency,
		SimilarityK:        DefaultSimilarityK,
	}
}

// DefaultAppSettings leaves every provider and remote store unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Workflow: DefaultWorkflowSettings(),
		RecordStore: RecordStoreSettings{
			Database:   "galassia",
			Collection: "menu",
		},
		Cache:     CacheSettings{TTL: DefaultCacheTTL},
		WebSearch: WebSearchSettings{MaxResults: DefaultWebSearchResults},
	}
}
