package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/custodia-labs/galassia/internal/adapters/driven/dataset"
	"github.com/custodia-labs/galassia/internal/bootstrap"
	"github.com/custodia-labs/galassia/internal/connectors/filesystem"
	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/services"
	"github.com/custodia-labs/galassia/internal/normalisers"
)

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	saved       *domain.AppSettings

	// provider records the last Set*Provider call as kind, provider, model, key.
	provider []string
	pingErr  error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.saved = settings
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, key string) error {
	m.provider = []string{"embedding", string(p), model, key}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, key string) error {
	m.provider = []string{"llm", string(p), model, key}
	return nil
}

func (m *mockSettingsService) SetWebSearch(apiKey string, maxResults int) error {
	settings := m.settings
	settings.WebSearch = domain.WebSearchSettings{APIKey: apiKey, MaxResults: maxResults}
	return m.Save(&settings)
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.pingErr }

type mockWorkflowService struct {
	mu      sync.Mutex
	results map[string]domain.WorkflowResult
	err     error
	ids     []int
}

func (m *mockWorkflowService) RunWorkflow(_ context.Context, question string, id int) (domain.WorkflowResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	if m.err != nil {
		return domain.WorkflowResult{}, m.err
	}
	return m.results[question], nil
}

type mockImporter struct {
	partition domain.Partition
	docs      []domain.Document
	files     []domain.SourceFile
	records   []domain.Record
	dishes    []domain.Dish
}

func (m *mockImporter) ImportDocuments(_ context.Context, partition domain.Partition, docs []domain.Document) (int, error) {
	m.partition = partition
	m.docs = docs
	return len(docs), nil
}

func (m *mockImporter) ImportFiles(_ context.Context, partition domain.Partition, files []domain.SourceFile) (int, error) {
	m.partition = partition
	m.files = files
	return len(files), nil
}

func (m *mockImporter) ImportRecords(_ context.Context, records []domain.Record) (int, error) {
	m.records = records
	return len(records), nil
}

func (m *mockImporter) ImportDishes(_ context.Context, dishes []domain.Dish) (int, error) {
	m.dishes = dishes
	return len(dishes), nil
}

// testEnv injects fake services and records the options commands ask for.
type testEnv struct {
	settings *mockSettingsService
	workflow *mockWorkflowService
	importer *mockImporter
	opts     []bootstrap.Options
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		settings: &mockSettingsService{settings: domain.DefaultAppSettings()},
		workflow: &mockWorkflowService{results: map[string]domain.WorkflowResult{}},
		importer: &mockImporter{},
	}
	catalog := dataset.NewDishCatalog(map[string]int{"Nebula Stew": 7, "Comet Tart": 12})

	SetServices(env.settings, func(_ context.Context, _ *domain.AppSettings, opts bootstrap.Options) (*bootstrap.Services, error) {
		env.opts = append(env.opts, opts)
		return &bootstrap.Services{
			Workflow:  env.workflow,
			Importer:  env.importer,
			Formatter: services.NewResultFormatter(catalog),
			Sources:   filesystem.NewCollector(normalisers.DetectMIME, normalisers.NewDefaultRegistry().Supports),
		}, nil
	})
	t.Cleanup(func() {
		SetServices(nil, nil)
		askID, askJSON, verbose = 0, false, false
		batchOut = "results.csv"
		importChunkSize, importChunkOverlap, importHeadingsOnly = 0, -1, false
	})
	return env
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
