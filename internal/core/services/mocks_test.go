package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// testPromptTemplate puts the prompt name on the first line so the mock LLM
// can dispatch on it, followed by every placeholder the engine fills.
const testPromptTemplate = "%s\nquestion={question}\ndocument={document}\ndocuments={documents}\n" +
	"generation={generation}\ncontext={context}\nfields={field_descriptions}\nprevious={previous_attempts}\n" +
	"restaurant={restaurant}\ndish={dish}\nschema={graph_schema}"

// mockPromptStore serves a fixed template for every known prompt.
type mockPromptStore struct {
	missing map[string]bool
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.missing[name] {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	return fmt.Sprintf(testPromptTemplate, name), nil
}

func (m *mockPromptStore) Reload() {}

type llmCall struct {
	Prompt   string
	Rendered string
	Format   *driven.ResponseFormat
}

// mockLLMService replies per prompt name. Queued replies are consumed in
// order and the last one repeats. handler, when set, takes precedence.
type mockLLMService struct {
	mu       sync.Mutex
	replies  map[string][]string
	errs     map[string]error
	handler  func(prompt, rendered string) (string, error, bool)
	delay    time.Duration
	calls    []llmCall
	consumed map[string]int
}

func newMockLLM() *mockLLMService {
	return &mockLLMService{
		replies:  make(map[string][]string),
		errs:     make(map[string]error),
		consumed: make(map[string]int),
	}
}

// on queues replies for a prompt and returns the mock for chaining.
func (m *mockLLMService) on(prompt string, replies ...string) *mockLLMService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[prompt] = append(m.replies[prompt], replies...)
	return m
}

// set replaces the queued replies for a prompt.
func (m *mockLLMService) set(prompt string, replies ...string) *mockLLMService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[prompt] = replies
	m.consumed[prompt] = 0
	return m
}

// fail makes every call for a prompt return err.
func (m *mockLLMService) fail(prompt string, err error) *mockLLMService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[prompt] = err
	return m
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, driven.ChatOptions{})
}

func (m *mockLLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	rendered := messages[len(messages)-1].Content
	name, _, _ := strings.Cut(rendered, "\n")

	m.mu.Lock()
	m.calls = append(m.calls, llmCall{Prompt: name, Rendered: rendered, Format: opts.Format})
	delay := m.delay
	handler := m.handler
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	if handler != nil {
		if reply, err, ok := handler(name, rendered); ok {
			return reply, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[name]; err != nil {
		return "", err
	}
	queue := m.replies[name]
	if len(queue) == 0 {
		return "", fmt.Errorf("no reply configured for %s", name)
	}
	idx := min(m.consumed[name], len(queue)-1)
	m.consumed[name]++
	return queue[idx], nil
}

func (m *mockLLMService) ModelName() string            { return "mock-model" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// callCount returns how many calls were made for a prompt.
func (m *mockLLMService) callCount(prompt string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Prompt == prompt {
			n++
		}
	}
	return n
}

// callsFor returns the calls made for a prompt in order.
func (m *mockLLMService) callsFor(prompt string) []llmCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []llmCall
	for _, c := range m.calls {
		if c.Prompt == prompt {
			out = append(out, c)
		}
	}
	return out
}

func scoreReply(ok bool) string {
	return fmt.Sprintf(`{"binary_score": %t}`, ok)
}

func routeReply(route domain.Route) string {
	return fmt.Sprintf(`{"datasource": %q}`, route)
}

func entitiesReply(names ...string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return `{"entities": [` + strings.Join(quoted, ", ") + `]}`
}

type recordResponse struct {
	records []domain.Record
	err     error
}

// mockRecordStore answers non-empty filters from a response queue (last one
// repeats) and empty filters with the full record set.
type mockRecordStore struct {
	mu          sync.Mutex
	responses   []recordResponse
	all         []domain.Record
	scanErr     error
	fields      domain.FieldDescriptions
	describeErr error
	filters     []map[string]any
	describes   int
	answered    int
}

func (m *mockRecordStore) Find(_ context.Context, filter map[string]any) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)
	if len(filter) == 0 {
		return m.all, m.scanErr
	}
	if len(m.responses) == 0 {
		return nil, nil
	}
	r := m.responses[min(m.answered, len(m.responses)-1)]
	m.answered++
	return r.records, r.err
}

func (m *mockRecordStore) DescribeSchema(_ context.Context) (domain.FieldDescriptions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.describes++
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	return m.fields, nil
}

func (m *mockRecordStore) Insert(_ context.Context, records []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.all = append(m.all, records...)
	return nil
}

func (m *mockRecordStore) Close() error { return nil }

func (m *mockRecordStore) findCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filters)
}

type docSearch struct {
	Query  string
	K      int
	Filter driven.SearchFilter
}

// mockDocumentStore returns partition documents accepted by the predicate, in
// insertion order, truncated to k.
type mockDocumentStore struct {
	mu       sync.Mutex
	docs     map[domain.Partition][]domain.Document
	err      error
	searches []docSearch
}

func newMockDocumentStore() *mockDocumentStore {
	return &mockDocumentStore{docs: make(map[domain.Partition][]domain.Document)}
}

func (m *mockDocumentStore) SimilaritySearch(
	_ context.Context, query string, k int, filter driven.SearchFilter,
) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, docSearch{Query: query, K: k, Filter: filter})
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Document
	for _, d := range m.docs[filter.Partition] {
		if filter.Predicate.Accepts(d.Metadata) {
			out = append(out, d)
		}
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (m *mockDocumentStore) Add(_ context.Context, partition domain.Partition, docs []domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[partition] = append(m.docs[partition], docs...)
	return nil
}

func (m *mockDocumentStore) Count(_ context.Context, partition domain.Partition) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs[partition]), nil
}

func (m *mockDocumentStore) Close() error { return nil }

func (m *mockDocumentStore) searchesIn(partition domain.Partition) []docSearch {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []docSearch
	for _, s := range m.searches {
		if s.Filter.Partition == partition {
			out = append(out, s)
		}
	}
	return out
}

// mockDistanceTable returns a fixed answer and records lookups.
type mockDistanceTable struct {
	mu      sync.Mutex
	near    []string
	err     error
	lookups []domain.DistanceQuery
}

func (m *mockDistanceTable) NearestEntities(_ context.Context, ref string, maxDistance float64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, domain.DistanceQuery{Planet: ref, Distance: maxDistance})
	return m.near, m.err
}

type mockWebSearcher struct {
	mu      sync.Mutex
	results []driven.WebResult
	err     error
	calls   int
}

func (m *mockWebSearcher) Search(_ context.Context, _ string, maxResults int) ([]driven.WebResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.results) > maxResults {
		return m.results[:maxResults], nil
	}
	return m.results, nil
}

type mockGraphStore struct {
	mu        sync.Mutex
	dishes    []domain.Dish
	located   []domain.Dish
	err       error
	queries   [][]string
	locations []string
}

func (m *mockGraphStore) QueryByIngredients(_ context.Context, ingredients []string) ([]domain.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, ingredients)
	return m.dishes, m.err
}

func (m *mockGraphStore) QueryByLocation(_ context.Context, planet string) ([]domain.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, planet)
	return m.located, nil
}

func (m *mockGraphStore) QueryByRawExpression(context.Context, string, map[string]any) ([]map[string]any, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockGraphStore) Close() error { return nil }

// mockObserver records telemetry.
type mockObserver struct {
	mu        sync.Mutex
	stages    []domain.Stage
	judgments map[string]int
	failures  int
	runs      int
	runErr    error
}

func newMockObserver() *mockObserver {
	return &mockObserver{judgments: make(map[string]int)}
}

func (m *mockObserver) ObserveStage(stage domain.Stage, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage)
}

func (m *mockObserver) ObserveJudgment(prompt string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.judgments[prompt]++
	if err != nil {
		m.failures++
	}
}

func (m *mockObserver) ObserveRun(_ domain.WorkflowResult, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.runErr = err
}

// mockCache is a map-backed judgment cache with an optional failure.
type mockCache struct {
	mu      sync.Mutex
	entries map[string]string
	err     error
	hits    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]string)}
}

func (m *mockCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.entries[key]
	if ok {
		m.hits++
	}
	return v, ok, nil
}

func (m *mockCache) Set(_ context.Context, key, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries[key] = payload
	return nil
}

// errTransport simulates a connection failure reported by an adapter.
var errTransport = fmt.Errorf("dial tcp: connection refused: %w", domain.ErrLLMUnavailable)

// errMalformed simulates a provider rejecting a request body.
var errMalformed = errors.New("400 bad request")
