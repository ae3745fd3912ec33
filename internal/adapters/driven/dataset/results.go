package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure ResultFile implements the interface.
var _ driven.ResultSink = (*ResultFile)(nil)

// resultHeader is the header row of the results CSV.
var resultHeader = []string{"row_id", "result"}

// ResultFile collects batch results and writes them sorted by question id
// when closed. A later result for the same id replaces the earlier one.
type ResultFile struct {
	mu      sync.Mutex
	path    string
	results map[int]string
	closed  bool
}

// NewResultFile creates a sink writing to path.
func NewResultFile(path string) *ResultFile {
	return &ResultFile{path: path, results: make(map[int]string)}
}

// Append records the result for one question.
func (f *ResultFile) Append(_ context.Context, questionID int, result string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("append result %d: sink closed", questionID)
	}
	f.results[questionID] = result
	return nil
}

// Close writes the CSV. The file is replaced atomically.
func (f *ResultFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	ids := make([]int, 0, len(f.results))
	for id := range f.results {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create results directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".results-*.csv")
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	_ = w.Write(resultHeader)
	for _, id := range ids {
		_ = w.Write([]string{strconv.Itoa(id), f.results[id]})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

// Path returns the output path.
func (f *ResultFile) Path() string {
	return f.path
}
