package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure DistanceTable implements the interface.
var _ driven.DistanceTable = (*DistanceTable)(nil)

// DistanceTable is a square planet distance matrix. The header row names the
// columns; each following row starts with its planet name.
type DistanceTable struct {
	columns []string
	rows    map[string][]float64
}

// LoadDistanceTable reads a distance matrix from a CSV file.
func LoadDistanceTable(path string) (*DistanceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open distance table: %w", err)
	}
	defer f.Close()

	table, err := ParseDistanceTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ParseDistanceTable reads a distance matrix.
func ParseDistanceTable(r io.Reader) (*DistanceTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: distance table needs at least one planet column", domain.ErrInvalidInput)
	}

	table := &DistanceTable{
		columns: header[1:],
		rows:    make(map[string][]float64),
	}
	for i := range table.columns {
		table.columns[i] = strings.TrimSpace(table.columns[i])
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		values := make([]float64, len(table.columns))
		for i := range values {
			values[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v",
					domain.ErrInvalidInput, line, table.columns[i], err)
			}
		}
		table.rows[strings.ToLower(strings.TrimSpace(record[0]))] = values
	}
	return table, nil
}

// NearestEntities returns every planet strictly closer than maxDistance to
// ref, in column order.
func (t *DistanceTable) NearestEntities(_ context.Context, ref string, maxDistance float64) ([]string, error) {
	values, ok := t.rows[strings.ToLower(strings.TrimSpace(ref))]
	if !ok {
		return nil, fmt.Errorf("planet %q: %w", ref, domain.ErrNotFound)
	}

	var near []string
	for i, d := range values {
		if d < maxDistance {
			near = append(near, t.columns[i])
		}
	}
	return near, nil
}

// Planets returns the column names.
func (t *DistanceTable) Planets() []string {
	return append([]string(nil), t.columns...)
}
