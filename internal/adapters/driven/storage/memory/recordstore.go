package memory

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
// It evaluates the subset of the MongoDB query language that generated
// queries use: field equality with array membership, $and, $or, $nor and
// the operators $eq, $ne, $in, $nin, $all, $exists, $regex, $gt, $gte,
// $lt and $lte. Anything else fails with domain.ErrStoreQuery.
type RecordStore struct {
	mu      sync.RWMutex
	records []domain.Record
}

// NewRecordStore creates a record store seeded with records.
func NewRecordStore(records ...domain.Record) *RecordStore {
	return &RecordStore{records: records}
}

// Find returns every record matching filter in insertion order.
func (s *RecordStore) Find(ctx context.Context, filter map[string]any) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreQuery, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make([]domain.Record, 0)
	for _, rec := range s.records {
		if matchFilter(rec, filter) {
			found = append(found, rec)
		}
	}
	return found, nil
}

// DescribeSchema lists each metadata key with its sorted distinct values.
func (s *RecordStore) DescribeSchema(ctx context.Context) (domain.FieldDescriptions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	distinct := make(map[string]map[string]struct{})
	for _, rec := range s.records {
		for key, val := range rec {
			if key == "_id" || key == "embedding" || key == "page_content" {
				continue
			}
			if distinct[key] == nil {
				distinct[key] = make(map[string]struct{})
			}
			for _, v := range flatten(val) {
				if v == nil {
					continue
				}
				distinct[key][fmt.Sprint(v)] = struct{}{}
			}
		}
	}

	fields := make(domain.FieldDescriptions, len(distinct))
	for key, set := range distinct {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		fields[key] = values
	}
	return fields, nil
}

// Insert appends records.
func (s *RecordStore) Insert(_ context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Close releases resources (no-op for memory store).
func (s *RecordStore) Close() error {
	return nil
}

// validateFilter rejects unknown operators and malformed operands.
func validateFilter(filter map[string]any) error {
	for key, cond := range filter {
		switch key {
		case "$and", "$or", "$nor":
			subs, ok := clauses(cond)
			if !ok || len(subs) == 0 {
				return fmt.Errorf("%s needs a non-empty array of objects", key)
			}
			for _, sub := range subs {
				if err := validateFilter(sub); err != nil {
					return err
				}
			}
		default:
			if strings.HasPrefix(key, "$") {
				return fmt.Errorf("unknown top-level operator %s", key)
			}
			if ops, ok := operatorDoc(cond); ok {
				if err := validateOperators(ops); err != nil {
					return fmt.Errorf("field %s: %w", key, err)
				}
			}
		}
	}
	return nil
}

func validateOperators(ops map[string]any) error {
	for op, arg := range ops {
		switch op {
		case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		case "$in", "$nin", "$all":
			if _, ok := asArray(arg); !ok {
				return fmt.Errorf("%s needs an array", op)
			}
		case "$exists":
			if _, ok := arg.(bool); !ok {
				return fmt.Errorf("$exists needs a boolean")
			}
		case "$regex":
			pattern, ok := arg.(string)
			if !ok {
				return fmt.Errorf("$regex needs a string")
			}
			if _, err := compileRegex(pattern, ops["$options"]); err != nil {
				return err
			}
		case "$options":
			if _, ok := ops["$regex"]; !ok {
				return fmt.Errorf("$options without $regex")
			}
		default:
			return fmt.Errorf("unknown operator %s", op)
		}
	}
	return nil
}

// matchFilter evaluates a validated filter against a record.
func matchFilter(rec domain.Record, filter map[string]any) bool {
	for key, cond := range filter {
		var ok bool
		switch key {
		case "$and":
			subs, _ := clauses(cond)
			ok = true
			for _, sub := range subs {
				ok = ok && matchFilter(rec, sub)
			}
		case "$or":
			subs, _ := clauses(cond)
			for _, sub := range subs {
				ok = ok || matchFilter(rec, sub)
			}
		case "$nor":
			subs, _ := clauses(cond)
			ok = true
			for _, sub := range subs {
				ok = ok && !matchFilter(rec, sub)
			}
		default:
			val, present := rec[key]
			if ops, isOps := operatorDoc(cond); isOps {
				ok = matchOperators(val, present, ops)
			} else {
				ok = present && contains(val, cond)
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchOperators(val any, present bool, ops map[string]any) bool {
	for op, arg := range ops {
		var ok bool
		switch op {
		case "$eq":
			ok = present && contains(val, arg)
		case "$ne":
			ok = !present || !contains(val, arg)
		case "$in":
			wants, _ := asArray(arg)
			for _, want := range wants {
				ok = ok || (present && contains(val, want))
			}
		case "$nin":
			wants, _ := asArray(arg)
			ok = true
			for _, want := range wants {
				ok = ok && !(present && contains(val, want))
			}
		case "$all":
			wants, _ := asArray(arg)
			ok = present
			for _, want := range wants {
				ok = ok && contains(val, want)
			}
		case "$exists":
			ok = present == arg.(bool)
		case "$regex":
			re, _ := compileRegex(arg.(string), ops["$options"])
			for _, v := range flatten(val) {
				if s, isString := v.(string); isString && re.MatchString(s) {
					ok = true
				}
			}
		case "$options":
			ok = true
		case "$gt", "$gte", "$lt", "$lte":
			ok = present && compareAny(val, arg, op)
		}
		if !ok {
			return false
		}
	}
	return true
}

// clauses returns the sub-filters of a logical operator.
func clauses(cond any) ([]map[string]any, bool) {
	switch c := cond.(type) {
	case []map[string]any:
		return c, true
	case []any:
		subs := make([]map[string]any, 0, len(c))
		for _, item := range c {
			sub, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			subs = append(subs, sub)
		}
		return subs, true
	default:
		return nil, false
	}
}

// asArray accepts decoded JSON arrays and string slices.
func asArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []string:
		return flatten(a), true
	default:
		return nil, false
	}
}

// operatorDoc reports whether cond is an operator document like {"$in": [...]}.
func operatorDoc(cond any) (map[string]any, bool) {
	m, ok := cond.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func compileRegex(pattern string, options any) (*regexp.Regexp, error) {
	if opts, ok := options.(string); ok && strings.Contains(opts, "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid $regex: %w", err)
	}
	return re, nil
}

// contains matches a scalar against a value, or any element of an array value.
func contains(val, want any) bool {
	if equal(val, want) {
		return true
	}
	for _, v := range flatten(val) {
		if equal(v, want) {
			return true
		}
	}
	return false
}

func flatten(val any) []any {
	switch v := val.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{val}
	}
}

func equal(a, b any) bool {
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func compareAny(val, arg any, op string) bool {
	y, ok := toFloat(arg)
	if !ok {
		return false
	}
	for _, v := range flatten(val) {
		x, ok := toFloat(v)
		if !ok {
			continue
		}
		switch op {
		case "$gt":
			ok = x > y
		case "$gte":
			ok = x >= y
		case "$lt":
			ok = x < y
		case "$lte":
			ok = x <= y
		}
		if ok {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
