// ABOUTME: Named boolean predicates over raw column buffers
// ABOUTME: Substring-dispatched registry; unknown queries evaluate all-false

package predicate

import (
	"fmt"
	"strings"

	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/source"
	"github.com/infparquet/infparquet/pkg/stats"
)

// Named pairs a user-facing result name with an opaque query string.
// The query dispatches by substring match against the registry, so
// "has_null", "col has_null", and "has_null(any)" all resolve to the
// same predicate.
type Named struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// cellFunc evaluates one predicate against one raw cell buffer.
type cellFunc func(cd source.ColumnData) bool

var registry = []struct {
	token string
	fn    cellFunc
}{
	{"has_null", hasNull},
}

func lookup(query string) cellFunc {
	for _, r := range registry {
		if strings.Contains(query, r.token) {
			return r.fn
		}
	}
	return nil
}

// Known reports whether query resolves to a shipped predicate. Callers
// that want to warn about all-false matrices check this up front;
// evaluation itself never fails on an unknown query.
func Known(query string) bool {
	return lookup(query) != nil
}

// Cell evaluates query against one raw cell buffer. Unknown queries are
// false for every cell.
func Cell(query string, cd source.ColumnData) bool {
	if fn := lookup(query); fn != nil {
		return fn(cd)
	}
	return false
}

func hasNull(cd source.ColumnData) bool {
	return stats.CountNulls(cd.Data, cd.Type, cd.Count) > 0
}

// Validate rejects malformed predicate configurations: empty names or
// queries, and duplicate names (later results would shadow earlier ones
// in the sidecar).
func Validate(preds []Named) error {
	seen := make(map[string]bool, len(preds))
	for i, p := range preds {
		if p.Name == "" {
			return fmt.Errorf("%w: predicate %d has no name", ErrPredicate, i)
		}
		if p.Query == "" {
			return fmt.Errorf("%w: predicate %q has no query", ErrPredicate, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate predicate name %q", ErrPredicate, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Evaluate applies every predicate to every (row group, column) cell of
// reader, one result per predicate. Cells keep the reader's layout
// order, so rows may differ in width when row groups do. A failed
// column read aborts the whole evaluation.
func Evaluate(preds []Named, reader source.ColumnReader) ([]*metadata.CustomResult, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: nil column reader", ErrPredicate)
	}
	if err := Validate(preds); err != nil {
		return nil, err
	}

	layout := reader.Layout()
	results := make([]*metadata.CustomResult, 0, len(preds))
	for _, p := range preds {
		fn := lookup(p.Query)
		m := make(metadata.Matrix, len(layout.RowGroups))
		for rg := range layout.RowGroups {
			row := make([]bool, len(layout.RowGroups[rg].Columns))
			m[rg] = row
			if fn == nil {
				continue
			}
			for c := range row {
				cd, err := reader.ReadColumn(uint32(rg), uint32(c))
				if err != nil {
					return nil, fmt.Errorf("evaluate %q at row group %d column %d: %w", p.Name, rg, c, err)
				}
				row[c] = fn(cd)
			}
		}
		results = append(results, metadata.NewCustomResult(p.Name, p.Query, m))
	}
	return results, nil
}
