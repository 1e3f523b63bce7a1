// ABOUTME: Coarse row-group pruning engine
// ABOUTME: Decides might-match vs cannot-match from sidecar statistics

package query

import (
	"fmt"
	"slices"

	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/stats"
)

// Engine prunes row groups of one file using only its metadata tree.
// Decisions are sound: a row group is dropped only when its statistics
// prove no row can satisfy every condition. Statistics that cannot
// decide a condition keep the row group in.
type Engine struct {
	file *metadata.FileNode
}

// NewEngine wraps a loaded sidecar tree.
func NewEngine(file *metadata.FileNode) *Engine {
	return &Engine{file: file}
}

// MatchRowGroups evaluates the conjunction of conds against every row
// group and returns the IDs that might match. File-level aggregates are
// consulted first: when they already exclude a condition, every row
// group is pruned without walking them.
func (e *Engine) MatchRowGroups(conds []Condition) (*Result, error) {
	if e.file == nil {
		return nil, fmt.Errorf("query: no metadata tree loaded")
	}

	res := &Result{Total: len(e.file.RowGroups), Matched: []uint32{}}
	for _, c := range conds {
		res.Conditions = append(res.Conditions, c.String())
	}

	for _, c := range conds {
		if !mightMatch(c, columnByName(e.file.Columns, c.Column)) {
			res.Pruned = res.Total
			return res, nil
		}
	}

	for _, rg := range e.file.RowGroups {
		keep := true
		for _, c := range conds {
			if !mightMatch(c, columnByName(rg.Columns, c.Column)) {
				keep = false
				break
			}
		}
		if keep {
			res.Matched = append(res.Matched, rg.ID)
		}
	}
	res.Pruned = res.Total - len(res.Matched)
	return res, nil
}

// MatchStrings is MatchRowGroups over unparsed condition text.
func (e *Engine) MatchStrings(conds []string) (*Result, error) {
	parsed, err := ParseConditions(conds)
	if err != nil {
		return nil, err
	}
	return e.MatchRowGroups(parsed)
}

func columnByName(cols []*metadata.ColumnNode, name string) *metadata.ColumnNode {
	for _, col := range cols {
		if col != nil && col.Name == name {
			return col
		}
	}
	return nil
}

// mightMatch reports whether col's statistics leave room for a row
// satisfying c. A missing column cannot satisfy any condition; missing
// statistics cannot exclude one.
func mightMatch(c Condition, col *metadata.ColumnNode) bool {
	if col == nil {
		return false
	}
	s := col.Stats.Stats
	if s == nil {
		return true
	}

	switch c.Op {
	case OpIsNull:
		return stats.NullsOf(s) > 0
	case OpNotNull:
		return stats.HasData(s)
	case OpContains:
		return mightContain(c.Token, s)
	default:
		return mightCompare(c.Op, c.Value, s)
	}
}

// mightCompare prunes numeric and timestamp columns by their min/max
// bounds. Other variants carry no value bounds, so they never prune.
func mightCompare(op Op, v float64, s stats.ColumnStats) bool {
	var min, max float64
	switch t := s.(type) {
	case *stats.NumericStats:
		min, max = t.Min, t.Max
	case *stats.TimestampStats:
		min, max = float64(t.Min), float64(t.Max)
	default:
		return true
	}
	if !stats.HasData(s) {
		// Only nulls: no value exists to compare.
		return false
	}

	switch op {
	case OpEq:
		return min <= v && v <= max
	case OpNe:
		return !(min == v && max == v)
	case OpLt:
		return min < v
	case OpLe:
		return min <= v
	case OpGt:
		return max > v
	case OpGe:
		return max >= v
	default:
		return true
	}
}

// mightContain prunes string columns by the special-token table. The
// vocabulary is fixed and the table capacity exceeds it, so a zero
// count is proof of absence; any other token never prunes.
func mightContain(token string, s stats.ColumnStats) bool {
	str, ok := s.(*stats.StringStats)
	if !ok {
		return true
	}
	if !slices.Contains(stats.SpecialTokens(), token) {
		return true
	}
	if !stats.HasData(s) {
		return false
	}
	return str.Special.Count(token) > 0
}
