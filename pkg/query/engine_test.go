// ABOUTME: Tests for the pruning engine
// ABOUTME: Verifies condition parsing and sound row-group elimination

package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/infparquet/infparquet/pkg/generator"
	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/source"
	"github.com/infparquet/infparquet/pkg/stats"
)

func labelStats(tokens map[string]uint64, nulls uint64) *stats.StringStats {
	s := &stats.StringStats{
		HasData:   true,
		NullCount: nulls,
		HighFreq:  stats.NewTopK(10),
		Special:   stats.NewTopK(20),
	}
	for tok, n := range tokens {
		s.Special.ObserveCount(tok, n)
	}
	return s
}

// sidecarTree hand-builds the tree a generation run would produce for a
// two-row-group file: ids 1..5 with a null in the first group, 10..20
// in the second, error tokens only in the first.
func sidecarTree() *metadata.FileNode {
	rg0 := &metadata.RowGroupNode{
		ID: 0, Name: "row_group_0", Rows: 4,
		Columns: []*metadata.ColumnNode{
			{ID: 0, Name: "id", Stats: stats.Boxed(&stats.NumericStats{HasData: true, Min: 1, Max: 5, Mean: 3, TotalCount: 3, NullCount: 1})},
			{ID: 1, Name: "label", Stats: stats.Boxed(labelStats(map[string]uint64{"error": 2}, 0))},
			{ID: 2, Name: "ts", Stats: stats.Boxed(&stats.TimestampStats{HasData: true, Min: 1_700_000_000, Max: 1_700_003_600, Count: 4})},
			{ID: 3, Name: "blob"},
		},
	}
	rg1 := &metadata.RowGroupNode{
		ID: 1, Name: "row_group_1", Rows: 4,
		Columns: []*metadata.ColumnNode{
			{ID: 0, Name: "id", Stats: stats.Boxed(&stats.NumericStats{HasData: true, Min: 10, Max: 20, Mean: 15, TotalCount: 4})},
			{ID: 1, Name: "label", Stats: stats.Boxed(labelStats(nil, 0))},
			{ID: 2, Name: "ts", Stats: stats.Boxed(&stats.TimestampStats{HasData: true, Min: 1_700_007_200, Max: 1_700_010_800, Count: 4})},
		},
	}
	return &metadata.FileNode{
		ID:   0,
		Name: "events.parquet",
		Columns: []*metadata.ColumnNode{
			{ID: 0, Name: "id", Stats: stats.Boxed(&stats.NumericStats{HasData: true, Min: 1, Max: 20, Mean: 9.857, TotalCount: 7, NullCount: 1})},
			{ID: 1, Name: "label", Stats: stats.Boxed(labelStats(map[string]uint64{"error": 2}, 0))},
			{ID: 2, Name: "ts", Stats: stats.Boxed(&stats.TimestampStats{HasData: true, Min: 1_700_000_000, Max: 1_700_010_800, Count: 8})},
			{ID: 3, Name: "blob"},
		},
		RowGroups: []*metadata.RowGroupNode{rg0, rg1},
	}
}

func match(t *testing.T, conds ...string) *Result {
	t.Helper()
	res, err := NewEngine(sidecarTree()).MatchStrings(conds)
	if err != nil {
		t.Fatalf("Failed to match %v: %v", conds, err)
	}
	return res
}

func expectMatched(t *testing.T, res *Result, want []uint32) {
	t.Helper()
	if !reflect.DeepEqual(res.Matched, want) {
		t.Errorf("Expected matched row groups %v, got %v", want, res.Matched)
	}
	if res.Pruned != res.Total-len(want) {
		t.Errorf("Expected %d pruned, got %d", res.Total-len(want), res.Pruned)
	}
}

func TestParseCondition(t *testing.T) {
	cases := []struct {
		in   string
		want Condition
	}{
		{"id >= 10", Condition{Column: "id", Op: OpGe, OpText: ">=", Value: 10}},
		{"id == 7", Condition{Column: "id", Op: OpEq, OpText: "==", Value: 7}},
		{"score < -1.5", Condition{Column: "score", Op: OpLt, OpText: "<", Value: -1.5}},
		{"id is null", Condition{Column: "id", Op: OpIsNull, OpText: "is null"}},
		{"id not null", Condition{Column: "id", Op: OpNotNull, OpText: "not null"}},
		{"label contains error", Condition{Column: "label", Op: OpContains, OpText: "contains", Token: "error"}},
	}
	for _, tc := range cases {
		got, err := ParseCondition(tc.in)
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse %q: expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseConditionRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "id >", "id ?? 3", "id > abc", "is null", "id is notnull", "id contains"} {
		if _, err := ParseCondition(in); !errors.Is(err, ErrCondition) {
			t.Errorf("Expected ErrCondition for %q, got %v", in, err)
		}
	}
}

func TestMatchNumericBounds(t *testing.T) {
	expectMatched(t, match(t, "id > 6"), []uint32{1})
	expectMatched(t, match(t, "id <= 5"), []uint32{0})
	expectMatched(t, match(t, "id == 7"), []uint32{})
	expectMatched(t, match(t, "id >= 1"), []uint32{0, 1})
	expectMatched(t, match(t, "id < 1"), []uint32{})
	expectMatched(t, match(t, "id != 3"), []uint32{0, 1})
}

func TestMatchNotEqualOnConstantColumn(t *testing.T) {
	file := &metadata.FileNode{
		Name: "constant.parquet",
		Columns: []*metadata.ColumnNode{
			{ID: 0, Name: "k", Stats: stats.Boxed(&stats.NumericStats{HasData: true, Min: 7, Max: 7, TotalCount: 3})},
		},
		RowGroups: []*metadata.RowGroupNode{
			{ID: 0, Name: "row_group_0", Rows: 3, Columns: []*metadata.ColumnNode{
				{ID: 0, Name: "k", Stats: stats.Boxed(&stats.NumericStats{HasData: true, Min: 7, Max: 7, TotalCount: 3})},
			}},
		},
	}
	e := NewEngine(file)

	res, err := e.MatchStrings([]string{"k != 7"})
	if err != nil {
		t.Fatalf("Failed to match: %v", err)
	}
	if len(res.Matched) != 0 {
		t.Errorf("Expected constant column to prune !=, got %v", res.Matched)
	}

	res, err = e.MatchStrings([]string{"k != 8"})
	if err != nil {
		t.Fatalf("Failed to match: %v", err)
	}
	if len(res.Matched) != 1 {
		t.Errorf("Expected constant column to keep != 8, got %v", res.Matched)
	}
}

func TestMatchNullChecks(t *testing.T) {
	expectMatched(t, match(t, "id is null"), []uint32{0})
	expectMatched(t, match(t, "id not null"), []uint32{0, 1})
}

func TestMatchAllNullColumn(t *testing.T) {
	allNull := &stats.NumericStats{NullCount: 4}
	file := &metadata.FileNode{
		Name:    "nulls.parquet",
		Columns: []*metadata.ColumnNode{{ID: 0, Name: "v", Stats: stats.Boxed(allNull)}},
		RowGroups: []*metadata.RowGroupNode{
			{ID: 0, Name: "row_group_0", Rows: 4, Columns: []*metadata.ColumnNode{
				{ID: 0, Name: "v", Stats: stats.Boxed(allNull)},
			}},
		},
	}
	e := NewEngine(file)

	for cond, want := range map[string]int{
		"v is null":  1,
		"v not null": 0,
		"v == 1":     0,
		"v > 0":      0,
	} {
		res, err := e.MatchStrings([]string{cond})
		if err != nil {
			t.Fatalf("Failed to match %q: %v", cond, err)
		}
		if len(res.Matched) != want {
			t.Errorf("Condition %q: expected %d matches, got %v", cond, want, res.Matched)
		}
	}
}

func TestMatchContains(t *testing.T) {
	// The special-token table is exact, so absence is proof.
	expectMatched(t, match(t, "label contains error"), []uint32{0})
	res := match(t, "label contains bug")
	if len(res.Matched) != 0 || res.Pruned != 2 {
		t.Errorf("Expected bug to prune everything, got %+v", res)
	}
	// Tokens outside the vocabulary never prune.
	expectMatched(t, match(t, "label contains zebra"), []uint32{0, 1})
	// contains on a numeric column never prunes.
	expectMatched(t, match(t, "id contains error"), []uint32{0, 1})
}

func TestMatchTimestampBounds(t *testing.T) {
	expectMatched(t, match(t, "ts >= 1700007200"), []uint32{1})
	expectMatched(t, match(t, "ts < 1700000000"), []uint32{})
	expectMatched(t, match(t, "ts <= 1700003600"), []uint32{0})
}

func TestMatchMissingColumnPrunesEverything(t *testing.T) {
	res := match(t, "ghost > 1")
	if len(res.Matched) != 0 || res.Pruned != res.Total {
		t.Errorf("Expected missing column to prune the whole file, got %+v", res)
	}
}

func TestMatchAbsentStatsNeverPrune(t *testing.T) {
	// blob carries no statistics in row group 0 and does not exist in
	// row group 1.
	expectMatched(t, match(t, "blob > 100"), []uint32{0})
	expectMatched(t, match(t, "blob is null"), []uint32{0})
}

func TestMatchConjunction(t *testing.T) {
	expectMatched(t, match(t, "id > 0", "id is null"), []uint32{0})
	expectMatched(t, match(t, "id > 0", "label contains error", "ts < 1700003600"), []uint32{0})
}

func TestMatchNoConditions(t *testing.T) {
	expectMatched(t, match(t), []uint32{0, 1})
}

func TestMatchStringsParseFailure(t *testing.T) {
	if _, err := NewEngine(sidecarTree()).MatchStrings([]string{"id >"}); !errors.Is(err, ErrCondition) {
		t.Errorf("Expected ErrCondition, got %v", err)
	}
}

func TestEngineOverGeneratedTree(t *testing.T) {
	m := source.NewMemory("gen.parquet")
	rg0 := m.AddRowGroup(3)
	var low []byte
	low = source.AppendInt32(low, 1)
	low = source.AppendInt32(low, 2)
	low = source.AppendInt32(low, 3)
	m.AddColumn(rg0, "v", source.ColumnData{Data: low, Type: stats.TypeInt32, Count: 3})
	rg1 := m.AddRowGroup(3)
	var high []byte
	high = source.AppendInt32(high, 100)
	high = source.AppendInt32(high, 200)
	high = source.AppendNullInt32(high)
	m.AddColumn(rg1, "v", source.ColumnData{Data: high, Type: stats.TypeInt32, Count: 3})

	file, err := generator.Generate(context.Background(), m, generator.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to generate metadata: %v", err)
	}
	e := NewEngine(file)

	res, err := e.MatchStrings([]string{"v > 50"})
	if err != nil {
		t.Fatalf("Failed to match: %v", err)
	}
	if !reflect.DeepEqual(res.Matched, []uint32{1}) {
		t.Errorf("Expected generated stats to prune the low group, got %v", res.Matched)
	}

	res, err = e.MatchStrings([]string{"v is null"})
	if err != nil {
		t.Fatalf("Failed to match: %v", err)
	}
	if !reflect.DeepEqual(res.Matched, []uint32{1}) {
		t.Errorf("Expected null check to keep only the second group, got %v", res.Matched)
	}
}
