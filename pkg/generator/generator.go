// ABOUTME: Hierarchical metadata generation over a column reader
// ABOUTME: Per-row-group fan-out, roll-up, roll-across by column name

package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/pool"
	"github.com/infparquet/infparquet/pkg/predicate"
	"github.com/infparquet/infparquet/pkg/source"
	"github.com/infparquet/infparquet/pkg/stats"
)

// rowGroupResult is what one worker hands back to the coordinator:
// the finished row-group subtree plus one predicate-cell row per
// configured predicate.
type rowGroupResult struct {
	node  *metadata.RowGroupNode
	cells [][]bool
}

// Generate builds the metadata tree for reader's file: leaf statistics
// per (row group, column) cell, a per-row-group roll-up, a
// per-column-name roll-across, scalar file items, and the custom
// predicate matrices. Row groups are processed in parallel on a bounded
// pool; workers return results and only this goroutine touches the
// tree. Any column read failure aborts the whole run with no partial
// tree.
func Generate(ctx context.Context, reader source.ColumnReader, cfg Config) (*metadata.FileNode, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: nil column reader", stats.ErrInvalidParameter)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	layout := reader.Layout()
	lim := cfg.Limits()

	tasks := make([]pool.Task[rowGroupResult], len(layout.RowGroups))
	for i := range layout.RowGroups {
		rg := uint32(i)
		info := layout.RowGroups[i]
		tasks[i] = func(ctx context.Context) (rowGroupResult, error) {
			return processRowGroup(reader, rg, info, cfg, lim)
		}
	}

	results, err := pool.Run(ctx, tasks, cfg.MaxWorkers)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", layout.Name, err)
	}

	file := &metadata.FileNode{ID: 0, Name: layout.Name}
	for _, r := range results {
		file.RowGroups = append(file.RowGroups, r.node)
	}

	// The roll-across barrier: every row-group task has reported by now.
	if err := rollAcross(file); err != nil {
		return nil, fmt.Errorf("generate %s: %w", layout.Name, err)
	}

	file.Items = fileItems(layout, time.Now())

	if cfg.GenerateCustomMetadata {
		file.Custom = assembleCustom(cfg.Predicates, results)
	}

	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("generate %s: %w", layout.Name, err)
	}
	return file, nil
}

// processRowGroup is one worker's unit: read each column once, extract
// leaf stats and predicate cells from the same buffer, then fold the
// roll-up.
func processRowGroup(reader source.ColumnReader, rg uint32, info source.RowGroupInfo, cfg Config, lim stats.Limits) (rowGroupResult, error) {
	node := &metadata.RowGroupNode{
		ID:   rg,
		Name: fmt.Sprintf("row_group_%d", rg),
		Rows: info.Rows,
	}

	var cells [][]bool
	if cfg.GenerateCustomMetadata {
		cells = make([][]bool, len(cfg.Predicates))
		for p := range cells {
			cells[p] = make([]bool, len(info.Columns))
		}
	}

	needData := cfg.GenerateBaseMetadata || len(cells) > 0
	for c := range info.Columns {
		col := &metadata.ColumnNode{ID: uint32(c), Name: info.Columns[c].Name}
		if needData {
			cd, err := reader.ReadColumn(rg, uint32(c))
			if err != nil {
				return rowGroupResult{}, fmt.Errorf("read row group %d column %q: %w", rg, info.Columns[c].Name, err)
			}
			if cfg.GenerateBaseMetadata {
				col.Stats = stats.Boxed(stats.Extract(cd.Data, cd.Type, cd.Count, lim))
			}
			for p := range cells {
				cells[p][c] = predicate.Cell(cfg.Predicates[p].Query, cd)
			}
		}
		node.Columns = append(node.Columns, col)
	}

	if cfg.GenerateBaseMetadata {
		summary, err := rollUp(node.Columns)
		if err != nil {
			return rowGroupResult{}, fmt.Errorf("roll up row group %d: %w", rg, err)
		}
		node.Stats = stats.Boxed(summary)
	}
	return rowGroupResult{node: node, cells: cells}, nil
}

// rollUp folds one row group's column stats into a single summary. The
// first column carrying data picks the variant; columns of other
// variants are skipped, so a row group with no numeric columns reports
// no numeric summary.
func rollUp(cols []*metadata.ColumnNode) (stats.ColumnStats, error) {
	kind := stats.KindNone
	for _, col := range cols {
		if stats.HasData(col.Stats.Stats) {
			kind = stats.KindOf(col.Stats.Stats)
			break
		}
	}
	if kind == stats.KindNone {
		return nil, nil
	}

	var acc stats.ColumnStats
	for _, col := range cols {
		s := col.Stats.Stats
		if stats.KindOf(s) != kind {
			continue
		}
		merged, err := stats.Merge(acc, s)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}

// rollAcross groups leaf columns by name across all row groups and
// folds each group in row-group order. The file's column children
// follow first appearance of each name, with IDs assigned 0..n-1 in
// that order.
func rollAcross(file *metadata.FileNode) error {
	var names []string
	byName := make(map[string]stats.ColumnStats)
	for _, rg := range file.RowGroups {
		for _, col := range rg.Columns {
			acc, seen := byName[col.Name]
			if !seen {
				names = append(names, col.Name)
			}
			merged, err := stats.Merge(acc, col.Stats.Stats)
			if err != nil {
				return fmt.Errorf("roll across column %q: %w", col.Name, err)
			}
			byName[col.Name] = merged
		}
	}
	for i, name := range names {
		file.Columns = append(file.Columns, &metadata.ColumnNode{
			ID:    uint32(i),
			Name:  name,
			Stats: stats.Boxed(byName[name]),
		})
	}
	return nil
}

// fileItems computes the scalar file facts from layout counters alone.
func fileItems(layout source.Layout, now time.Time) []metadata.Item {
	rowGroups := len(layout.RowGroups)
	avg := 0.0
	if rowGroups > 0 {
		avg = float64(layout.Rows) / float64(rowGroups)
	}
	return []metadata.Item{
		{Name: metadata.ItemRowCount, Kind: metadata.ItemKindNumeric, Value: float64(layout.Rows)},
		{Name: metadata.ItemFileSize, Kind: metadata.ItemKindNumeric, Value: float64(layout.FileSize)},
		{Name: metadata.ItemRowGroupCount, Kind: metadata.ItemKindNumeric, Value: float64(rowGroups)},
		{Name: metadata.ItemColumnCount, Kind: metadata.ItemKindNumeric, Value: float64(len(layout.ColumnNames()))},
		{Name: metadata.ItemAvgRowsPerGroup, Kind: metadata.ItemKindNumeric, Value: avg},
		{Name: metadata.ItemCreationTime, Kind: metadata.ItemKindTimestamp, Value: float64(now.Unix())},
		{Name: metadata.ItemSchemaVersion, Kind: metadata.ItemKindNumeric, Value: float64(layout.SchemaVersion)},
	}
}

// assembleCustom stitches per-row-group predicate cells into whole-file
// matrices, one result per predicate in configuration order.
func assembleCustom(preds []predicate.Named, results []rowGroupResult) []*metadata.CustomResult {
	if len(preds) == 0 {
		return nil
	}
	out := make([]*metadata.CustomResult, 0, len(preds))
	for p, pred := range preds {
		m := make(metadata.Matrix, len(results))
		for rg, r := range results {
			m[rg] = r.cells[p]
		}
		out = append(out, metadata.NewCustomResult(pred.Name, pred.Query, m))
	}
	return out
}
