// ABOUTME: Column data source contract shared by parquet, archive, and memory readers
// ABOUTME: Describes file geometry and hands out raw column buffers

package source

import "github.com/infparquet/infparquet/pkg/stats"

// ColumnInfo names one column position within a row group.
type ColumnInfo struct {
	Name string        `json:"name"`
	Type stats.TypeTag `json:"-"`
	// TypeName mirrors Type for serialized layouts.
	TypeName string `json:"type"`
}

// RowGroupInfo describes one row group's geometry.
type RowGroupInfo struct {
	Rows    uint64       `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// Layout is the static geometry of a columnar file: enough for a caller
// to walk every (row group, column) cell and to derive file-level facts.
type Layout struct {
	Name          string         `json:"name"`
	FileSize      int64          `json:"file_size"`
	Rows          uint64         `json:"rows"`
	SchemaVersion int32          `json:"schema_version"`
	RowGroups     []RowGroupInfo `json:"row_groups"`
}

// ColumnNames returns the distinct column names in first-appearance
// order across row groups.
func (l Layout) ColumnNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rg := range l.RowGroups {
		for _, c := range rg.Columns {
			if !seen[c.Name] {
				seen[c.Name] = true
				out = append(out, c.Name)
			}
		}
	}
	return out
}

// Normalize fills the serialized type names from tags or vice versa so a
// layout survives a JSON round-trip.
func (l *Layout) Normalize() {
	for i := range l.RowGroups {
		cols := l.RowGroups[i].Columns
		for j := range cols {
			if cols[j].TypeName == "" {
				cols[j].TypeName = cols[j].Type.String()
				continue
			}
			if cols[j].Type == stats.TypeUnknown {
				if tag, err := stats.ParseTypeTag(cols[j].TypeName); err == nil {
					cols[j].Type = tag
				}
			}
		}
	}
}

// ColumnData is one raw column buffer in the canonical little-endian
// encoding, plus the tag and value count the extractor needs.
type ColumnData struct {
	Data  []byte
	Type  stats.TypeTag
	Count uint64
}

// ColumnReader hands out raw column buffers addressed by row-group and
// column position. Implementations must be safe for concurrent
// ReadColumn calls; the generator fans out one worker per row group.
type ColumnReader interface {
	Layout() Layout
	ReadColumn(rowGroup, column uint32) (ColumnData, error)
}
