// ABOUTME: Metadata tree for one columnar file
// ABOUTME: File, row-group, and column nodes with rolled-up statistics

package metadata

import (
	"fmt"

	"github.com/infparquet/infparquet/pkg/stats"
)

// Item kinds distinguish plain numbers from epoch-second timestamps.
const (
	ItemKindNumeric   = "numeric"
	ItemKindTimestamp = "timestamp"
)

// Standard file-level item names.
const (
	ItemRowCount        = "row_count"
	ItemFileSize        = "file_size"
	ItemRowGroupCount   = "row_group_count"
	ItemColumnCount     = "column_count"
	ItemAvgRowsPerGroup = "avg_rows_per_row_group"
	ItemCreationTime    = "creation_time"
	ItemSchemaVersion   = "schema_version"
)

// Item is one named scalar fact attached to the file node.
type Item struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

// ColumnNode is a leaf under a row group, or a file-level roll-across
// result when owned by the file directly.
type ColumnNode struct {
	ID    uint32         `json:"id"`
	Name  string         `json:"name"`
	Stats stats.Envelope `json:"stats"`
}

// RowGroupNode owns its column leaves in source order. Its own stats are
// the roll-up of the same-variant column stats beneath it.
type RowGroupNode struct {
	ID      uint32         `json:"id"`
	Name    string         `json:"name"`
	Rows    uint64         `json:"rows"`
	Stats   stats.Envelope `json:"stats"`
	Columns []*ColumnNode  `json:"columns"`
}

// Column finds a column leaf by name.
func (rg *RowGroupNode) Column(name string) (*ColumnNode, bool) {
	for _, c := range rg.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// FileNode is the root of a metadata tree. Ownership runs strictly
// downward: the file owns row groups and the roll-across columns, row
// groups own their leaves, and the whole tree is released as a unit.
// After generation the tree is read-only.
type FileNode struct {
	ID        uint32          `json:"id"`
	Name      string          `json:"name"`
	Items     []Item          `json:"items"`
	RowGroups []*RowGroupNode `json:"row_groups"`
	Columns   []*ColumnNode   `json:"columns"`
	Custom    []*CustomResult `json:"custom,omitempty"`
}

// Item finds a file-level fact by name.
func (f *FileNode) Item(name string) (Item, bool) {
	for _, it := range f.Items {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

// ItemValue returns a fact's value, zero when absent.
func (f *FileNode) ItemValue(name string) float64 {
	it, _ := f.Item(name)
	return it.Value
}

// Column finds a file-level roll-across column by name.
func (f *FileNode) Column(name string) (*ColumnNode, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// RowGroup finds a row group by id.
func (f *FileNode) RowGroup(id uint32) (*RowGroupNode, bool) {
	for _, rg := range f.RowGroups {
		if rg.ID == id {
			return rg, true
		}
	}
	return nil, false
}

// CustomByName finds a custom-metadata result by its predicate name.
func (f *FileNode) CustomByName(name string) (*CustomResult, bool) {
	for _, c := range f.Custom {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Validate checks the sibling-uniqueness invariants a well-formed tree
// holds: row-group ids unique under the file, column ids unique under
// each parent.
func (f *FileNode) Validate() error {
	rgSeen := make(map[uint32]bool)
	for _, rg := range f.RowGroups {
		if rg == nil {
			return fmt.Errorf("nil row group under file %q", f.Name)
		}
		if rgSeen[rg.ID] {
			return fmt.Errorf("duplicate row group id %d under file %q", rg.ID, f.Name)
		}
		rgSeen[rg.ID] = true
		colSeen := make(map[uint32]bool)
		for _, c := range rg.Columns {
			if c == nil {
				return fmt.Errorf("nil column under row group %d", rg.ID)
			}
			if colSeen[c.ID] {
				return fmt.Errorf("duplicate column id %d under row group %d", c.ID, rg.ID)
			}
			colSeen[c.ID] = true
		}
	}
	fileCols := make(map[uint32]bool)
	for _, c := range f.Columns {
		if c == nil {
			return fmt.Errorf("nil file-level column under file %q", f.Name)
		}
		if fileCols[c.ID] {
			return fmt.Errorf("duplicate file-level column id %d", c.ID)
		}
		fileCols[c.ID] = true
	}
	return nil
}
