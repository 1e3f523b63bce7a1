// ABOUTME: Parquet-backed column reader
// ABOUTME: Re-encodes parquet pages into canonical buffers with sentinel nulls

package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"

	"github.com/infparquet/infparquet/pkg/stats"
)

// ParquetOptions refines physical types with logical roles. Column names
// listed in TimestampColumns must be INT64 nanosecond timestamps; names
// in CategoricalColumns must be byte arrays and are summarized as
// categories instead of free strings. INT96 columns are always treated
// as timestamps.
type ParquetOptions struct {
	TimestampColumns   []string
	CategoricalColumns []string
}

// ParquetReader reads column chunks out of a parquet file and hands them
// to the extractor in the canonical encoding. Parquet nulls are replaced
// by the sentinel values the null heuristics recognize.
type ParquetReader struct {
	file   *os.File
	pf     *parquet.File
	layout Layout
}

// OpenParquet opens path and decodes its footer geometry.
func OpenParquet(path string, opts ParquetOptions) (*ParquetReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: parquet footer of %s: %v", ErrCorrupt, path, err)
	}

	tsCols := toSet(opts.TimestampColumns)
	catCols := toSet(opts.CategoricalColumns)

	layout := Layout{
		Name:          filepath.Base(path),
		FileSize:      st.Size(),
		SchemaVersion: pf.Metadata().Version,
	}
	colNames := leafNames(pf.Schema())
	for _, rg := range pf.RowGroups() {
		chunks := rg.ColumnChunks()
		cols := make([]ColumnInfo, len(chunks))
		for j, ch := range chunks {
			name := fmt.Sprintf("column_%d", j)
			if j < len(colNames) {
				name = colNames[j]
			}
			tag := tagFor(name, ch.Type().Kind(), tsCols, catCols)
			cols[j] = ColumnInfo{Name: name, Type: tag, TypeName: tag.String()}
		}
		layout.RowGroups = append(layout.RowGroups, RowGroupInfo{
			Rows:    uint64(rg.NumRows()),
			Columns: cols,
		})
		layout.Rows += uint64(rg.NumRows())
	}

	return &ParquetReader{file: f, pf: pf, layout: layout}, nil
}

// leafNames lists leaf column paths in chunk order, joining nested paths
// with dots.
func leafNames(schema *parquet.Schema) []string {
	paths := schema.Columns()
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = strings.Join(p, ".")
	}
	return out
}

func toSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func tagFor(name string, kind parquet.Kind, tsCols, catCols map[string]bool) stats.TypeTag {
	switch kind {
	case parquet.Boolean:
		return stats.TypeBoolean
	case parquet.Int32:
		return stats.TypeInt32
	case parquet.Int64:
		if tsCols[name] {
			return stats.TypeTimestamp
		}
		return stats.TypeInt64
	case parquet.Int96:
		return stats.TypeTimestamp
	case parquet.Float:
		return stats.TypeFloat
	case parquet.Double:
		return stats.TypeDouble
	case parquet.ByteArray:
		if catCols[name] {
			return stats.TypeCategorical
		}
		return stats.TypeByteArray
	case parquet.FixedLenByteArray:
		return stats.TypeFixedLenByteArray
	default:
		return stats.TypeUnknown
	}
}

func (r *ParquetReader) Layout() Layout {
	return r.layout
}

// Close releases the underlying file.
func (r *ParquetReader) Close() error {
	return r.file.Close()
}

func (r *ParquetReader) ReadColumn(rowGroup, column uint32) (ColumnData, error) {
	rgs := r.pf.RowGroups()
	if int(rowGroup) >= len(rgs) {
		return ColumnData{}, fmt.Errorf("%w: row group %d", ErrNotFound, rowGroup)
	}
	chunks := rgs[rowGroup].ColumnChunks()
	if int(column) >= len(chunks) {
		return ColumnData{}, fmt.Errorf("%w: row group %d column %d", ErrNotFound, rowGroup, column)
	}
	chunk := chunks[column]
	tag := r.layout.RowGroups[rowGroup].Columns[column].Type
	fixedLen := 0
	if tag == stats.TypeFixedLenByteArray {
		fixedLen = chunk.Type().Length()
	}

	var out []byte
	var count uint64
	pages := chunk.Pages()
	defer pages.Close()
	values := make([]parquet.Value, 512)
	for {
		page, err := pages.ReadPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ColumnData{}, fmt.Errorf("%w: page of row group %d column %d: %v", ErrCorrupt, rowGroup, column, err)
		}
		reader := page.Values()
		for {
			n, err := reader.ReadValues(values)
			for _, v := range values[:n] {
				out = appendParquetValue(out, tag, v, fixedLen)
			}
			count += uint64(n)
			if err == io.EOF {
				break
			}
			if err != nil {
				parquet.Release(page)
				return ColumnData{}, fmt.Errorf("%w: values of row group %d column %d: %v", ErrCorrupt, rowGroup, column, err)
			}
		}
		parquet.Release(page)
	}
	return ColumnData{Data: out, Type: tag, Count: count}, nil
}

func appendParquetValue(dst []byte, tag stats.TypeTag, v parquet.Value, fixedLen int) []byte {
	if v.IsNull() {
		switch tag {
		case stats.TypeBoolean:
			return AppendNullBool(dst)
		case stats.TypeInt32:
			return AppendNullInt32(dst)
		case stats.TypeInt64:
			return AppendNullInt64(dst)
		case stats.TypeTimestamp:
			return AppendNullTimestamp(dst)
		case stats.TypeFloat:
			return AppendNullFloat(dst)
		case stats.TypeDouble:
			return AppendNullDouble(dst)
		case stats.TypeFixedLenByteArray:
			return AppendNullFixed(dst, fixedLen)
		default:
			return AppendNullBytes(dst)
		}
	}
	switch tag {
	case stats.TypeBoolean:
		return AppendBool(dst, v.Boolean())
	case stats.TypeInt32:
		return AppendInt32(dst, v.Int32())
	case stats.TypeInt64:
		return AppendInt64(dst, v.Int64())
	case stats.TypeTimestamp:
		if v.Kind() == parquet.Int96 {
			return AppendTimestamp(dst, int96Nanos(v.Int96()))
		}
		return AppendTimestamp(dst, v.Int64())
	case stats.TypeFloat:
		return AppendFloat(dst, v.Float())
	case stats.TypeDouble:
		return AppendDouble(dst, v.Double())
	default:
		return AppendBytes(dst, v.ByteArray())
	}
}

// int96Nanos keeps the low eight bytes of an INT96, matching the
// extractor's reading of raw 12-byte records.
func int96Nanos(v deprecated.Int96) int64 {
	return int64(uint64(v[1])<<32 | uint64(v[0]))
}
