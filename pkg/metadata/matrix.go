// ABOUTME: Boolean result matrix for custom metadata
// ABOUTME: One row per row group; brace text format is byte-exact

package metadata

import (
	"fmt"
	"strings"
)

// Matrix holds one boolean per (row group, column) cell. Rows follow row
// group order; cells follow that row group's column order. Rows may have
// different widths when row groups carry different column counts.
type Matrix [][]bool

// String renders the canonical text form: the whole matrix in braces,
// one brace group per row group, cells as 0/1 separated by commas. A
// two-cell single row group serializes as {{1,0}}.
func (m Matrix) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for _, row := range m {
		b.WriteByte('{')
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			if cell {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')
	return b.String()
}

// ParseMatrix is the strict inverse of String.
func ParseMatrix(s string) (Matrix, error) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("matrix text must be brace-delimited: %q", s)
	}
	body := s[1 : len(s)-1]
	m := Matrix{}
	for len(body) > 0 {
		if body[0] != '{' {
			return nil, fmt.Errorf("expected row group opener at %q", body)
		}
		end := strings.IndexByte(body, '}')
		if end < 0 {
			return nil, fmt.Errorf("unterminated row group in %q", s)
		}
		cells := body[1:end]
		row := []bool{}
		if cells != "" {
			for _, c := range strings.Split(cells, ",") {
				switch c {
				case "0":
					row = append(row, false)
				case "1":
					row = append(row, true)
				default:
					return nil, fmt.Errorf("invalid cell %q in %q", c, s)
				}
			}
		}
		m = append(m, row)
		body = body[end+1:]
	}
	return m, nil
}

// Count returns the number of true cells.
func (m Matrix) Count() int {
	n := 0
	for _, row := range m {
		for _, cell := range row {
			if cell {
				n++
			}
		}
	}
	return n
}

// CustomResult is one evaluated predicate over the whole file.
type CustomResult struct {
	Name   string `json:"name"`
	Query  string `json:"query"`
	Matrix Matrix `json:"matrix"`
	Text   string `json:"text"`
}

// NewCustomResult builds a result and fills the serialized text form.
func NewCustomResult(name, query string, m Matrix) *CustomResult {
	return &CustomResult{Name: name, Query: query, Matrix: m, Text: m.String()}
}
