// ABOUTME: Pruning query types over metadata sidecars
// ABOUTME: Parsed conditions, operators, and per-file results

package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCondition marks a condition string the parser cannot understand.
var ErrCondition = errors.New("query: invalid condition")

// Op is a comparison operator in a pruning condition.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIsNull
	OpNotNull
	OpContains
)

var opNames = map[Op]string{
	OpEq:       "==",
	OpNe:       "!=",
	OpLt:       "<",
	OpLe:       "<=",
	OpGt:       ">",
	OpGe:       ">=",
	OpIsNull:   "is null",
	OpNotNull:  "not null",
	OpContains: "contains",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Condition is one parsed predicate over a named column. Comparisons
// carry Value; contains carries Token.
type Condition struct {
	Column string  `json:"column"`
	Op     Op      `json:"-"`
	OpText string  `json:"op"`
	Value  float64 `json:"value,omitempty"`
	Token  string  `json:"token,omitempty"`
}

func (c Condition) String() string {
	switch c.Op {
	case OpIsNull, OpNotNull:
		return fmt.Sprintf("%s %s", c.Column, c.Op)
	case OpContains:
		return fmt.Sprintf("%s contains %s", c.Column, c.Token)
	default:
		return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
	}
}

// ParseCondition parses one condition string. Accepted forms:
//
//	<column> <op> <number>   with op one of == != < <= > >=
//	<column> is null
//	<column> not null
//	<column> contains <token>
func ParseCondition(s string) (Condition, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return Condition{}, fmt.Errorf("%w: %q (want \"column op operand\")", ErrCondition, s)
	}
	col, opText, operand := fields[0], fields[1], fields[2]

	switch {
	case opText == "is" && operand == "null":
		return newCondition(col, OpIsNull, 0, ""), nil
	case opText == "not" && operand == "null":
		return newCondition(col, OpNotNull, 0, ""), nil
	case opText == "contains":
		return newCondition(col, OpContains, 0, operand), nil
	}

	for op, name := range opNames {
		if name != opText || op == OpIsNull || op == OpNotNull || op == OpContains {
			continue
		}
		v, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return Condition{}, fmt.Errorf("%w: %q is not numeric in %q", ErrCondition, operand, s)
		}
		return newCondition(col, op, v, ""), nil
	}
	return Condition{}, fmt.Errorf("%w: unknown operator %q in %q", ErrCondition, opText, s)
}

// ParseConditions parses a batch, failing on the first bad string.
func ParseConditions(in []string) ([]Condition, error) {
	out := make([]Condition, 0, len(in))
	for _, s := range in {
		c, err := ParseCondition(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func newCondition(col string, op Op, v float64, token string) Condition {
	return Condition{Column: col, Op: op, OpText: op.String(), Value: v, Token: token}
}

// Result reports one pruning pass over a file's row groups.
type Result struct {
	Conditions []string `json:"conditions"`
	Total      int      `json:"total_row_groups"`
	Matched    []uint32 `json:"matched_row_groups"`
	Pruned     int      `json:"pruned_row_groups"`
}
