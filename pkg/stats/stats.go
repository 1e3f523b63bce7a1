// ABOUTME: Column statistics variants for the metadata tree
// ABOUTME: Tagged-union types shared by the extractor, merge, and sidecar

package stats

import (
	"encoding/json"
	"fmt"
)

// TypeTag identifies the physical layout of a raw column buffer. The
// Timestamp and Categorical tags are logical refinements assigned by the
// column source: a timestamp buffer holds int64 nanoseconds, a categorical
// buffer holds length-prefixed records treated as category codes.
type TypeTag uint8

const (
	TypeUnknown TypeTag = iota
	TypeBoolean
	TypeInt32
	TypeInt64
	TypeInt96
	TypeFloat
	TypeDouble
	TypeByteArray
	TypeFixedLenByteArray
	TypeTimestamp
	TypeCategorical
)

var typeNames = map[TypeTag]string{
	TypeUnknown:           "unknown",
	TypeBoolean:           "boolean",
	TypeInt32:             "int32",
	TypeInt64:             "int64",
	TypeInt96:             "int96",
	TypeFloat:             "float",
	TypeDouble:            "double",
	TypeByteArray:         "byte_array",
	TypeFixedLenByteArray: "fixed_len_byte_array",
	TypeTimestamp:         "timestamp",
	TypeCategorical:       "categorical",
}

func (t TypeTag) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ParseTypeTag is the inverse of String, used by the archive manifest.
func ParseTypeTag(s string) (TypeTag, error) {
	for tag, name := range typeNames {
		if name == s {
			return tag, nil
		}
	}
	return TypeUnknown, fmt.Errorf("%w: unknown type tag %q", ErrInvalidParameter, s)
}

// Kind is the statistics shape a buffer reduces to.
type Kind uint8

const (
	KindNone Kind = iota
	KindTimestamp
	KindNumeric
	KindString
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindTimestamp:
		return "timestamp"
	case KindNumeric:
		return "numeric"
	case KindString:
		return "string"
	case KindCategorical:
		return "categorical"
	default:
		return "none"
	}
}

// ColumnStats is the closed set of statistics variants. The nil interface
// and any variant with HasData == false act as the merge identity.
type ColumnStats interface {
	statsVariant()
}

// TimestampStats summarizes a timestamp column chunk. Min and Max are epoch
// seconds; raw nanosecond values are divided down at extraction time.
type TimestampStats struct {
	HasData   bool   `json:"has_data"`
	NullCount uint64 `json:"null_count"`
	Min       int64  `json:"min"`
	Max       int64  `json:"max"`
	Count     uint64 `json:"count"`
}

// NumericStats summarizes a boolean, integer, or floating-point column
// chunk. Mode is exact for int and double buffers and a histogram-bucket
// midpoint for float buffers; after a merge it is carried over from one
// operand rather than recomputed.
type NumericStats struct {
	HasData    bool    `json:"has_data"`
	NullCount  uint64  `json:"null_count"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
	Mode       float64 `json:"mode"`
	ModeCount  uint64  `json:"mode_count"`
	TotalCount uint64  `json:"total_count"`
}

// StringStats summarizes a byte-array column chunk. HighFreq tracks the
// most frequent whole values; Special tracks occurrences of the fixed
// token set (see SpecialTokens).
type StringStats struct {
	HasData    bool   `json:"has_data"`
	NullCount  uint64 `json:"null_count"`
	HighFreq   TopK   `json:"high_freq"`
	Special    TopK   `json:"special"`
	MinLen     uint64 `json:"min_len"`
	MaxLen     uint64 `json:"max_len"`
	TotalLen   uint64 `json:"total_len"`
	TotalCount uint64 `json:"total_count"`
}

// AvgLen is the derived average value length.
func (s *StringStats) AvgLen() float64 {
	if s == nil || s.TotalCount == 0 {
		return 0
	}
	return float64(s.TotalLen) / float64(s.TotalCount)
}

// CategoricalStats summarizes a column of category codes. DistinctEstimate
// is exact within a single buffer and an upper bound after merges.
type CategoricalStats struct {
	HasData          bool   `json:"has_data"`
	NullCount        uint64 `json:"null_count"`
	Top              TopK   `json:"top"`
	DistinctEstimate uint64 `json:"distinct_estimate"`
	TotalCount       uint64 `json:"total_count"`
}

func (*TimestampStats) statsVariant()   {}
func (*NumericStats) statsVariant()     {}
func (*StringStats) statsVariant()      {}
func (*CategoricalStats) statsVariant() {}

// KindOf reports the variant of s; KindNone for nil.
func KindOf(s ColumnStats) Kind {
	switch s.(type) {
	case *TimestampStats:
		return KindTimestamp
	case *NumericStats:
		return KindNumeric
	case *StringStats:
		return KindString
	case *CategoricalStats:
		return KindCategorical
	default:
		return KindNone
	}
}

// HasData reports whether s carries at least one non-null value.
func HasData(s ColumnStats) bool {
	switch v := s.(type) {
	case *TimestampStats:
		return v != nil && v.HasData
	case *NumericStats:
		return v != nil && v.HasData
	case *StringStats:
		return v != nil && v.HasData
	case *CategoricalStats:
		return v != nil && v.HasData
	default:
		return false
	}
}

// NullsOf reports the null count recorded on s, zero for nil.
func NullsOf(s ColumnStats) uint64 {
	switch v := s.(type) {
	case *TimestampStats:
		if v != nil {
			return v.NullCount
		}
	case *NumericStats:
		if v != nil {
			return v.NullCount
		}
	case *StringStats:
		if v != nil {
			return v.NullCount
		}
	case *CategoricalStats:
		if v != nil {
			return v.NullCount
		}
	}
	return 0
}

// Clone returns a deep copy of s, nil for nil.
func Clone(s ColumnStats) ColumnStats {
	switch v := s.(type) {
	case *TimestampStats:
		if v == nil {
			return nil
		}
		out := *v
		return &out
	case *NumericStats:
		if v == nil {
			return nil
		}
		out := *v
		return &out
	case *StringStats:
		if v == nil {
			return nil
		}
		out := *v
		out.HighFreq = v.HighFreq.Clone()
		out.Special = v.Special.Clone()
		return &out
	case *CategoricalStats:
		if v == nil {
			return nil
		}
		out := *v
		out.Top = v.Top.Clone()
		return &out
	default:
		return nil
	}
}

// Envelope wraps a ColumnStats for JSON so the variant survives a
// round-trip. A nil Stats marshals as JSON null.
type Envelope struct {
	Stats ColumnStats
}

type envelopeJSON struct {
	Kind        string            `json:"kind"`
	Timestamp   *TimestampStats   `json:"timestamp,omitempty"`
	Numeric     *NumericStats     `json:"numeric,omitempty"`
	String      *StringStats      `json:"string,omitempty"`
	Categorical *CategoricalStats `json:"categorical,omitempty"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Stats == nil {
		return []byte("null"), nil
	}
	out := envelopeJSON{Kind: KindOf(e.Stats).String()}
	switch v := e.Stats.(type) {
	case *TimestampStats:
		out.Timestamp = v
	case *NumericStats:
		out.Numeric = v
	case *StringStats:
		out.String = v
	case *CategoricalStats:
		out.Categorical = v
	}
	return json.Marshal(out)
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		e.Stats = nil
		return nil
	}
	var in envelopeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case KindTimestamp.String():
		e.Stats = in.Timestamp
	case KindNumeric.String():
		e.Stats = in.Numeric
	case KindString.String():
		e.Stats = in.String
	case KindCategorical.String():
		e.Stats = in.Categorical
	case "", KindNone.String():
		e.Stats = nil
	default:
		return fmt.Errorf("%w: unknown stats kind %q", ErrInvalidParameter, in.Kind)
	}
	return nil
}

// Boxed is shorthand for wrapping stats in an Envelope.
func Boxed(s ColumnStats) Envelope {
	return Envelope{Stats: s}
}
