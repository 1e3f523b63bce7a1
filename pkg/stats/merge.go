// ABOUTME: Monoid combination of column statistics
// ABOUTME: Merge is associative; nil and empty stats act as the identity

package stats

import "fmt"

// Merge combines two statistics of the same variant into a new value;
// neither operand is modified. A nil operand or one with HasData false
// contributes only its null count, acting as the identity. Mismatched
// variants are an error.
//
// Numeric means are re-weighted by value counts. The mode is not
// recomputable from two summaries, so the merged value carries the left
// operand's mode; aggregated modes are therefore best-effort. Frequency
// tables merge by replaying one snapshot into a copy of the other, which
// keeps results deterministic for a fixed operand order.
func Merge(a, b ColumnStats) (ColumnStats, error) {
	if a == nil {
		return Clone(b), nil
	}
	if b == nil {
		return Clone(a), nil
	}
	if ka, kb := KindOf(a), KindOf(b); ka != kb {
		return nil, fmt.Errorf("%w: cannot merge %s stats with %s stats", ErrInvalidParameter, ka, kb)
	}
	switch av := a.(type) {
	case *TimestampStats:
		return mergeTimestamp(av, b.(*TimestampStats)), nil
	case *NumericStats:
		return mergeNumeric(av, b.(*NumericStats)), nil
	case *StringStats:
		return mergeString(av, b.(*StringStats)), nil
	case *CategoricalStats:
		return mergeCategorical(av, b.(*CategoricalStats)), nil
	default:
		return nil, fmt.Errorf("%w: unknown stats variant", ErrInvalidParameter)
	}
}

func mergeTimestamp(a, b *TimestampStats) *TimestampStats {
	switch {
	case !a.HasData && !b.HasData:
		return &TimestampStats{NullCount: a.NullCount + b.NullCount}
	case !a.HasData:
		out := *b
		out.NullCount += a.NullCount
		return &out
	case !b.HasData:
		out := *a
		out.NullCount += b.NullCount
		return &out
	}
	out := &TimestampStats{
		HasData:   true,
		NullCount: a.NullCount + b.NullCount,
		Min:       a.Min,
		Max:       a.Max,
		Count:     a.Count + b.Count,
	}
	if b.Min < out.Min {
		out.Min = b.Min
	}
	if b.Max > out.Max {
		out.Max = b.Max
	}
	return out
}

func mergeNumeric(a, b *NumericStats) *NumericStats {
	switch {
	case !a.HasData && !b.HasData:
		return &NumericStats{NullCount: a.NullCount + b.NullCount}
	case !a.HasData:
		out := *b
		out.NullCount += a.NullCount
		return &out
	case !b.HasData:
		out := *a
		out.NullCount += b.NullCount
		return &out
	}
	total := a.TotalCount + b.TotalCount
	out := &NumericStats{
		HasData:    true,
		NullCount:  a.NullCount + b.NullCount,
		Min:        a.Min,
		Max:        a.Max,
		Mode:       a.Mode,
		ModeCount:  a.ModeCount,
		TotalCount: total,
	}
	if b.Min < out.Min {
		out.Min = b.Min
	}
	if b.Max > out.Max {
		out.Max = b.Max
	}
	if total > 0 {
		out.Mean = (a.Mean*float64(a.TotalCount) + b.Mean*float64(b.TotalCount)) / float64(total)
	}
	return out
}

func mergeString(a, b *StringStats) *StringStats {
	switch {
	case !a.HasData && !b.HasData:
		out := &StringStats{
			NullCount: a.NullCount + b.NullCount,
			HighFreq:  a.HighFreq.Clone(),
			Special:   a.Special.Clone(),
		}
		return out
	case !a.HasData:
		out := *b
		out.HighFreq = b.HighFreq.Clone()
		out.Special = b.Special.Clone()
		out.NullCount += a.NullCount
		return &out
	case !b.HasData:
		out := *a
		out.HighFreq = a.HighFreq.Clone()
		out.Special = a.Special.Clone()
		out.NullCount += b.NullCount
		return &out
	}
	out := &StringStats{
		HasData:    true,
		NullCount:  a.NullCount + b.NullCount,
		HighFreq:   mergeTopK(a.HighFreq, b.HighFreq),
		Special:    mergeTopK(a.Special, b.Special),
		MinLen:     a.MinLen,
		MaxLen:     a.MaxLen,
		TotalLen:   a.TotalLen + b.TotalLen,
		TotalCount: a.TotalCount + b.TotalCount,
	}
	if b.MinLen < out.MinLen {
		out.MinLen = b.MinLen
	}
	if b.MaxLen > out.MaxLen {
		out.MaxLen = b.MaxLen
	}
	return out
}

func mergeCategorical(a, b *CategoricalStats) *CategoricalStats {
	switch {
	case !a.HasData && !b.HasData:
		return &CategoricalStats{
			NullCount: a.NullCount + b.NullCount,
			Top:       a.Top.Clone(),
		}
	case !a.HasData:
		out := *b
		out.Top = b.Top.Clone()
		out.NullCount += a.NullCount
		return &out
	case !b.HasData:
		out := *a
		out.Top = a.Top.Clone()
		out.NullCount += b.NullCount
		return &out
	}
	return &CategoricalStats{
		HasData:          true,
		NullCount:        a.NullCount + b.NullCount,
		Top:              mergeTopK(a.Top, b.Top),
		DistinctEstimate: a.DistinctEstimate + b.DistinctEstimate,
		TotalCount:       a.TotalCount + b.TotalCount,
	}
}

// mergeTopK replays b's snapshot into a copy of a. Replayed entries carry
// their accumulated counts, so a key evicted from neither side can still
// displace a smaller minimum slot.
func mergeTopK(a, b TopK) TopK {
	out := a.Clone()
	for _, e := range b.Snapshot() {
		out.ObserveCount(e.Key, e.Count)
	}
	return out
}
