// ABOUTME: Single-pass statistics extraction from raw column buffers
// ABOUTME: Little-endian layouts, sentinel null rules, bounded trackers

package stats

import (
	"encoding/binary"
	"math"
	"strings"
)

// specialTokens is the fixed vocabulary tested by substring match against
// every string value. Matching is case-sensitive; the token itself is the
// tracked key, so with a default cap of 20 the special table is exact.
var specialTokens = [...]string{
	"error", "warning", "exception", "fail", "critical",
	"bug", "crash", "fatal", "issue", "problem",
}

// SpecialTokens returns the token vocabulary in match order.
func SpecialTokens() []string {
	out := make([]string, len(specialTokens))
	copy(out, specialTokens[:])
	return out
}

const (
	// Buffers declaring more values than this are rejected as malformed
	// before any allocation is sized from the count.
	maxValueCount = 1 << 31

	floatModeBuckets    = 1000
	floatModeBucketSize = 0.01
)

// Limits bounds the frequency trackers built during extraction. Zero
// fields fall back to the defaults.
type Limits struct {
	MaxHighFreqStrings    int `json:"max_high_freq_strings"`
	MaxSpecialStrings     int `json:"max_special_strings"`
	MaxHighFreqCategories int `json:"max_high_freq_categories"`
}

// DefaultLimits returns the stock tracker capacities.
func DefaultLimits() Limits {
	return Limits{
		MaxHighFreqStrings:    10,
		MaxSpecialStrings:     20,
		MaxHighFreqCategories: 20,
	}
}

func (l Limits) normalized() Limits {
	def := DefaultLimits()
	if l.MaxHighFreqStrings <= 0 {
		l.MaxHighFreqStrings = def.MaxHighFreqStrings
	}
	if l.MaxSpecialStrings <= 0 {
		l.MaxSpecialStrings = def.MaxSpecialStrings
	}
	if l.MaxHighFreqCategories <= 0 {
		l.MaxHighFreqCategories = def.MaxHighFreqCategories
	}
	return l
}

// Extract reduces a raw little-endian column buffer of count values to a
// statistics variant chosen by the type tag. It is a pure function: the
// same buffer always yields the same result, and malformed or truncated
// input degrades to an empty result instead of an error.
//
// Null classification is heuristic and intentionally crude: booleans use
// a reserved high-bit byte, integers their minimum representable value,
// floats NaN, byte arrays a zero-length record, and fixed-length records
// an all-zero payload. Nulls are counted but excluded from all value
// arithmetic.
func Extract(data []byte, typ TypeTag, count uint64, lim Limits) ColumnStats {
	lim = lim.normalized()
	if count > maxValueCount {
		return emptyFor(typ, lim)
	}
	n := int(count)
	switch typ {
	case TypeBoolean:
		return extractBool(data, n)
	case TypeInt32:
		return extractInt32(data, n)
	case TypeInt64:
		return extractInt64(data, n)
	case TypeFloat:
		return extractFloat(data, n)
	case TypeDouble:
		return extractDouble(data, n)
	case TypeInt96, TypeTimestamp:
		return extractTimestamp(data, typ, n)
	case TypeByteArray:
		return extractString(data, n, false, lim)
	case TypeFixedLenByteArray:
		return extractString(data, n, true, lim)
	case TypeCategorical:
		return extractCategorical(data, n, lim)
	default:
		return nil
	}
}

// CountNulls scans a buffer applying the same null heuristics as Extract
// without building statistics. Malformed input reports zero.
func CountNulls(data []byte, typ TypeTag, count uint64) uint64 {
	if count > maxValueCount {
		return 0
	}
	n := int(count)
	var nulls uint64
	switch typ {
	case TypeBoolean:
		if len(data) < n {
			return 0
		}
		for i := 0; i < n; i++ {
			if data[i]&0x80 != 0 {
				nulls++
			}
		}
	case TypeInt32:
		if len(data) < n*4 {
			return 0
		}
		for i := 0; i < n; i++ {
			if int32(binary.LittleEndian.Uint32(data[i*4:])) == math.MinInt32 {
				nulls++
			}
		}
	case TypeInt64:
		if len(data) < n*8 {
			return 0
		}
		for i := 0; i < n; i++ {
			if int64(binary.LittleEndian.Uint64(data[i*8:])) == math.MinInt64 {
				nulls++
			}
		}
	case TypeTimestamp:
		if len(data) < n*8 {
			return 0
		}
		for i := 0; i < n; i++ {
			if int64(binary.LittleEndian.Uint64(data[i*8:])) == math.MinInt64 {
				nulls++
			}
		}
	case TypeInt96:
		if len(data) < n*12 {
			return 0
		}
		for i := 0; i < n; i++ {
			if int64(binary.LittleEndian.Uint64(data[i*12:])) == math.MinInt64 {
				nulls++
			}
		}
	case TypeFloat:
		if len(data) < n*4 {
			return 0
		}
		for i := 0; i < n; i++ {
			f := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
			if math.IsNaN(float64(f)) {
				nulls++
			}
		}
	case TypeDouble:
		if len(data) < n*8 {
			return 0
		}
		for i := 0; i < n; i++ {
			if math.IsNaN(math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))) {
				nulls++
			}
		}
	case TypeByteArray, TypeCategorical, TypeFixedLenByteArray:
		fixed := typ == TypeFixedLenByteArray
		off := 0
		for i := 0; i < n; i++ {
			if off+4 > len(data) {
				return 0
			}
			l := int(binary.LittleEndian.Uint32(data[off:]))
			off += 4
			if off+l > len(data) {
				return 0
			}
			rec := data[off : off+l]
			off += l
			if l == 0 || (fixed && allZero(rec)) {
				nulls++
			}
		}
	}
	return nulls
}

// emptyFor returns the has_data=false result matching a type tag.
func emptyFor(typ TypeTag, lim Limits) ColumnStats {
	switch typ {
	case TypeBoolean, TypeInt32, TypeInt64, TypeFloat, TypeDouble:
		return &NumericStats{}
	case TypeInt96, TypeTimestamp:
		return &TimestampStats{}
	case TypeByteArray, TypeFixedLenByteArray:
		return &StringStats{
			HighFreq: NewTopK(lim.MaxHighFreqStrings),
			Special:  NewTopK(lim.MaxSpecialStrings),
		}
	case TypeCategorical:
		return &CategoricalStats{Top: NewTopK(lim.MaxHighFreqCategories)}
	default:
		return nil
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// modeExact finds the most frequent value with a quadratic scan; the
// earliest value reaching the winning count is the mode.
func modeExact[T comparable](vals []T) (T, uint64) {
	var best T
	var bestCount uint64
	for i := range vals {
		var c uint64
		for j := range vals {
			if vals[j] == vals[i] {
				c++
			}
		}
		if c > bestCount {
			bestCount = c
			best = vals[i]
		}
	}
	return best, bestCount
}

func extractBool(data []byte, count int) ColumnStats {
	if len(data) < count {
		return &NumericStats{}
	}
	var nulls, trues, falses uint64
	for i := 0; i < count; i++ {
		b := data[i]
		if b&0x80 != 0 {
			nulls++
			continue
		}
		if b != 0 {
			trues++
		} else {
			falses++
		}
	}
	total := trues + falses
	if total == 0 {
		return &NumericStats{NullCount: nulls}
	}
	out := &NumericStats{
		HasData:    true,
		NullCount:  nulls,
		Mean:       float64(trues) / float64(total),
		TotalCount: total,
	}
	if falses > 0 {
		out.Min = 0
	} else {
		out.Min = 1
	}
	if trues > 0 {
		out.Max = 1
	} else {
		out.Max = 0
	}
	if trues > falses {
		out.Mode, out.ModeCount = 1, trues
	} else {
		out.Mode, out.ModeCount = 0, falses
	}
	return out
}

func extractInt32(data []byte, count int) ColumnStats {
	if len(data) < count*4 {
		return &NumericStats{}
	}
	var nulls uint64
	vals := make([]int32, 0, count)
	var sum float64
	var minV, maxV int32
	for i := 0; i < count; i++ {
		v := int32(binary.LittleEndian.Uint32(data[i*4:]))
		if v == math.MinInt32 {
			nulls++
			continue
		}
		if len(vals) == 0 || v < minV {
			minV = v
		}
		if len(vals) == 0 || v > maxV {
			maxV = v
		}
		sum += float64(v)
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return &NumericStats{NullCount: nulls}
	}
	mode, modeCount := modeExact(vals)
	return &NumericStats{
		HasData:    true,
		NullCount:  nulls,
		Min:        float64(minV),
		Max:        float64(maxV),
		Mean:       sum / float64(len(vals)),
		Mode:       float64(mode),
		ModeCount:  modeCount,
		TotalCount: uint64(len(vals)),
	}
}

func extractInt64(data []byte, count int) ColumnStats {
	if len(data) < count*8 {
		return &NumericStats{}
	}
	var nulls uint64
	vals := make([]int64, 0, count)
	var sum float64
	var minV, maxV int64
	for i := 0; i < count; i++ {
		v := int64(binary.LittleEndian.Uint64(data[i*8:]))
		if v == math.MinInt64 {
			nulls++
			continue
		}
		if len(vals) == 0 || v < minV {
			minV = v
		}
		if len(vals) == 0 || v > maxV {
			maxV = v
		}
		sum += float64(v)
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return &NumericStats{NullCount: nulls}
	}
	mode, modeCount := modeExact(vals)
	return &NumericStats{
		HasData:    true,
		NullCount:  nulls,
		Min:        float64(minV),
		Max:        float64(maxV),
		Mean:       sum / float64(len(vals)),
		Mode:       float64(mode),
		ModeCount:  modeCount,
		TotalCount: uint64(len(vals)),
	}
}

func extractDouble(data []byte, count int) ColumnStats {
	if len(data) < count*8 {
		return &NumericStats{}
	}
	var nulls uint64
	vals := make([]float64, 0, count)
	var sum float64
	var minV, maxV float64
	for i := 0; i < count; i++ {
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		if math.IsNaN(v) {
			nulls++
			continue
		}
		if len(vals) == 0 || v < minV {
			minV = v
		}
		if len(vals) == 0 || v > maxV {
			maxV = v
		}
		sum += v
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return &NumericStats{NullCount: nulls}
	}
	mode, modeCount := modeExact(vals)
	return &NumericStats{
		HasData:    true,
		NullCount:  nulls,
		Min:        minV,
		Max:        maxV,
		Mean:       sum / float64(len(vals)),
		Mode:       mode,
		ModeCount:  modeCount,
		TotalCount: uint64(len(vals)),
	}
}

// extractFloat approximates the mode with a fixed histogram of 1000
// buckets of width 0.01 anchored at the observed minimum. Values beyond
// the histogram span land in the last bucket. The reported mode is the
// midpoint of the winning bucket.
func extractFloat(data []byte, count int) ColumnStats {
	if len(data) < count*4 {
		return &NumericStats{}
	}
	var nulls uint64
	vals := make([]float64, 0, count)
	var sum float64
	var minV, maxV float64
	for i := 0; i < count; i++ {
		f := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		v := float64(f)
		if math.IsNaN(v) {
			nulls++
			continue
		}
		if len(vals) == 0 || v < minV {
			minV = v
		}
		if len(vals) == 0 || v > maxV {
			maxV = v
		}
		sum += v
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return &NumericStats{NullCount: nulls}
	}
	var buckets [floatModeBuckets]uint64
	for _, v := range vals {
		idx := int((v - minV) / floatModeBucketSize)
		if idx < 0 {
			idx = 0
		}
		if idx >= floatModeBuckets {
			idx = floatModeBuckets - 1
		}
		buckets[idx]++
	}
	bestIdx := 0
	var bestCount uint64
	for i, c := range buckets {
		if c > bestCount {
			bestCount = c
			bestIdx = i
		}
	}
	return &NumericStats{
		HasData:    true,
		NullCount:  nulls,
		Min:        minV,
		Max:        maxV,
		Mean:       sum / float64(len(vals)),
		Mode:       minV + (float64(bestIdx)+0.5)*floatModeBucketSize,
		ModeCount:  bestCount,
		TotalCount: uint64(len(vals)),
	}
}

func extractTimestamp(data []byte, typ TypeTag, count int) ColumnStats {
	stride := 8
	if typ == TypeInt96 {
		stride = 12
	}
	if len(data) < count*stride {
		return &TimestampStats{}
	}
	var nulls, nonNull uint64
	var minS, maxS int64
	for i := 0; i < count; i++ {
		// Int96 carries the nanosecond clock in its low eight bytes.
		nanos := int64(binary.LittleEndian.Uint64(data[i*stride:]))
		if nanos == math.MinInt64 {
			nulls++
			continue
		}
		secs := nanos / 1_000_000_000
		if nonNull == 0 || secs < minS {
			minS = secs
		}
		if nonNull == 0 || secs > maxS {
			maxS = secs
		}
		nonNull++
	}
	if nonNull == 0 {
		return &TimestampStats{NullCount: nulls}
	}
	return &TimestampStats{
		HasData:   true,
		NullCount: nulls,
		Min:       minS,
		Max:       maxS,
		Count:     nonNull,
	}
}

func extractString(data []byte, count int, fixed bool, lim Limits) ColumnStats {
	empty := func(nulls uint64) *StringStats {
		return &StringStats{
			NullCount: nulls,
			HighFreq:  NewTopK(lim.MaxHighFreqStrings),
			Special:   NewTopK(lim.MaxSpecialStrings),
		}
	}
	high := NewTopK(lim.MaxHighFreqStrings)
	special := NewTopK(lim.MaxSpecialStrings)
	var nulls, totalCount, totalLen uint64
	var minLen, maxLen uint64
	off := 0
	for i := 0; i < count; i++ {
		if off+4 > len(data) {
			return empty(0)
		}
		l := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		if l < 0 || off+l > len(data) {
			return empty(0)
		}
		rec := data[off : off+l]
		off += l
		if l == 0 || (fixed && allZero(rec)) {
			nulls++
			continue
		}
		s := string(rec)
		high.Observe(s)
		for _, tok := range specialTokens {
			if strings.Contains(s, tok) {
				special.Observe(tok)
			}
		}
		n := uint64(l)
		if totalCount == 0 || n < minLen {
			minLen = n
		}
		if totalCount == 0 || n > maxLen {
			maxLen = n
		}
		totalLen += n
		totalCount++
	}
	if totalCount == 0 {
		return empty(nulls)
	}
	return &StringStats{
		HasData:    true,
		NullCount:  nulls,
		HighFreq:   high,
		Special:    special,
		MinLen:     minLen,
		MaxLen:     maxLen,
		TotalLen:   totalLen,
		TotalCount: totalCount,
	}
}

func extractCategorical(data []byte, count int, lim Limits) ColumnStats {
	empty := func(nulls uint64) *CategoricalStats {
		return &CategoricalStats{
			NullCount: nulls,
			Top:       NewTopK(lim.MaxHighFreqCategories),
		}
	}
	top := NewTopK(lim.MaxHighFreqCategories)
	distinct := make(map[string]struct{})
	var nulls, totalCount uint64
	off := 0
	for i := 0; i < count; i++ {
		if off+4 > len(data) {
			return empty(0)
		}
		l := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		if l < 0 || off+l > len(data) {
			return empty(0)
		}
		rec := data[off : off+l]
		off += l
		if l == 0 {
			nulls++
			continue
		}
		s := string(rec)
		top.Observe(s)
		distinct[s] = struct{}{}
		totalCount++
	}
	if totalCount == 0 {
		return empty(nulls)
	}
	return &CategoricalStats{
		HasData:          true,
		NullCount:        nulls,
		Top:              top,
		DistinctEstimate: uint64(len(distinct)),
		TotalCount:       totalCount,
	}
}
