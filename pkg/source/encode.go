// ABOUTME: Canonical raw-buffer encoding helpers
// ABOUTME: Every reader emits these layouts; the extractor consumes them

package source

import (
	"encoding/binary"
	"math"
)

// The canonical buffer layout is little-endian PLAIN: booleans one byte
// each, int32/float four bytes, int64/double/timestamp eight bytes, and
// byte-array records a four-byte length prefix plus payload. Nulls are
// encoded with the sentinel the extractor's heuristics expect.

const (
	nullBoolByte = 0x80
)

func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func AppendNullBool(dst []byte) []byte {
	return append(dst, nullBoolByte)
}

func AppendInt32(dst []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(dst, uint32(v))
}

func AppendNullInt32(dst []byte) []byte {
	return AppendInt32(dst, math.MinInt32)
}

func AppendInt64(dst []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(v))
}

func AppendNullInt64(dst []byte) []byte {
	return AppendInt64(dst, math.MinInt64)
}

func AppendFloat(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}

func AppendNullFloat(dst []byte) []byte {
	return AppendFloat(dst, float32(math.NaN()))
}

func AppendDouble(dst []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
}

func AppendNullDouble(dst []byte) []byte {
	return AppendDouble(dst, math.NaN())
}

// AppendTimestamp encodes nanoseconds since the epoch.
func AppendTimestamp(dst []byte, nanos int64) []byte {
	return AppendInt64(dst, nanos)
}

func AppendNullTimestamp(dst []byte) []byte {
	return AppendNullInt64(dst)
}

// AppendBytes encodes one length-prefixed record. A zero-length record
// is the byte-array null.
func AppendBytes(dst []byte, v []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v)))
	return append(dst, v...)
}

func AppendString(dst []byte, v string) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v)))
	return append(dst, v...)
}

func AppendNullBytes(dst []byte) []byte {
	return binary.LittleEndian.AppendUint32(dst, 0)
}

// AppendNullFixed encodes the all-zero record that marks a null in
// fixed-length columns.
func AppendNullFixed(dst []byte, size int) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(size))
	for i := 0; i < size; i++ {
		dst = append(dst, 0)
	}
	return dst
}
