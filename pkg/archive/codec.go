// ABOUTME: Compression codecs for column artifacts
// ABOUTME: Shared zstd coders; snappy and gzip per buffer

package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec selects the artifact compression algorithm. The zero value is
// the default codec.
type Codec uint8

const (
	CodecZstd Codec = iota
	CodecSnappy
	CodecGzip
	CodecNone
)

var codecNames = map[Codec]string{
	CodecZstd:   "zstd",
	CodecSnappy: "snappy",
	CodecGzip:   "gzip",
	CodecNone:   "none",
}

func (c Codec) String() string {
	if name, ok := codecNames[c]; ok {
		return name
	}
	return fmt.Sprintf("codec(%d)", uint8(c))
}

// ParseCodec maps a configuration string to a codec.
func ParseCodec(s string) (Codec, error) {
	for c, name := range codecNames {
		if name == s {
			return c, nil
		}
	}
	return CodecZstd, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

// The zstd coders are shared: EncodeAll and DecodeAll are safe for
// concurrent use, so the writer's worker pool reuses one of each.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
}

// Compress reduces data with the chosen codec. The input is never
// modified.
func Compress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case CodecZstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2+64)), nil
	case CodecSnappy:
		return snappy.Encode(nil, data), nil
	case CodecGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

// Decompress reverses Compress. rawLen is the expected output size and
// is used both to size the buffer and to reject mismatched payloads.
func Decompress(c Codec, data []byte, rawLen int) ([]byte, error) {
	var out []byte
	var err error
	switch c {
	case CodecZstd:
		out, err = zstdDecoder.DecodeAll(data, make([]byte, 0, rawLen))
	case CodecSnappy:
		out, err = snappy.Decode(nil, data)
	case CodecGzip:
		var zr *gzip.Reader
		zr, err = gzip.NewReader(bytes.NewReader(data))
		if err == nil {
			out, err = io.ReadAll(zr)
			if cerr := zr.Close(); err == nil {
				err = cerr
			}
		}
	case CodecNone:
		out = make([]byte, len(data))
		copy(out, data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if len(out) != rawLen {
		return nil, fmt.Errorf("%w: expected %d raw bytes, got %d", ErrCorrupted, rawLen, len(out))
	}
	return out, nil
}
