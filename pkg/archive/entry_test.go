package archive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/infparquet/infparquet/pkg/stats"
)

func TestEntryEncodeDecode(t *testing.T) {
	entry := &Entry{
		Codec:      CodecZstd,
		Type:       stats.TypeInt32,
		RowGroup:   3,
		Column:     7,
		ValueCount: 4,
		Raw:        []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0},
	}

	data, err := entry.Encode()
	if err != nil {
		t.Fatalf("Failed to encode entry: %v", err)
	}
	decoded, err := DecodeEntry(data)
	if err != nil {
		t.Fatalf("Failed to decode entry: %v", err)
	}

	if decoded.Codec != entry.Codec {
		t.Errorf("Codec mismatch: got %s, want %s", decoded.Codec, entry.Codec)
	}
	if decoded.Type != entry.Type {
		t.Errorf("Type mismatch: got %s, want %s", decoded.Type, entry.Type)
	}
	if decoded.RowGroup != 3 || decoded.Column != 7 {
		t.Errorf("Address mismatch: got rg %d col %d", decoded.RowGroup, decoded.Column)
	}
	if decoded.ValueCount != 4 {
		t.Errorf("ValueCount mismatch: got %d", decoded.ValueCount)
	}
	if !bytes.Equal(decoded.Raw, entry.Raw) {
		t.Errorf("Raw mismatch: got %v, want %v", decoded.Raw, entry.Raw)
	}
}

func TestEntryAllCodecs(t *testing.T) {
	raw := bytes.Repeat([]byte("abcd0123"), 512)
	for _, codec := range []Codec{CodecZstd, CodecSnappy, CodecGzip, CodecNone} {
		entry := &Entry{Codec: codec, Type: stats.TypeByteArray, ValueCount: 512, Raw: raw}
		data, err := entry.Encode()
		if err != nil {
			t.Fatalf("Codec %s: failed to encode: %v", codec, err)
		}
		decoded, err := DecodeEntry(data)
		if err != nil {
			t.Fatalf("Codec %s: failed to decode: %v", codec, err)
		}
		if !bytes.Equal(decoded.Raw, raw) {
			t.Errorf("Codec %s: raw payload mismatch", codec)
		}
		if codec != CodecNone && len(data) >= EntryHeaderSize+len(raw) {
			t.Errorf("Codec %s: repetitive payload did not shrink (%d framed, %d raw)", codec, len(data), len(raw))
		}
	}
}

func TestEntryEmptyPayload(t *testing.T) {
	entry := &Entry{Codec: CodecZstd, Type: stats.TypeByteArray}
	data, err := entry.Encode()
	if err != nil {
		t.Fatalf("Failed to encode empty entry: %v", err)
	}
	decoded, err := DecodeEntry(data)
	if err != nil {
		t.Fatalf("Failed to decode empty entry: %v", err)
	}
	if len(decoded.Raw) != 0 {
		t.Errorf("Expected empty payload, got %d bytes", len(decoded.Raw))
	}
}

func TestDecodeEntryRejectsDamage(t *testing.T) {
	entry := &Entry{Codec: CodecNone, Type: stats.TypeInt32, ValueCount: 1, Raw: []byte{9, 0, 0, 0}}
	good, err := entry.Encode()
	if err != nil {
		t.Fatalf("Failed to encode entry: %v", err)
	}

	if _, err := DecodeEntry(good[:10]); !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated for short frame, got %v", err)
	}

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'
	if _, err := DecodeEntry(badMagic); !errors.Is(err, ErrBadMagic) {
		t.Errorf("Expected ErrBadMagic, got %v", err)
	}

	badVersion := append([]byte(nil), good...)
	badVersion[4] = 99
	if _, err := DecodeEntry(badVersion); !errors.Is(err, ErrVersion) {
		t.Errorf("Expected ErrVersion, got %v", err)
	}

	flipped := append([]byte(nil), good...)
	flipped[EntryHeaderSize] ^= 0xFF
	if _, err := DecodeEntry(flipped); !errors.Is(err, ErrCorrupted) {
		t.Errorf("Expected ErrCorrupted for flipped payload byte, got %v", err)
	}

	truncated := good[:len(good)-2]
	if _, err := DecodeEntry(truncated); !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated for cut payload, got %v", err)
	}
}

func TestDecodeEntryUnknownCodec(t *testing.T) {
	entry := &Entry{Codec: CodecNone, Type: stats.TypeInt32, ValueCount: 1, Raw: []byte{9, 0, 0, 0}}
	good, err := entry.Encode()
	if err != nil {
		t.Fatalf("Failed to encode entry: %v", err)
	}
	good[5] = 200
	if _, err := DecodeEntry(good); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("Expected ErrUnknownCodec, got %v", err)
	}
}

func TestParseCodec(t *testing.T) {
	for _, codec := range []Codec{CodecZstd, CodecSnappy, CodecGzip, CodecNone} {
		parsed, err := ParseCodec(codec.String())
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", codec, err)
		}
		if parsed != codec {
			t.Errorf("Expected %s to round-trip, got %s", codec, parsed)
		}
	}
	if _, err := ParseCodec("lz4"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("Expected ErrUnknownCodec for lz4, got %v", err)
	}
}
