// ABOUTME: Framed artifact encoding for one column chunk
// ABOUTME: Fixed header, compressed payload, CRC32 over the raw bytes

package archive

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/infparquet/infparquet/pkg/stats"
)

const (
	// FormatVersion marks the artifact framing revision.
	FormatVersion = 1

	// EntryHeaderSize is the fixed size of the artifact header.
	// Layout: Magic(4) + Version(1) + Codec(1) + Type(1) + Reserved(1) +
	//         RowGroup(4) + Column(4) + ValueCount(8) + RawLen(4) +
	//         CompressedLen(4) + CRC32(4)
	EntryHeaderSize = 36

	// maxRawLen bounds the uncompressed payload a frame can carry.
	maxRawLen = 1<<31 - 1
)

// Magic identifies artifact files.
var Magic = [4]byte{'I', 'P', 'Q', 'C'}

// Entry is one column chunk ready for the artifact store. Raw holds the
// canonical uncompressed buffer; the checksum is computed over Raw so
// corruption is caught after decompression, whatever the codec did.
type Entry struct {
	Codec      Codec
	Type       stats.TypeTag
	RowGroup   uint32
	Column     uint32
	ValueCount uint64
	Raw        []byte
}

// Encode frames and compresses the entry.
// Format: [Header(36)] [CompressedPayload]
func (e *Entry) Encode() ([]byte, error) {
	if len(e.Raw) > maxRawLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(e.Raw))
	}
	payload, err := Compress(e.Codec, e.Raw)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, EntryHeaderSize+len(payload))
	copy(buf[0:4], Magic[:])
	buf[4] = FormatVersion
	buf[5] = byte(e.Codec)
	buf[6] = byte(e.Type)
	// byte 7 is reserved
	binary.LittleEndian.PutUint32(buf[8:12], e.RowGroup)
	binary.LittleEndian.PutUint32(buf[12:16], e.Column)
	binary.LittleEndian.PutUint64(buf[16:24], e.ValueCount)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(e.Raw)))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[32:36], crc32.ChecksumIEEE(e.Raw))

	copy(buf[EntryHeaderSize:], payload)
	return buf, nil
}

// DecodeEntry parses and verifies a framed artifact.
func DecodeEntry(data []byte) (*Entry, error) {
	if len(data) < EntryHeaderSize {
		return nil, ErrTruncated
	}
	if [4]byte(data[0:4]) != Magic {
		return nil, ErrBadMagic
	}
	if data[4] != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, data[4])
	}

	entry := &Entry{
		Codec:      Codec(data[5]),
		Type:       stats.TypeTag(data[6]),
		RowGroup:   binary.LittleEndian.Uint32(data[8:12]),
		Column:     binary.LittleEndian.Uint32(data[12:16]),
		ValueCount: binary.LittleEndian.Uint64(data[16:24]),
	}
	rawLen := binary.LittleEndian.Uint32(data[24:28])
	compLen := binary.LittleEndian.Uint32(data[28:32])
	storedCRC := binary.LittleEndian.Uint32(data[32:36])

	if len(data) < EntryHeaderSize+int(compLen) {
		return nil, ErrTruncated
	}

	raw, err := Decompress(entry.Codec, data[EntryHeaderSize:EntryHeaderSize+int(compLen)], int(rawLen))
	if err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(raw) != storedCRC {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupted)
	}
	entry.Raw = raw
	return entry, nil
}

// String returns a short description for logs.
func (e *Entry) String() string {
	return fmt.Sprintf("artifact[rg=%d col=%d type=%s codec=%s raw=%d]",
		e.RowGroup, e.Column, e.Type, e.Codec, len(e.Raw))
}
