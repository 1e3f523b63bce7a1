// Package archive stores one compressed artifact per column chunk plus a
// JSON manifest describing the source layout.
package archive

import (
	"errors"
	"fmt"

	"github.com/infparquet/infparquet/pkg/stats"
)

var (
	// ErrCorrupted indicates an artifact whose checksum or framing does
	// not match its contents.
	ErrCorrupted = errors.New("archive: corrupted artifact")

	// ErrTruncated indicates an artifact shorter than its header claims.
	ErrTruncated = errors.New("archive: truncated artifact")

	// ErrBadMagic indicates a file that is not an artifact at all.
	ErrBadMagic = errors.New("archive: not an artifact file")

	// ErrVersion indicates an artifact written by an unknown format
	// revision.
	ErrVersion = errors.New("archive: unsupported format version")

	// ErrUnknownCodec indicates a codec byte this build cannot decode.
	ErrUnknownCodec = errors.New("archive: unknown codec")

	// ErrTooLarge rejects buffers whose length cannot be framed.
	ErrTooLarge = fmt.Errorf("%w: artifact exceeds size limit", stats.ErrMemory)
)
