// Package source errors. ErrSource is the class; the three concrete
// sentinels wrap it so errors.Is matches either level.
package source

import (
	"errors"
	"fmt"
)

var (
	ErrSource   = errors.New("source error")
	ErrNotFound = fmt.Errorf("%w: not found", ErrSource)
	ErrIO       = fmt.Errorf("%w: i/o failure", ErrSource)
	ErrCorrupt  = fmt.Errorf("%w: corrupt data", ErrSource)
)
