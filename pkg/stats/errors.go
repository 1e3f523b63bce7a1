// Package stats errors. Callers classify failures with errors.Is.
package stats

import "errors"

var (
	// ErrInvalidParameter marks misuse of an API: mismatched merge
	// variants, unknown tags, out-of-range configuration.
	ErrInvalidParameter = errors.New("stats: invalid parameter")

	// ErrMemory marks a refusal to allocate an implausible amount of
	// memory, such as a declared buffer size far beyond its data.
	ErrMemory = errors.New("stats: memory limit exceeded")
)
