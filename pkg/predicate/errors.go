package predicate

import "errors"

// ErrPredicate marks malformed custom-metadata configuration. Unknown
// query text is deliberately not an error; see Evaluate.
var ErrPredicate = errors.New("predicate: invalid configuration")
