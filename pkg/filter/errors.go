package filter

import "errors"

var (
	// ErrMalformedPath is returned by Extract when a compound path cannot be
	// walked on the supplied record.
	ErrMalformedPath = errors.New("filter: malformed path")
	// ErrNotIndexable signals a member read on an absent value.
	ErrNotIndexable = errors.New("filter: value is not indexable")
)
