package filter

import (
	"fmt"
	"strings"
)

// Extract resolves a field path against a record.
//
// A path without "/" is a direct key (flat keys such as "Link.desc"
// included). "field/sub" reads the first element of record[field] and
// returns its sub member, which is how person and lookup columns carry their
// display values. Segments past the second are ignored.
func Extract(path string, record Record) (any, error) {
	if strings.Index(path, "/") <= 0 {
		return record[path], nil
	}

	parts := strings.Split(path, "/")
	first, err := Index(record[parts[0]], "0")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedPath, path, err)
	}
	value, err := Index(first, parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedPath, path, err)
	}
	return value, nil
}
