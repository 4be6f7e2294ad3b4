package render

import "errors"

var (
	// ErrRendererNotFound is returned by Registry.Get for an unknown name.
	ErrRendererNotFound = errors.New("render: renderer not found")
	// ErrDuplicateRenderer is returned when a name is registered twice.
	ErrDuplicateRenderer = errors.New("render: renderer already registered")
)
