package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNothingEditable is returned when a page has no widget a user can
	// change.
	ErrNothingEditable = errors.New("tui: page has no editable widgets")
)
