package tui

import (
	"github.com/goliatone/go-filterpack/pkg/page"
)

// Change is one edit a session applied to the page.
type Change struct {
	Widget string `json:"widget"`
	Input  string `json:"input"`
	URL    string `json:"url"`
	Error  string `json:"error,omitempty"`
}

// Log records a session's edits in the order they were made.
type Log struct {
	changes []Change
}

// Record appends c.
func (l *Log) Record(c Change) {
	l.changes = append(l.changes, c)
}

// Changes returns a copy of the recorded edits.
func (l *Log) Changes() []Change {
	if l == nil {
		return nil
	}
	return append([]Change(nil), l.changes...)
}

// Assignments returns the edits that applied cleanly. Replaying them with
// page.Apply reproduces the session's final state.
func (l *Log) Assignments() []page.Assignment {
	if l == nil {
		return nil
	}
	out := make([]page.Assignment, 0, len(l.changes))
	for _, c := range l.changes {
		if c.Error != "" {
			continue
		}
		out = append(out, page.Assignment{ID: c.Widget, Value: c.Input})
	}
	return out
}

// Replay formats Assignments as id=value pairs.
func (l *Log) Replay() []string {
	assignments := l.Assignments()
	out := make([]string, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, a.ID+"="+a.Value)
	}
	return out
}
