package widgets

import (
	"fmt"
	"strings"
)

// State is where a widget is in its lifecycle.
type State int

const (
	StateUnconfigured State = iota
	StateLoading
	StateReady
	StateError
)

var stateNames = [...]string{
	StateUnconfigured: "unconfigured",
	StateLoading:      "loading",
	StateReady:        "ready",
	StateError:        "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText writes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a state name.
func (s *State) UnmarshalText(text []byte) error {
	name := strings.TrimSpace(string(text))
	for i, candidate := range stateNames {
		if candidate == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("widgets: unknown state %q", name)
}

// Option is one selectable choice.
type Option struct {
	Key      any    `json:"key"`
	Text     string `json:"text"`
	Selected bool   `json:"selected,omitempty"`
}

// PropertyValue is a published property as seen at snapshot time.
type PropertyValue struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Value any    `json:"value"`
}

// View is a render-ready description of a widget.
type View struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Title      string          `json:"title,omitempty"`
	Label      string          `json:"label,omitempty"`
	State      State           `json:"state"`
	Message    string          `json:"message,omitempty"`
	Options    []Option        `json:"options,omitempty"`
	Value      any             `json:"value"`
	Display    string          `json:"display"`
	QSKey      string          `json:"qsKey,omitempty"`
	Properties []PropertyValue `json:"properties,omitempty"`
}
