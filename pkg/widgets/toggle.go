package widgets

import (
	"context"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
)

// KindToggle is the registry name of the toggle widget.
const KindToggle = "toggle"

// ToggleConfig configures a ToggleFilter. TrueValue and FalseValue follow
// OnText and OffText until they are set to something else.
type ToggleConfig struct {
	Common            `yaml:",inline"`
	OnText            string  `yaml:"onText" json:"onText"`
	OffText           string  `yaml:"offText" json:"offText"`
	DefaultState      bool    `yaml:"defaultState" json:"defaultState"`
	SendValueAsString bool    `yaml:"sendValueAsString" json:"sendValueAsString"`
	TrueValue         *string `yaml:"trueValue" json:"trueValue"`
	FalseValue        *string `yaml:"falseValue" json:"falseValue"`
}

// ToggleFilter publishes an on/off state.
type ToggleFilter struct {
	base
	cfg         ToggleConfig
	value       bool
	lastOnText  string
	lastOffText string
}

// NewToggleFilter builds an uninitialised toggle widget.
func NewToggleFilter(id string, cfg ToggleConfig, env Env) *ToggleFilter {
	w := &ToggleFilter{cfg: cfg}
	w.base = newBase(KindToggle, id, cfg.Title, env, w, cfg.Common)
	return w
}

// Init publishes the widget and seeds its state; a query-string "1" means
// on.
func (w *ToggleFilter) Init(ctx context.Context) error {
	if err := w.initSource(ctx); err != nil {
		return err
	}
	w.value = w.cfg.DefaultState
	w.lastOnText = w.cfg.OnText
	w.lastOffText = w.cfg.OffText
	if seed, ok := w.mirror.Seed(); ok {
		w.value = seed == "1"
	}
	return nil
}

// PropertyDefinitions implements dynamicdata.Callables.
func (w *ToggleFilter) PropertyDefinitions() []dynamicdata.PropertyDefinition {
	return []dynamicdata.PropertyDefinition{
		{ID: PropFilterValue, Title: "Filter Value", Description: "The value (true/false) of the toggle"},
	}
}

// PropertyValue implements dynamicdata.Callables.
func (w *ToggleFilter) PropertyValue(id string) (any, error) {
	if id != PropFilterValue {
		return nil, dynamicdata.UnknownProperty(id)
	}
	if !w.cfg.SendValueAsString {
		return w.value, nil
	}
	chosen := w.cfg.FalseValue
	if w.value {
		chosen = w.cfg.TrueValue
	}
	if chosen == nil {
		return nil, nil
	}
	return *chosen, nil
}

// On reports the current state.
func (w *ToggleFilter) On() bool { return w.value }

// SetState commits on, notifies dependents and syncs the query string.
func (w *ToggleFilter) SetState(on bool) {
	w.value = on
	w.notify(PropFilterValue)
	w.mirror.Sync(w.value)
	w.Render()
}

// Reconfigure applies an edited configuration.
func (w *ToggleFilter) Reconfigure(next ToggleConfig) {
	old := w.cfg
	notify := old.SendValueAsString != next.SendValueAsString ||
		!sameText(old.TrueValue, next.TrueValue) ||
		!sameText(old.FalseValue, next.FalseValue)

	if next.OnText != old.OnText {
		if next.TrueValue == nil || *next.TrueValue == w.lastOnText {
			v := next.OnText
			next.TrueValue = &v
			notify = true
		}
		w.lastOnText = next.OnText
	}
	if next.OffText != old.OffText {
		if next.FalseValue == nil || *next.FalseValue == w.lastOffText {
			v := next.OffText
			next.FalseValue = &v
			notify = true
		}
		w.lastOffText = next.OffText
	}

	w.cfg = next
	w.reconfigureMirror(old.Common, next.Common, w.value)
	if notify {
		w.notify(PropFilterValue)
	}
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Render implements Widget.
func (w *ToggleFilter) Render() {}

// View implements Widget.
func (w *ToggleFilter) View() View {
	display := w.cfg.OffText
	if w.value {
		display = w.cfg.OnText
	}
	return View{
		ID:         w.id,
		Kind:       w.kind,
		Title:      w.cfg.Title,
		Label:      w.cfg.label(),
		State:      StateReady,
		Value:      w.value,
		Display:    display,
		QSKey:      w.mirror.Key(),
		Properties: propertyValues(w),
	}
}
