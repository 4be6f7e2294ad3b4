package widgets

import (
	"context"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/filter"
)

// KindText is the registry name of the text widget.
const KindText = "text"

// TextConfig configures a TextFilter.
type TextConfig struct {
	Common       `yaml:",inline"`
	Placeholder  string `yaml:"placeholder" json:"placeholder"`
	DefaultValue string `yaml:"defaultValue" json:"defaultValue"`
}

// TextFilter publishes free text.
type TextFilter struct {
	base
	cfg   TextConfig
	value any
}

// NewTextFilter builds an uninitialised text widget.
func NewTextFilter(id string, cfg TextConfig, env Env) *TextFilter {
	w := &TextFilter{cfg: cfg}
	w.base = newBase(KindText, id, cfg.Title, env, w, cfg.Common)
	return w
}

// Init publishes the widget and seeds its value from the default, then the
// query string.
func (w *TextFilter) Init(ctx context.Context) error {
	if err := w.initSource(ctx); err != nil {
		return err
	}
	if w.cfg.DefaultValue != "" {
		w.value = w.cfg.DefaultValue
	}
	if seed, ok := w.mirror.Seed(); ok {
		w.value = seed
	}
	return nil
}

// PropertyDefinitions implements dynamicdata.Callables.
func (w *TextFilter) PropertyDefinitions() []dynamicdata.PropertyDefinition {
	return []dynamicdata.PropertyDefinition{
		{ID: PropFilterValue, Title: "Filter Value", Description: "The value of the text field"},
	}
}

// PropertyValue implements dynamicdata.Callables.
func (w *TextFilter) PropertyValue(id string) (any, error) {
	if id == PropFilterValue {
		return w.value, nil
	}
	return nil, dynamicdata.UnknownProperty(id)
}

// SetValue commits value, notifies dependents and syncs the query string.
func (w *TextFilter) SetValue(value string) {
	w.value = value
	w.notify(PropFilterValue)
	w.mirror.Sync(w.value)
	w.Render()
}

// Reconfigure applies an edited configuration.
func (w *TextFilter) Reconfigure(next TextConfig) {
	old := w.cfg
	w.cfg = next
	w.reconfigureMirror(old.Common, next.Common, w.value)
}

// Render implements Widget. Text has nothing to recompute.
func (w *TextFilter) Render() {}

// View implements Widget.
func (w *TextFilter) View() View {
	view := View{
		ID:         w.id,
		Kind:       w.kind,
		Title:      w.cfg.Title,
		Label:      w.cfg.label(),
		State:      StateReady,
		Value:      w.value,
		QSKey:      w.mirror.Key(),
		Properties: propertyValues(w),
	}
	if w.value != nil {
		view.Display = filter.String(w.value)
	}
	return view
}
