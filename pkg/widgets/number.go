package widgets

import (
	"context"
	"strconv"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/filter"
)

// KindNumber is the registry name of the number widget.
const KindNumber = "number"

// NumberConfig configures a NumberFilter. Min and Max are optional bounds.
type NumberConfig struct {
	Common             `yaml:",inline"`
	DisplayAs          string   `yaml:"displayAs" json:"displayAs"`
	Min                *float64 `yaml:"min" json:"min"`
	Max                *float64 `yaml:"max" json:"max"`
	Step               float64  `yaml:"step" json:"step"`
	DecimalPlaces      int      `yaml:"decimalPlaces" json:"decimalPlaces"`
	Suffix             string   `yaml:"suffix" json:"suffix"`
	DefaultValue       float64  `yaml:"defaultValue" json:"defaultValue"`
	SendValueAsPercent bool     `yaml:"sendValueAsPercent" json:"sendValueAsPercent"`
}

func (c NumberConfig) clamp(v float64) float64 {
	if c.Min != nil && v < *c.Min {
		v = *c.Min
	}
	if c.Max != nil && v > *c.Max {
		v = *c.Max
	}
	return v
}

// NumberFilter publishes a number within optional bounds.
type NumberFilter struct {
	base
	cfg   NumberConfig
	value float64
}

// NewNumberFilter builds an uninitialised number widget.
func NewNumberFilter(id string, cfg NumberConfig, env Env) *NumberFilter {
	w := &NumberFilter{cfg: cfg}
	w.base = newBase(KindNumber, id, cfg.Title, env, w, cfg.Common)
	return w
}

// Init publishes the widget and seeds its value from the default, then the
// query string, clamped to the bounds.
func (w *NumberFilter) Init(ctx context.Context) error {
	if err := w.initSource(ctx); err != nil {
		return err
	}
	w.value = w.cfg.DefaultValue
	if seed, ok := w.mirror.Seed(); ok {
		n, ok := filter.Number(seed)
		if !ok {
			n = 0
		}
		w.value = n
	}
	w.value = w.cfg.clamp(w.value)
	return nil
}

// PropertyDefinitions implements dynamicdata.Callables.
func (w *NumberFilter) PropertyDefinitions() []dynamicdata.PropertyDefinition {
	return []dynamicdata.PropertyDefinition{
		{ID: PropFilterValue, Title: "Filter Value", Description: "The value (number) of the filter"},
	}
}

// PropertyValue implements dynamicdata.Callables.
func (w *NumberFilter) PropertyValue(id string) (any, error) {
	if id == PropFilterValue {
		if w.cfg.SendValueAsPercent {
			return w.value / 100, nil
		}
		return w.value, nil
	}
	return nil, dynamicdata.UnknownProperty(id)
}

// Value returns the current number.
func (w *NumberFilter) Value() float64 { return w.value }

// SetValue commits value clamped to the bounds, notifies dependents and
// syncs the query string.
func (w *NumberFilter) SetValue(value float64) {
	w.value = w.cfg.clamp(value)
	w.notify(PropFilterValue)
	w.mirror.Sync(w.value)
	w.Render()
}

// Reconfigure applies an edited configuration. New bounds clamp the
// default and current value; the current value is only announced when it
// moved. A minimum above the maximum is pulled down to it, and the reverse.
func (w *NumberFilter) Reconfigure(next NumberConfig) {
	old := w.cfg
	notify := false

	if !sameBound(old.Min, next.Min) && next.Min != nil {
		if next.Max != nil && *next.Min > *next.Max {
			v := *next.Max
			next.Min = &v
		}
		if next.DefaultValue < *next.Min {
			next.DefaultValue = *next.Min
		}
		if w.value < *next.Min {
			w.value = *next.Min
			notify = true
		}
	}
	if !sameBound(old.Max, next.Max) && next.Max != nil {
		if next.Min != nil && *next.Max < *next.Min {
			v := *next.Min
			next.Max = &v
		}
		if next.DefaultValue > *next.Max {
			next.DefaultValue = *next.Max
		}
		if w.value > *next.Max {
			w.value = *next.Max
			notify = true
		}
	}
	if old.SendValueAsPercent != next.SendValueAsPercent {
		notify = true
	}

	w.cfg = next
	w.reconfigureMirror(old.Common, next.Common, w.value)
	if notify {
		w.notify(PropFilterValue)
	}
}

func sameBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Render implements Widget.
func (w *NumberFilter) Render() {}

// View implements Widget.
func (w *NumberFilter) View() View {
	display := strconv.FormatFloat(w.value, 'f', w.cfg.DecimalPlaces, 64)
	if w.cfg.DecimalPlaces <= 0 {
		display = filter.String(w.value)
	}
	return View{
		ID:         w.id,
		Kind:       w.kind,
		Title:      w.cfg.Title,
		Label:      w.cfg.label(),
		State:      StateReady,
		Value:      w.value,
		Display:    display + w.cfg.Suffix,
		QSKey:      w.mirror.Key(),
		Properties: propertyValues(w),
	}
}
