package widgets

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/filter"
)

// KindDynamicValue is the registry name of the dynamic value widget.
const KindDynamicValue = "dynamicValue"

const (
	connectAttempts = 3
	connectDelay    = 100 * time.Millisecond
)

// Display types of a dynamic value.
const (
	DisplayText   = "text"
	DisplayBool   = "bool"
	DisplayObject = "object"
	DisplayArray  = "array"
)

// Undefined display modes.
const (
	UndefinedBlank     = "blank"
	UndefinedUndefined = "undefined"
	UndefinedCustom    = "custom"
)

// ObjectPropertyManual selects DisplayObjectPropertyManual as the
// sub-property name.
const ObjectPropertyManual = "manuallyspecified"

// DynamicValueConfig configures a DynamicValue.
type DynamicValueConfig struct {
	Common                      `yaml:",inline"`
	SourceID                    string `yaml:"sourceId" json:"sourceId"`
	PropertyID                  string `yaml:"propertyId" json:"propertyId"`
	DisplayType                 string `yaml:"displayType" json:"displayType"`
	DisplayBoolTrue             string `yaml:"displayBoolTrue" json:"displayBoolTrue"`
	DisplayBoolFalse            string `yaml:"displayBoolFalse" json:"displayBoolFalse"`
	DisplayObjectProperty       string `yaml:"displayObjectProperty" json:"displayObjectProperty"`
	DisplayObjectPropertyManual string `yaml:"displayObjectPropertyManual" json:"displayObjectPropertyManual"`
	DisplayArrayIndex           int    `yaml:"displayArrayIndex" json:"displayArrayIndex"`
	DisplayArrayValueType       string `yaml:"displayArrayValueType" json:"displayArrayValueType"`
	DisplaySubPropertyType      string `yaml:"displaySubPropertyType" json:"displaySubPropertyType"`
	DisplayUndefined            string `yaml:"displayUndefined" json:"displayUndefined"`
	DisplayUndefinedCustom      string `yaml:"displayUndefinedCustom" json:"displayUndefinedCustom"`
	DisplayTemplate             string `yaml:"displayTemplate" json:"displayTemplate"`
}

func (c DynamicValueConfig) objectProperty() string {
	if c.DisplayObjectProperty == ObjectPropertyManual {
		return c.DisplayObjectPropertyManual
	}
	return c.DisplayObjectProperty
}

// DynamicValue shows one property of another widget. It consumes data and
// publishes nothing.
type DynamicValue struct {
	base
	cfg        DynamicValueConfig
	value      any
	state      State
	message    string
	attempts   int
	retrying   bool
	subscribed bool
	subSource  string
	subProp    string
	lastTitle  string
}

// NewDynamicValue builds a dynamic value widget.
func NewDynamicValue(id string, cfg DynamicValueConfig, env Env) *DynamicValue {
	w := &DynamicValue{cfg: cfg, state: StateUnconfigured}
	w.base = newBase(KindDynamicValue, id, cfg.Title, env, nil, cfg.Common)
	return w
}

// Config returns the current configuration.
func (w *DynamicValue) Config() DynamicValueConfig { return w.cfg }

// Init records ctx. The widget never registers as a source.
func (w *DynamicValue) Init(ctx context.Context) error {
	if ctx != nil {
		w.ctx = ctx
	}
	return nil
}

// Render reads the configured property. A missing source is retried a few
// times before the widget reports that it cannot connect.
func (w *DynamicValue) Render() {
	if w.cfg.SourceID == "" || w.cfg.PropertyID == "" {
		w.state = StateUnconfigured
		w.message = ""
		return
	}

	src, ok := w.adapter.TryGetSource(w.cfg.SourceID)
	if !ok {
		w.retry()
		return
	}
	w.attempts = 0

	value, err := src.PropertyValue(w.cfg.PropertyID)
	if err != nil {
		w.fail(fmt.Sprintf("An error has occurred while retrieving the property value (%s). Details: %v", w.cfg.PropertyID, err))
		return
	}
	w.value = value
	w.state = StateReady
	w.message = ""
	w.trackLabel(src)

	if !w.subscribed {
		if err := w.adapter.Subscribe(w.cfg.SourceID, w.cfg.PropertyID, w.Render); err != nil {
			w.fail(fmt.Sprintf("An error has occurred while connecting to the data source. Details: %v", err))
			return
		}
		w.subscribed = true
		w.subSource, w.subProp = w.cfg.SourceID, w.cfg.PropertyID
	}
}

func (w *DynamicValue) retry() {
	if w.retrying {
		return
	}
	if w.attempts >= connectAttempts || w.env.Scheduler == nil {
		w.fail(fmt.Sprintf("Unable to connect to the data source (%s)", w.cfg.SourceID))
		return
	}
	w.attempts++
	w.retrying = true
	w.state = StateLoading
	w.env.Scheduler.After(connectDelay, func() {
		w.retrying = false
		w.Render()
	})
}

func (w *DynamicValue) fail(message string) {
	w.value = nil
	w.state = StateError
	w.message = message
	w.logger.Warn(message)
}

// trackLabel keeps the label on the property title until it is edited.
func (w *DynamicValue) trackLabel(src dynamicdata.Source) {
	title := ""
	for _, def := range src.PropertyDefinitions() {
		if def.ID == w.cfg.PropertyID {
			title = def.Title
			break
		}
	}
	if w.cfg.LabelText == "" || w.cfg.LabelText == w.lastTitle {
		w.cfg.LabelText = title
	}
	w.lastTitle = title
}

// Reconfigure applies an edited configuration. A new source without an
// explicitly changed property points at that source's first property, and
// a moved binding drops the old subscription.
func (w *DynamicValue) Reconfigure(next DynamicValueConfig) {
	old := w.cfg
	if next.SourceID != old.SourceID && next.PropertyID == old.PropertyID {
		next.PropertyID = ""
		if src, ok := w.adapter.TryGetSource(next.SourceID); ok {
			if defs := src.PropertyDefinitions(); len(defs) > 0 {
				next.PropertyID = defs[0].ID
			}
		}
	}
	w.cfg = next
	if next.SourceID != old.SourceID || next.PropertyID != old.PropertyID {
		if w.subscribed {
			w.adapter.Unsubscribe(w.subSource, w.subProp)
			w.subscribed = false
		}
		w.attempts = 0
		w.value = nil
	}
	w.Render()
}

// Sources lists the sources this widget can bind to.
func (w *DynamicValue) Sources() []dynamicdata.SourceInfo {
	return w.adapter.AvailableSources()
}

// Value returns the last value read.
func (w *DynamicValue) Value() any { return w.value }

// Display formats the current value for output.
func (w *DynamicValue) Display() string {
	value, kind := w.value, w.cfg.DisplayType
	switch kind {
	case DisplayObject:
		value, kind = member(value, w.cfg.objectProperty()), w.cfg.DisplaySubPropertyType
	case DisplayArray:
		value, kind = element(value, w.cfg.DisplayArrayIndex), w.cfg.DisplayArrayValueType
		if kind == DisplayObject {
			value, kind = member(value, w.cfg.objectProperty()), w.cfg.DisplaySubPropertyType
		}
	}
	if value == nil {
		return w.undefinedText()
	}

	var out string
	if kind == DisplayBool {
		out = w.cfg.DisplayBoolFalse
		if filter.Truthy(value) {
			out = w.cfg.DisplayBoolTrue
		}
	} else {
		out = filter.String(value)
	}
	if w.cfg.DisplayTemplate != "" {
		out = strings.ReplaceAll(w.cfg.DisplayTemplate, "[VALUE]", out)
	}
	return out
}

func (w *DynamicValue) undefinedText() string {
	switch w.cfg.DisplayUndefined {
	case UndefinedUndefined:
		return "undefined"
	case UndefinedCustom:
		return w.cfg.DisplayUndefinedCustom
	default:
		return ""
	}
}

func member(value any, prop string) any {
	out, err := filter.Index(value, prop)
	if err != nil {
		return nil
	}
	return out
}

func element(value any, index int) any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	return member(value, strconv.Itoa(index))
}

// State reports the widget state.
func (w *DynamicValue) State() State { return w.state }

// View implements Widget.
func (w *DynamicValue) View() View {
	return View{
		ID:      w.id,
		Kind:    w.kind,
		Title:   w.cfg.Title,
		Label:   w.cfg.label(),
		State:   w.state,
		Message: w.message,
		Value:   w.value,
		Display: w.Display(),
	}
}
