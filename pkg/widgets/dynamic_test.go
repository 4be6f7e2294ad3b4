package widgets

import (
	"strings"
	"testing"
	"time"
)

func TestDynamicValueRetriesThenReportsMissingSource(t *testing.T) {
	t.Parallel()

	env, h := newTestEnv(t, "")
	w := NewDynamicValue("dv", DynamicValueConfig{SourceID: "late", PropertyID: "value"}, env)
	initWidget(t, w)

	w.Render()
	w.Render()
	if w.State() != StateLoading || h.Loop.Timers() != 1 {
		t.Fatalf("expected one pending retry, state=%s timers=%d", w.State(), h.Loop.Timers())
	}
	for i := 0; i < connectAttempts; i++ {
		h.Loop.Advance(connectDelay)
	}

	view := w.View()
	if view.State != StateError {
		t.Fatalf("expected error state, got %s", view.State)
	}
	if view.Message != "Unable to connect to the data source (late)" {
		t.Fatalf("unexpected message %q", view.Message)
	}
	if h.Loop.Timers() != 0 {
		t.Fatalf("expected retries to stop")
	}
}

func TestDynamicValueConnectsWhenSourceAppears(t *testing.T) {
	t.Parallel()

	env, h := newTestEnv(t, "")
	w := NewDynamicValue("dv", DynamicValueConfig{
		Common:     Common{LabelShow: true},
		SourceID:   "late",
		PropertyID: "value",
	}, env)
	initWidget(t, w)
	w.Render()

	upstream := newStubSource(map[string]any{"value": "first"}, "value")
	registerStub(t, h.Provider, "late", upstream)
	h.Loop.Advance(connectDelay)

	if w.State() != StateReady || w.Value() != "first" {
		t.Fatalf("expected ready with first, got %s/%v", w.State(), w.Value())
	}
	if h.Provider.Subscribers("late", "value") != 1 {
		t.Fatalf("expected a subscription after the first read")
	}
	if got := w.View().Label; got != "Value" {
		t.Fatalf("expected label to track the property title, got %q", got)
	}

	upstream.values["value"] = "second"
	h.Provider.Notify("late", "value")
	if got := w.View().Display; got != "second" {
		t.Fatalf("expected display to follow upstream, got %q", got)
	}
}

func TestDynamicValueReadError(t *testing.T) {
	t.Parallel()

	env, h := newTestEnv(t, "")
	registerStub(t, h.Provider, "up", newStubSource(map[string]any{}, "value"))
	w := NewDynamicValue("dv", DynamicValueConfig{SourceID: "up", PropertyID: "nope"}, env)
	initWidget(t, w)
	w.Render()

	msg := w.View().Message
	if !strings.HasPrefix(msg, "An error has occurred while retrieving the property value (nope). Details: ") {
		t.Fatalf("unexpected message %q", msg)
	}
	if h.Provider.Subscribers("up", "nope") != 0 {
		t.Fatalf("a failed read must not subscribe")
	}
}

func TestDynamicValueReconfigureMovesSubscription(t *testing.T) {
	t.Parallel()

	env, h := newTestEnv(t, "")
	registerStub(t, h.Provider, "a", newStubSource(map[string]any{"value": 1}, "value"))
	registerStub(t, h.Provider, "b", newStubSource(map[string]any{"count": 2, "other": 3}, "count", "other"))

	cfg := DynamicValueConfig{SourceID: "a", PropertyID: "value", Common: Common{LabelShow: true}}
	w := NewDynamicValue("dv", cfg, env)
	initWidget(t, w)
	w.Render()

	next := w.Config()
	next.SourceID = "b"
	w.Reconfigure(next)

	if got := w.Config().PropertyID; got != "count" {
		t.Fatalf("expected first property of the new source, got %q", got)
	}
	if h.Provider.Subscribers("a", "value") != 0 || h.Provider.Subscribers("b", "count") != 1 {
		t.Fatalf("subscription did not move")
	}
	if w.Value() != 2 || w.View().Label != "Count" {
		t.Fatalf("unexpected value/label %v/%q", w.Value(), w.View().Label)
	}

	custom := w.Config()
	custom.LabelText = "Mine"
	custom.PropertyID = "other"
	w.Reconfigure(custom)
	if got := w.View().Label; got != "Mine" {
		t.Fatalf("edited label must be kept, got %q", got)
	}
}

func TestDynamicValueDisplay(t *testing.T) {
	t.Parallel()

	people := []any{
		map[string]any{"name": "Ada", "active": true},
		map[string]any{"name": "Alan", "active": false},
	}
	cases := []struct {
		name  string
		cfg   DynamicValueConfig
		value any
		want  string
	}{
		{name: "text", cfg: DynamicValueConfig{DisplayType: DisplayText}, value: 42, want: "42"},
		{name: "bool", cfg: DynamicValueConfig{DisplayType: DisplayBool, DisplayBoolTrue: "Yes", DisplayBoolFalse: "No"}, value: false, want: "No"},
		{name: "template", cfg: DynamicValueConfig{DisplayType: DisplayText, DisplayTemplate: "[[VALUE]] / [VALUE]"}, value: "x", want: "[x] / x"},
		{name: "object property", cfg: DynamicValueConfig{DisplayType: DisplayObject, DisplayObjectProperty: "name", DisplaySubPropertyType: DisplayText}, value: people[0], want: "Ada"},
		{name: "object manual property", cfg: DynamicValueConfig{DisplayType: DisplayObject, DisplayObjectProperty: ObjectPropertyManual, DisplayObjectPropertyManual: "active", DisplaySubPropertyType: DisplayBool, DisplayBoolTrue: "on"}, value: people[0], want: "on"},
		{name: "array text", cfg: DynamicValueConfig{DisplayType: DisplayArray, DisplayArrayIndex: 1, DisplayArrayValueType: DisplayText}, value: []any{"a", "b"}, want: "b"},
		{name: "array object", cfg: DynamicValueConfig{DisplayType: DisplayArray, DisplayArrayIndex: 1, DisplayArrayValueType: DisplayObject, DisplayObjectProperty: "name", DisplaySubPropertyType: DisplayText}, value: people, want: "Alan"},
		{name: "array out of range", cfg: DynamicValueConfig{DisplayType: DisplayArray, DisplayArrayIndex: 5, DisplayUndefined: UndefinedCustom, DisplayUndefinedCustom: "n/a"}, value: people, want: "n/a"},
		{name: "undefined literal", cfg: DynamicValueConfig{DisplayType: DisplayText, DisplayUndefined: UndefinedUndefined}, value: nil, want: "undefined"},
		{name: "undefined blank", cfg: DynamicValueConfig{DisplayType: DisplayText, DisplayTemplate: "[VALUE]!"}, value: nil, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env, _ := newTestEnv(t, "")
			w := NewDynamicValue("dv", tc.cfg, env)
			w.value = tc.value
			if got := w.Display(); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDynamicValueUnconfigured(t *testing.T) {
	t.Parallel()

	env, h := newTestEnv(t, "")
	w := NewDynamicValue("dv", DynamicValueConfig{}, env)
	initWidget(t, w)
	w.Render()
	if w.State() != StateUnconfigured || h.Loop.Timers() != 0 {
		t.Fatalf("expected an idle unconfigured widget")
	}
	h.Loop.Advance(time.Second)
}
