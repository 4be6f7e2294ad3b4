package widgets

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/filter"
	"github.com/goliatone/go-filterpack/pkg/listinfo"
)

// FilterEditor describes one cascading filter with the choices an editor
// offers for each of its fields.
type FilterEditor struct {
	Index      int                              `json:"index"`
	Entry      filter.Entry                     `json:"entry"`
	Fields     []listinfo.FieldChoice           `json:"fields"`
	Operators  []filter.OperatorInfo            `json:"operators"`
	Sources    []dynamicdata.SourceInfo         `json:"sources"`
	Properties []dynamicdata.PropertyDefinition `json:"properties"`
	SubKeys    []string                         `json:"subKeys,omitempty"`
}

var customFieldChoices = []listinfo.FieldChoice{
	{Path: "key", Label: "Key"},
	{Path: "text", Label: "Text"},
	{Path: "filterValue", Label: "Filterable Value"},
}

// AddFilter appends a filter pointing at the first available source and
// its first property, and subscribes to it.
func (w *ChoiceFilter) AddFilter() (filter.Entry, error) {
	sources := w.adapter.AvailableSources()
	if len(sources) == 0 {
		return filter.Entry{}, ErrNoSources
	}
	entry := filter.Entry{
		Field:     "filterValue",
		Operation: filter.OpEqual,
		Source:    sources[0].ID,
	}
	if w.cfg.listBacked() {
		entry.Field = listinfo.DefaultKeyField
	}
	if src, ok := w.adapter.TryGetSource(entry.Source); ok {
		if defs := src.PropertyDefinitions(); len(defs) > 0 {
			entry.Prop = defs[0].ID
		}
	}
	w.cfg.CascadingFilters = append(w.cfg.CascadingFilters, entry)
	w.subscribe(entry)
	w.Render()
	return entry, nil
}

// UpdateFilter replaces filter i. A changed source or property moves the
// subscription.
func (w *ChoiceFilter) UpdateFilter(i int, entry filter.Entry) error {
	if i < 0 || i >= len(w.cfg.CascadingFilters) {
		return fmt.Errorf("%w: %d", ErrFilterIndex, i)
	}
	old := w.cfg.CascadingFilters[i]
	moved := old.Source != entry.Source || old.Prop != entry.Prop
	if moved {
		w.unsubscribe(old)
	}
	w.cfg.CascadingFilters[i] = entry
	if moved {
		w.subscribe(entry)
	}
	w.Render()
	return nil
}

// RemoveFilter drops filter i and its subscription.
func (w *ChoiceFilter) RemoveFilter(i int) error {
	if i < 0 || i >= len(w.cfg.CascadingFilters) {
		return fmt.Errorf("%w: %d", ErrFilterIndex, i)
	}
	w.unsubscribe(w.cfg.CascadingFilters[i])
	w.cfg.CascadingFilters = append(w.cfg.CascadingFilters[:i:i], w.cfg.CascadingFilters[i+1:]...)
	w.Render()
	return nil
}

// FilterEditors lists every filter with its editing choices. A filter
// whose sub property no longer exists on the upstream value is pointed at
// the first one that does.
func (w *ChoiceFilter) FilterEditors() []FilterEditor {
	fields := w.fieldChoices()
	sources := w.adapter.AvailableSources()
	repaired := false

	out := make([]FilterEditor, 0, len(w.cfg.CascadingFilters))
	for i := range w.cfg.CascadingFilters {
		entry := &w.cfg.CascadingFilters[i]
		editor := FilterEditor{
			Index:     i,
			Fields:    fields,
			Operators: filter.Operators(),
			Sources:   sources,
		}
		if src, ok := w.adapter.TryGetSource(entry.Source); ok {
			editor.Properties = src.PropertyDefinitions()
			if entry.UseSub {
				sample, err := src.PropertyValue(entry.Prop)
				if err != nil {
					w.logger.Warn("Unable to get sub properties from source property",
						slog.String("source", entry.Source),
						slog.String("property", entry.Prop),
						slog.Any("error", err),
					)
				} else {
					editor.SubKeys, _ = filter.SubKeys(sample)
					if entry.RepairSub(sample) {
						repaired = true
					}
				}
			}
		}
		editor.Entry = *entry
		out = append(out, editor)
	}
	if repaired {
		w.Render()
	}
	return out
}

// fieldChoices are the record paths a filter or key/text field may name,
// sorted by label for list sources.
func (w *ChoiceFilter) fieldChoices() []listinfo.FieldChoice {
	if !w.cfg.listBacked() {
		return append([]listinfo.FieldChoice(nil), customFieldChoices...)
	}
	if w.env.Lists == nil {
		return nil
	}
	info, ok := w.env.Lists.Cached(w.cfg.ListID)
	if !ok {
		return nil
	}
	view, ok := info.View(w.cfg.ViewID)
	if !ok {
		return nil
	}
	choices := info.Choices(view)
	sort.SliceStable(choices, func(i, j int) bool { return choices[i].Label < choices[j].Label })
	return choices
}

// Reconfigure applies an edited configuration. Changing the choice type,
// list or view drops every cascading filter; list and view settings left
// over from a previous list or view are reset, and fetched rows are
// discarded.
func (w *ChoiceFilter) Reconfigure(next ChoiceConfig) {
	if next.ChoiceType == "" {
		next.ChoiceType = ChoiceCustom
	}
	old := w.cfg

	listChanged := next.ListID != old.ListID
	viewChanged := next.ViewID != old.ViewID
	if listChanged {
		if next.ViewID == old.ViewID {
			next.ViewID = ""
		}
		if reflect.DeepEqual(next.ViewFields, old.ViewFields) {
			next.ViewFields = nil
		}
		if next.ViewQuery == old.ViewQuery {
			next.ViewQuery = ""
		}
		if next.KeyField == old.KeyField {
			next.KeyField = ""
		}
		if next.TextField == old.TextField {
			next.TextField = ""
		}
	} else if viewChanged {
		if view, ok := w.cachedView(next.ListID, next.ViewID); ok {
			next.ViewQuery = view.Query
			next.ViewFields = append([]string(nil), view.ViewFields...)
		}
		if next.KeyField == old.KeyField {
			next.KeyField = ""
		}
		if next.TextField == old.TextField {
			next.TextField = ""
		}
	}

	sourceChanged := next.ChoiceType != old.ChoiceType || listChanged || viewChanged
	filtersChanged := !reflect.DeepEqual(next.CascadingFilters, old.CascadingFilters)
	if sourceChanged || filtersChanged {
		for _, entry := range old.CascadingFilters {
			w.unsubscribe(entry)
		}
		if sourceChanged && !filtersChanged {
			next.CascadingFilters = nil
		}
	}

	w.cfg = next

	if sourceChanged || filtersChanged {
		w.subscribed = false
	}
	if listChanged || viewChanged || next.ChoiceType != old.ChoiceType ||
		next.ViewQuery != old.ViewQuery || !reflect.DeepEqual(next.ViewFields, old.ViewFields) ||
		next.KeyField != old.KeyField || next.TextField != old.TextField {
		w.dropResults()
	}
	w.reconfigureMirror(old.Common, next.Common, w.selectedKey)
	w.Render()
}

func (w *ChoiceFilter) cachedView(listID, viewID string) (listinfo.ViewInfo, bool) {
	if w.env.Lists == nil {
		return listinfo.ViewInfo{}, false
	}
	info, ok := w.env.Lists.Cached(listID)
	if !ok {
		return listinfo.ViewInfo{}, false
	}
	return info.View(viewID)
}

// ConfigureList loads the list's field information and fills in the view,
// key field and text field when they are unset.
func (w *ChoiceFilter) ConfigureList(ctx context.Context) (*listinfo.ListInfo, error) {
	if !w.cfg.listBacked() || w.cfg.ListID == "" {
		return nil, ErrNotListBacked
	}
	if w.env.Lists == nil {
		return nil, ErrNoStore
	}
	info, err := w.env.Lists.Get(ctx, w.cfg.ListID)
	if err != nil {
		w.logger.Error("Failed to get List Info", slog.String("list", w.cfg.ListID), slog.Any("error", err))
		return nil, err
	}

	changed := false
	if w.cfg.ViewID == "" && len(info.Views) > 0 {
		view := info.Views[0]
		w.cfg.ViewID = view.ID
		w.cfg.ViewQuery = view.Query
		w.cfg.ViewFields = append([]string(nil), view.ViewFields...)
		changed = true
	} else if view, ok := info.View(w.cfg.ViewID); ok && len(w.cfg.ViewFields) == 0 {
		w.cfg.ViewQuery = view.Query
		w.cfg.ViewFields = append([]string(nil), view.ViewFields...)
		changed = true
	}
	if view, ok := info.View(w.cfg.ViewID); ok && w.cfg.KeyField == "" {
		w.cfg.KeyField = listinfo.DefaultKeyField
		w.cfg.TextField = info.DefaultTextField(view)
		changed = true
	}
	if changed {
		w.dropResults()
		w.Render()
	}
	return info, nil
}
