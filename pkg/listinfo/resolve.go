package listinfo

import (
	"log/slog"
	"slices"
	"sort"
)

// Resolve builds the ListInfo for meta. Hidden fields and views are
// ignored; view fields naming an unknown or hidden column are logged and
// skipped.
func Resolve(meta ListMetadata, logger *slog.Logger) *ListInfo {
	if logger == nil {
		logger = slog.Default()
	}

	columns := make(map[string]FieldInfo, len(meta.Fields))
	for _, field := range meta.Fields {
		if field.Hidden {
			continue
		}
		columns[field.InternalName] = field
	}

	info := &ListInfo{
		ID:     meta.ID,
		Title:  meta.Title,
		Fields: NewFieldMap(),
	}
	info.Fields.Set("ID", "ID")
	info.Fields.Set("Title", "Title")

	for _, view := range meta.Views {
		if view.Hidden {
			continue
		}
		b := &viewBuilder{
			fields:       info.Fields,
			viewFields:   []string{"ID"},
			fieldChoices: []string{"ID"},
		}
		for _, name := range view.ViewFields {
			if _, ok := linkTitleAliases[name]; ok {
				b.fetch("Title")
				b.fieldChoices = append(b.fieldChoices, "Title")
				continue
			}
			field, ok := columns[name]
			if !ok {
				logger.Warn("view field skipped: unknown or hidden column",
					slog.String("list", meta.ID),
					slog.String("view", view.ID),
					slog.String("field", name),
				)
				continue
			}
			expanders[KindOf(field.Type)](b, name, field)
		}
		info.Views = append(info.Views, ViewInfo{
			ID:           view.ID,
			Title:        view.Title,
			Query:        view.Query,
			ViewFields:   uniq(b.viewFields),
			FieldChoices: uniq(b.fieldChoices),
		})
	}
	return info
}

// DefaultTextField picks Title when view offers it, otherwise the choice
// whose label sorts first.
func (l *ListInfo) DefaultTextField(view ViewInfo) string {
	if slices.Contains(view.FieldChoices, "Title") {
		return "Title"
	}
	choices := l.Choices(view)
	if len(choices) == 0 {
		return ""
	}
	sort.SliceStable(choices, func(i, j int) bool {
		return choices[i].Label < choices[j].Label
	})
	return choices[0].Path
}

// DefaultKeyField is the record id column.
const DefaultKeyField = "ID"

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, item := range in {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
