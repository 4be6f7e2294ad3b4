// Package listinfo turns raw list metadata into the addressable field paths
// a choice widget offers for keys, texts and cascading filters.
package listinfo

// FieldInfo is a list column as the store describes it.
type FieldInfo struct {
	InternalName    string `json:"internalName" yaml:"internalName"`
	Title           string `json:"title" yaml:"title"`
	Type            string `json:"type" yaml:"type"`
	LookupField     string `json:"lookupField,omitempty" yaml:"lookupField,omitempty"`
	DependentLookup bool   `json:"dependentLookup,omitempty" yaml:"dependentLookup,omitempty"`
	Hidden          bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// ViewMeta is a list view as the store describes it.
type ViewMeta struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Hidden     bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Query      string   `json:"query,omitempty" yaml:"query,omitempty"`
	ViewFields []string `json:"viewFields" yaml:"viewFields"`
}

// ListMetadata is the raw description of one list.
type ListMetadata struct {
	ID     string      `json:"id" yaml:"id"`
	Title  string      `json:"title" yaml:"title"`
	Fields []FieldInfo `json:"fields" yaml:"fields"`
	Views  []ViewMeta  `json:"views" yaml:"views"`
}

// ViewInfo is a resolved view. ViewFields are the columns to fetch;
// FieldChoices are the paths a user may address.
type ViewInfo struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Query        string   `json:"query"`
	ViewFields   []string `json:"viewFields"`
	FieldChoices []string `json:"fieldChoices"`
}

// FieldChoice pairs a path with its display label.
type FieldChoice struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// ListInfo is the resolved, cacheable form of a list.
type ListInfo struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Fields *FieldMap  `json:"fields"`
	Views  []ViewInfo `json:"views"`
}

// View returns the view with id.
func (l *ListInfo) View(id string) (ViewInfo, bool) {
	if l == nil {
		return ViewInfo{}, false
	}
	for _, view := range l.Views {
		if view.ID == id {
			return view, true
		}
	}
	return ViewInfo{}, false
}

// Choices pairs each of view's field choices with its label.
func (l *ListInfo) Choices(view ViewInfo) []FieldChoice {
	out := make([]FieldChoice, 0, len(view.FieldChoices))
	for _, path := range view.FieldChoices {
		out = append(out, FieldChoice{Path: path, Label: l.Fields.Label(path)})
	}
	return out
}
