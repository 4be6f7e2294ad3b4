package page

import (
	"github.com/goliatone/go-filterpack/pkg/dynamicdata"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

// Snapshot is a point-in-time description of a page for renderers.
type Snapshot struct {
	Title   string           `json:"title"`
	URL     string           `json:"url"`
	Widgets []widgets.View   `json:"widgets"`
	Sources []SourceSnapshot `json:"sources"`
}

// SourceSnapshot is a published source and the properties it declares.
type SourceSnapshot struct {
	ID         string                           `json:"id"`
	Title      string                           `json:"title"`
	Properties []dynamicdata.PropertyDefinition `json:"properties"`
}

// Snapshot captures every widget view, the published sources and the
// current address.
func (p *Page) Snapshot() Snapshot {
	snap := Snapshot{
		Title:   p.cfg.Title,
		URL:     p.location.String(),
		Widgets: make([]widgets.View, 0, len(p.widgets)),
	}
	for _, w := range p.widgets {
		snap.Widgets = append(snap.Widgets, w.View())
	}
	for _, info := range p.provider.Sources() {
		src, ok := p.provider.Source(info.ID)
		if !ok {
			continue
		}
		snap.Sources = append(snap.Sources, SourceSnapshot{
			ID:         info.ID,
			Title:      info.Title,
			Properties: src.PropertyDefinitions(),
		})
	}
	return snap
}

// Widget returns the view of widget id.
func (s Snapshot) Widget(id string) (widgets.View, bool) {
	for _, view := range s.Widgets {
		if view.ID == id {
			return view, true
		}
	}
	return widgets.View{}, false
}
