package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/render"
	"github.com/goliatone/go-filterpack/pkg/widgets"
)

// Renderer implements render.Renderer with the plain-text summary the
// interactive session prints between edits.
type Renderer struct{}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the text renderer.
func New() *Renderer { return &Renderer{} }

// Name reports the renderer identifier.
func (r *Renderer) Name() string { return "text" }

// ContentType reports the media type Render produces.
func (r *Renderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render writes the summary of snap.
func (r *Renderer) Render(ctx context.Context, snap page.Snapshot, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap.URL = opts.CanonicalURL(snap.URL)
	return []byte(Summary(snap)), nil
}

// Summary lists every widget with its kind, state and current value. Choice
// widgets list their options with the selected one starred.
func Summary(snap page.Snapshot) string {
	var b strings.Builder
	if snap.Title != "" {
		b.WriteString(snap.Title)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "URL: %s\n", snap.URL)

	for _, w := range snap.Widgets {
		fmt.Fprintf(&b, "\n%s (%s, %s)\n", widgetName(w), w.Kind, w.State)
		if w.Message != "" {
			fmt.Fprintf(&b, "  ! %s\n", w.Message)
		}
		if w.Kind != widgets.KindChoice {
			fmt.Fprintf(&b, "  %s\n", w.Display)
			continue
		}
		if len(w.Options) == 0 {
			b.WriteString("  (no options)\n")
		}
		for _, opt := range w.Options {
			mark := " "
			if opt.Selected {
				mark = "*"
			}
			fmt.Fprintf(&b, "  %s %s\n", mark, opt.Text)
		}
	}
	return b.String()
}

func widgetName(w widgets.View) string {
	switch {
	case w.Label != "":
		return w.Label
	case w.Title != "":
		return w.Title
	default:
		return w.ID
	}
}
