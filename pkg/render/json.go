package render

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-filterpack/pkg/page"
)

// JSON renders the snapshot as indented JSON.
type JSON struct{}

// NewJSON returns the JSON renderer.
func NewJSON() *JSON { return &JSON{} }

// Name reports the renderer identifier.
func (*JSON) Name() string { return "json" }

// ContentType reports the media type Render produces.
func (*JSON) ContentType() string { return "application/json" }

// Render marshals snap. A non-empty BasePath rewrites the URL to its
// canonical form.
func (*JSON) Render(ctx context.Context, snap page.Snapshot, opts RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap.URL = opts.CanonicalURL(snap.URL)
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json: %w", err)
	}
	return append(out, '\n'), nil
}
