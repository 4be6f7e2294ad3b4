package render

import (
	"context"

	"github.com/goliatone/go-filterpack/pkg/page"
)

// Renderer converts a page snapshot into a byte representation (HTML, JSON,
// plain text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, snap page.Snapshot, opts RenderOptions) ([]byte, error)
}
