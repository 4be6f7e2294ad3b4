package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-filterpack/internal/config"
	"github.com/goliatone/go-filterpack/internal/logging"
	"github.com/goliatone/go-filterpack/pkg/orchestrator"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/render"
)

type renderOptions struct {
	format   string
	output   string
	url      string
	sets     []string
	fragment bool
	basePath string
}

func newRenderCommand() *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [page.yaml]",
		Short: "Settle a page and render it",
		Long: `Load a page, apply any --set assignments in order, settle the filter
cascade and write the result as html, json or text.

Without a page argument the bundled demo page is used.`,
		Example: `  filterpack render --format json
  filterpack render page.yaml --lists lists.yaml --set region=2 -o out.html
  filterpack render --url "/offices?region=2&office=13" --format text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			assignments, err := page.ParseAssignments(opts.sets)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			renderer, err := lookupRenderer(opts.format)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			src, err := loadSource(cfg, args)
			if err != nil {
				return err
			}

			out, _, err := renderOnce(ctx, cfg, logging.FromContext(ctx), src, renderer, assignments, opts)
			if err != nil {
				return err
			}
			return writeOutput(cmd, opts.output, out)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "html", "output format: html, json, text")
	f.StringVarP(&opts.output, "output", "o", "", "write to a file instead of stdout")
	f.StringVar(&opts.url, "url", "", "open the page at this URL, query string included")
	f.StringArrayVar(&opts.sets, "set", nil, "set a widget value as id=value (repeatable)")
	f.BoolVar(&opts.fragment, "fragment", false, "omit the HTML document shell")
	f.StringVar(&opts.basePath, "base-url", "", "prefix for the canonical URL")
	return cmd
}

func lookupRenderer(name string) (render.Renderer, error) {
	registry, err := orchestrator.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	return registry.Get(name)
}

// renderOnce runs the orchestrator over src: open a page session, apply
// assignments and render the settled snapshot.
func renderOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger, src *pageSource, renderer render.Renderer, assignments []page.Assignment, opts renderOptions) ([]byte, page.Snapshot, error) {
	registry, err := render.NewRegistry(renderer)
	if err != nil {
		return nil, page.Snapshot{}, err
	}
	orchOpts := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(renderer.Name()),
		orchestrator.WithStore(src.store),
		orchestrator.WithLogger(logger),
	}
	if cfg.CurrentUser != "" {
		orchOpts = append(orchOpts, orchestrator.WithPageOptions(page.WithCurrentUser(cfg.CurrentUser)))
	}

	res, err := orchestrator.New(orchOpts...).Run(ctx, orchestrator.Request{
		Config:        &src.cfg,
		URL:           opts.url,
		Assignments:   assignments,
		RenderOptions: render.RenderOptions{Fragment: opts.fragment, BasePath: opts.basePath},
	})
	if err != nil {
		return nil, page.Snapshot{}, err
	}
	logger.Debug("page rendered",
		slog.String("renderer", renderer.Name()),
		slog.Int("widgets", len(res.Snapshot.Widgets)),
		slog.String("url", res.Snapshot.URL),
	)
	return res.Output, res.Snapshot, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
