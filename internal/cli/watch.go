package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-filterpack/internal/config"
	"github.com/goliatone/go-filterpack/internal/logging"
	"github.com/goliatone/go-filterpack/internal/watch"
	"github.com/goliatone/go-filterpack/pkg/page"
)

func newWatchCommand() *cobra.Command {
	opts := renderOptions{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <page.yaml>",
		Short: "Re-render a page whenever its page or list files change",
		Example: `  filterpack watch page.yaml --lists lists.yaml -o out/page.html
  filterpack watch page.yaml --lists lists.yaml -o out/page.json --format json --set region=2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := logging.FromContext(ctx)

			if opts.output == "" {
				return usageError("watch needs an output file: pass -o")
			}
			assignments, err := page.ParseAssignments(opts.sets)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			renderer, err := lookupRenderer(opts.format)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			files := []string{args[0]}
			if cfg.Lists != "" && cfg.StoreURL == "" {
				files = append(files, cfg.Lists)
			}

			wopts := watch.DefaultOptions()
			wopts.Files = files
			wopts.Debounce = debounce
			wopts.Logger = logger
			wopts.Out = cmd.ErrOrStderr()

			return watch.Run(ctx, wopts, func(ctx context.Context) (watch.Result, error) {
				// Sources are reloaded on every run so edits take effect.
				src, err := loadSource(cfg, args)
				if err != nil {
					return watch.Result{}, err
				}
				out, snap, err := renderOnce(ctx, cfg, logger, src, renderer, assignments, opts)
				if err != nil {
					return watch.Result{}, err
				}
				if err := writeOutput(cmd, opts.output, out); err != nil {
					return watch.Result{}, err
				}
				return watch.Result{Widgets: len(snap.Widgets), Bytes: len(out), URL: snap.URL}, nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "html", "output format: html, json, text")
	f.StringVarP(&opts.output, "output", "o", "", "file to write on every change")
	f.StringVar(&opts.url, "url", "", "open the page at this URL, query string included")
	f.StringArrayVar(&opts.sets, "set", nil, "set a widget value as id=value (repeatable)")
	f.BoolVar(&opts.fragment, "fragment", false, "omit the HTML document shell")
	f.DurationVar(&debounce, "debounce", 300*time.Millisecond, "quiet period before re-rendering")
	return cmd
}
