package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-filterpack/internal/config"
	"github.com/goliatone/go-filterpack/internal/logging"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/renderers/tui"
)

// newRunCommand builds the interactive command. driver overrides the
// terminal prompts in tests.
func newRunCommand(driver ...tui.PromptDriver) *cobra.Command {
	var (
		output string
		url    string
		target string
	)

	cmd := &cobra.Command{
		Use:   "run [page.yaml]",
		Short: "Change a page's filters interactively",
		Long: `Open a page in the terminal. Pick a filter, change its value, and see
the settled page after every change. Choose Done to print the final
state as json, the final URL (query), or a pretty summary.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			format := tui.OutputFormat(output)
			switch format {
			case tui.OutputFormatJSON, tui.OutputFormatQuery, tui.OutputFormatPrettyText:
			default:
				return usageError("invalid --output %q: must be one of json, query, pretty", output)
			}

			src, err := loadSource(cfg, args)
			if err != nil {
				return err
			}
			var extra []page.Option
			if url != "" {
				extra = append(extra, page.WithURL(url))
			}
			p, err := src.open(ctx, cfg, logging.FromContext(ctx), extra...)
			if err != nil {
				return err
			}
			defer p.Dispose()

			opts := []tui.Option{
				tui.WithOutputFormat(format),
				tui.WithTheme(tui.Theme{ErrorPrefix: "! "}),
			}
			if len(driver) > 0 && driver[0] != nil {
				opts = append(opts, tui.WithPromptDriver(driver[0]))
			} else {
				opts = append(opts, tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())))
			}

			out, err := tui.NewSession(opts...).Run(ctx, p)
			if err != nil {
				if errors.Is(err, tui.ErrAborted) {
					return &ExitError{Code: 130, Err: err}
				}
				return fmt.Errorf("interactive session: %w", err)
			}
			return writeOutput(cmd, target, out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&output, "output", string(tui.OutputFormatJSON), "final output: json, query, pretty")
	f.StringVar(&url, "url", "", "open the page at this URL, query string included")
	f.StringVarP(&target, "out-file", "o", "", "write the final output to a file instead of stdout")
	return cmd
}
