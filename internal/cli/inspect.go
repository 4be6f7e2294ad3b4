package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-filterpack/internal/config"
	"github.com/goliatone/go-filterpack/internal/logging"
	"github.com/goliatone/go-filterpack/pkg/listinfo"
	"github.com/goliatone/go-filterpack/pkg/page"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show list field information or the sources a page publishes",
	}
	cmd.AddCommand(newInspectListCommand(), newInspectPageCommand())
	return cmd
}

func newInspectListCommand() *cobra.Command {
	var (
		jsonOutput bool
		pagePath   string
	)

	cmd := &cobra.Command{
		Use:   "list <id>",
		Short: "Show the field paths and views resolved for a list",
		Example: `  filterpack inspect list offices
  filterpack inspect list offices --lists lists.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			var pageArgs []string
			if pagePath != "" {
				pageArgs = []string{pagePath}
			}
			src, err := loadSource(cfg, pageArgs)
			if err != nil {
				return err
			}
			if src.store == nil {
				return usageError("inspect list needs a list store: pass --lists or --store-url")
			}

			cache := listinfo.NewCache(src.store, listinfo.WithLogger(logging.FromContext(ctx)))
			info, err := cache.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			return printListInfo(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&pagePath, "page", "", "page whose store settings to use (default: the demo page)")
	return cmd
}

func newInspectPageCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "page [page.yaml]",
		Short: "Show the widgets of a page and the sources and properties they publish",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			src, err := loadSource(cfg, args)
			if err != nil {
				return err
			}
			p, err := src.open(ctx, cfg, logging.FromContext(ctx))
			if err != nil {
				return err
			}
			defer p.Dispose()

			snap := p.Snapshot()
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			return printPage(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func printListInfo(w io.Writer, info *listinfo.ListInfo) error {
	fmt.Fprintf(w, "List: %s (%s)\n\nFields:\n", info.ID, info.Title)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, path := range info.Fields.Paths() {
		fmt.Fprintf(tw, "  %s\t%s\n", path, info.Fields.Label(path))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nViews:")
	for _, view := range info.Views {
		fmt.Fprintf(w, "  %s (%s)\n", view.ID, view.Title)
		fmt.Fprintf(w, "    fetch:   %s\n", strings.Join(view.ViewFields, ", "))
		fmt.Fprintf(w, "    default: %s\n", info.DefaultTextField(view))
		for _, choice := range info.Choices(view) {
			fmt.Fprintf(w, "    - %s = %s\n", choice.Path, choice.Label)
		}
	}
	return nil
}

func printPage(w io.Writer, snap page.Snapshot) error {
	fmt.Fprintf(w, "Page: %s\nURL: %s\n\nWidgets:\n", snap.Title, snap.URL)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, view := range snap.Widgets {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", view.ID, view.Kind, view.State, view.Display)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSources:")
	for _, source := range snap.Sources {
		fmt.Fprintf(w, "  %s (%s)\n", source.ID, source.Title)
		for _, prop := range source.Properties {
			fmt.Fprintf(w, "    - %s: %s\n", prop.ID, prop.Title)
		}
	}
	return nil
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
