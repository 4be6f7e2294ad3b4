package cli

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-filterpack/internal/config"
	"github.com/goliatone/go-filterpack/internal/logging"
	"github.com/goliatone/go-filterpack/pkg/server"
)

// newServeCommand builds the serve command. ready, when given, receives
// the bound address once the listener is open.
func newServeCommand(ready ...func(net.Addr)) *cobra.Command {
	var (
		format  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve [page.yaml]",
		Short: "Serve a page over HTTP",
		Long: `Serve a page over HTTP. Every request opens a fresh page session seeded
from the request's query string, so filter selections are shareable
links.

Routes:
  GET /                 the rendered page
  GET /api/snapshot     the settled page as JSON
  GET /api/lists/{id}   resolved list field information
      /store/...        the list store protocol`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := logging.FromContext(ctx)

			renderer, err := lookupRenderer(format)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			src, err := loadSource(cfg, args)
			if err != nil {
				return err
			}

			srv, err := server.New(src.cfg,
				server.WithStore(src.store),
				server.WithRenderer(renderer),
				server.WithLogger(logger),
				server.WithCurrentUser(cfg.CurrentUser),
				server.WithSettleTimeout(timeout),
			)
			if err != nil {
				return err
			}

			onReady := func(addr net.Addr) {
				fmt.Fprintf(cmd.ErrOrStderr(), "serving %q on http://%s\n", src.cfg.Title, addr)
				for _, fn := range ready {
					if fn != nil {
						fn(addr)
					}
				}
			}
			return server.ListenAndServe(ctx, cfg.Addr, srv, logger, onReady)
		},
	}

	f := cmd.Flags()
	f.String("addr", config.DefaultAddr, "listen address")
	f.StringVarP(&format, "format", "f", "html", "renderer for GET /: html, json, text")
	f.DurationVar(&timeout, "settle-timeout", 5*time.Second, "how long a request waits for its page to settle")
	return cmd
}
