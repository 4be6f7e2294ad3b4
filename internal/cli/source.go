package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-filterpack/internal/config"
	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/page"
)

// pageSource is a page configuration plus the list store it reads from.
type pageSource struct {
	cfg   page.Config
	store liststore.Store
	// files are the on-disk inputs, watched by the watch command.
	files []string
}

// loadSource reads the page named by args, or the bundled demo when args
// is empty. The store comes from --store-url, then --lists, then the demo
// fixture when the demo page is used.
func loadSource(cfg *config.Config, args []string) (*pageSource, error) {
	src := &pageSource{}
	demo := len(args) == 0
	if demo {
		pcfg, err := page.LoadFS(page.DemoFS(), page.DemoPage)
		if err != nil {
			return nil, err
		}
		src.cfg = pcfg
	} else {
		pcfg, err := page.Load(args[0])
		if err != nil {
			return nil, err
		}
		src.cfg = pcfg
		src.files = append(src.files, args[0])
	}

	switch {
	case cfg.StoreURL != "":
		store, err := liststore.NewHTTPStore(cfg.StoreURL)
		if err != nil {
			return nil, err
		}
		src.store = store
	case cfg.Lists != "":
		store, err := liststore.LoadFixture(cfg.Lists)
		if err != nil {
			return nil, err
		}
		src.store = store
		src.files = append(src.files, cfg.Lists)
	case demo:
		store, err := liststore.LoadFixtureFS(page.DemoFS(), page.DemoLists)
		if err != nil {
			return nil, err
		}
		src.store = store
	}
	return src, nil
}

// open builds, initializes and settles a page session. Callers dispose it.
func (s *pageSource) open(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...page.Option) (*page.Page, error) {
	opts := []page.Option{page.WithLogger(logger)}
	if s.store != nil {
		opts = append(opts, page.WithStore(s.store))
	}
	if cfg.CurrentUser != "" {
		opts = append(opts, page.WithCurrentUser(cfg.CurrentUser))
	}
	opts = append(opts, extra...)

	p, err := page.New(s.cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.Init(ctx); err != nil {
		p.Dispose()
		return nil, err
	}
	if err := p.Settle(ctx); err != nil {
		p.Dispose()
		return nil, fmt.Errorf("settling page: %w", err)
	}
	return p, nil
}
