// Package server serves a page over HTTP. Every request gets a fresh page
// session seeded from the request's query string, settled, and rendered.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-filterpack/pkg/listinfo"
	"github.com/goliatone/go-filterpack/pkg/liststore"
	"github.com/goliatone/go-filterpack/pkg/page"
	"github.com/goliatone/go-filterpack/pkg/render"
)

const defaultSettleTimeout = 5 * time.Second

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Options configures a Server.
type Options struct {
	Store         liststore.Store
	Renderer      render.Renderer
	Logger        *slog.Logger
	CurrentUser   string
	SettleTimeout time.Duration
	PageOptions   []page.Option
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// WithStore sets the list store pages read from. It is also mounted under
// /store/.
func WithStore(store liststore.Store) OptionFn {
	return func(o *Options) { o.Store = store }
}

// WithRenderer sets the renderer for GET /.
func WithRenderer(renderer render.Renderer) OptionFn {
	return func(o *Options) { o.Renderer = renderer }
}

// WithLogger overrides the server logger.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) { o.Logger = logger }
}

// WithCurrentUser sets the email people widgets default to.
func WithCurrentUser(email string) OptionFn {
	return func(o *Options) { o.CurrentUser = strings.TrimSpace(email) }
}

// WithSettleTimeout bounds how long a request waits for its page to settle.
func WithSettleTimeout(d time.Duration) OptionFn {
	return func(o *Options) { o.SettleTimeout = d }
}

// WithPageOptions appends options applied to every page session.
func WithPageOptions(opts ...page.Option) OptionFn {
	return func(o *Options) { o.PageOptions = append(o.PageOptions, opts...) }
}

// Server answers page requests for one page configuration.
type Server struct {
	cfg    page.Config
	opts   Options
	lists  *listinfo.Cache
	logger *slog.Logger
	mux    *http.ServeMux
}

// New builds the server and its routes:
//
//	GET /                  rendered page
//	GET /api/snapshot      JSON snapshot
//	GET /api/lists/{id}    resolved list field information
//	    /store/...         the list store protocol
func New(cfg page.Config, fns ...OptionFn) (*Server, error) {
	opts := Options{SettleTimeout: defaultSettleTimeout}
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Renderer == nil {
		return nil, errors.New("server: renderer is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = defaultSettleTimeout
	}

	s := &Server{
		cfg:    cfg,
		opts:   opts,
		logger: opts.Logger.With(slog.String("component", "server")),
		mux:    http.NewServeMux(),
	}
	if opts.Store != nil {
		s.lists = listinfo.NewCache(opts.Store, listinfo.WithLogger(s.logger))
		s.mux.Handle("/store/", http.StripPrefix("/store", liststore.NewHandler(opts.Store, liststore.WithHandlerLogger(s.logger))))
	}
	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("GET /api/lists/{id}", s.handleList)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// RegisterRoutes mounts the server under basePath on mux and returns the
// registered pattern.
func (s *Server) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("server: missing mux")
	}
	base := mountPath(basePath)
	if base == "/" {
		mux.Handle("/", s)
		return "/", nil
	}
	pattern := base + "/"
	mux.Handle(pattern, http.StripPrefix(base, s))
	return pattern, nil
}

func mountPath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" || basePath == "/" {
		return "/"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimRight(basePath, "/")
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.opts.Renderer.Render(r.Context(), snap, render.RenderOptions{BasePath: baseURL(r)})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", s.opts.Renderer.ContentType())
	_, _ = w.Write(out)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.lists == nil {
		http.Error(w, "no list store configured", http.StatusNotImplemented)
		return
	}
	info, err := s.lists.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, liststore.ErrListNotFound) || liststore.IsNotFound(err) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, info)
}

// snapshot runs one page session for r: the page opens at the configured
// path with the request's query string.
func (s *Server) snapshot(r *http.Request) (page.Snapshot, error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.SettleTimeout)
	defer cancel()

	opts := []page.Option{
		page.WithLogger(s.logger),
		page.WithURL(s.requestURL(r)),
	}
	if s.opts.Store != nil {
		opts = append(opts, page.WithStore(s.opts.Store), page.WithListCache(s.lists))
	}
	if s.opts.CurrentUser != "" {
		opts = append(opts, page.WithCurrentUser(s.opts.CurrentUser))
	}
	opts = append(opts, s.opts.PageOptions...)

	p, err := page.New(s.cfg, opts...)
	if err != nil {
		return page.Snapshot{}, err
	}
	defer p.Dispose()

	if err := p.Init(ctx); err != nil {
		return page.Snapshot{}, err
	}
	if err := p.Settle(ctx); err != nil {
		return page.Snapshot{}, fmt.Errorf("server: settle page: %w", err)
	}
	return p.Snapshot(), nil
}

func (s *Server) requestURL(r *http.Request) string {
	path := s.cfg.URL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		path = "/"
	}
	if r.URL.RawQuery == "" {
		return path
	}
	return path + "?" + r.URL.RawQuery
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		code = http.StatusGatewayTimeout
	}
	s.logger.Error("page request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	http.Error(w, http.StatusText(code), code)
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if r.Host == "" {
		return ""
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
