package liststore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// GuardFunc may reject a store request before it is served.
type GuardFunc func(r *http.Request) error

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	Directory Directory
	Guard     GuardFunc
	Logger    *slog.Logger
}

// HandlerOptionFn mutates HandlerOptions.
type HandlerOptionFn func(*HandlerOptions)

// WithDirectory serves GET /people from dir.
func WithDirectory(dir Directory) HandlerOptionFn {
	return func(o *HandlerOptions) {
		if o == nil {
			return
		}
		o.Directory = dir
	}
}

// WithGuard installs a request guard.
func WithGuard(guard GuardFunc) HandlerOptionFn {
	return func(o *HandlerOptions) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithHandlerLogger overrides the handler logger.
func WithHandlerLogger(logger *slog.Logger) HandlerOptionFn {
	return func(o *HandlerOptions) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// NewHandler exposes store over HTTP:
//
//	GET  /lists/{id}       list metadata
//	POST /lists/{id}/rows  {"viewXml", "viewFields"} -> {"Row": [...]}
//	GET  /people?email=    directory entry
func NewHandler(store Store, fns ...HandlerOptionFn) http.Handler {
	var opts HandlerOptions
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Directory == nil {
		if dir, ok := store.(Directory); ok {
			opts.Directory = dir
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		meta, err := store.ListMetadata(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, opts.Logger, err)
			return
		}
		writeJSON(w, meta)
	})
	mux.HandleFunc("POST /lists/{id}/rows", func(w http.ResponseWriter, r *http.Request) {
		var req rowsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, opts.Logger, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("liststore: decode rows request: %w", err)})
			return
		}
		rows, err := store.Rows(r.Context(), Query{ListID: r.PathValue("id"), ViewFields: req.ViewFields})
		if err != nil {
			writeError(w, opts.Logger, err)
			return
		}
		writeJSON(w, rowsResponse{Row: rows})
	})
	mux.HandleFunc("GET /people", func(w http.ResponseWriter, r *http.Request) {
		if opts.Directory == nil {
			http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
			return
		}
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			http.Error(w, "email is required", http.StatusBadRequest)
			return
		}
		person, err := opts.Directory.Person(r.Context(), email)
		if err != nil {
			writeError(w, opts.Logger, err)
			return
		}
		writeJSON(w, person)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				code := http.StatusForbidden
				var status StatusError
				if errors.As(err, &status) {
					code = status.StatusCode()
				}
				http.Error(w, http.StatusText(code), code)
				return
			}
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := http.StatusInternalServerError
	var status StatusError
	switch {
	case errors.As(err, &status):
		code = status.StatusCode()
	case IsNotFound(err):
		code = http.StatusNotFound
	}
	if code >= http.StatusInternalServerError {
		logger.Error("store request failed", slog.Any("error", err))
	}
	http.Error(w, http.StatusText(code), code)
}
