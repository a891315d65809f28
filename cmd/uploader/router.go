package main

import (
	"net/http"
	"path"
	"time"

	// Packages
	chi "github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	zerolog "github.com/rs/zerolog"
	hlog "github.com/rs/zerolog/hlog"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// router registers handlers under a path prefix on a chi router
type router struct {
	chi.Router
	prefix     string
	middleware []func(http.Handler) http.Handler
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newRouter(prefix string, log zerolog.Logger) *router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	return &router{
		Router: r,
		prefix: types.NormalisePath(prefix),
		middleware: []func(http.Handler) http.Handler{
			hlog.NewHandler(log),
			hlog.RemoteAddrHandler("remote"),
			hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
				hlog.FromRequest(r).Info().
					Str("method", r.Method).
					Stringer("url", r.URL).
					Int("status", status).
					Int("size", size).
					Dur("duration", duration).
					Msg("request")
			}),
		},
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterFunc registers a handler at a path relative to the prefix,
// wrapped in the logging middleware when middleware is true
func (r *router) RegisterFunc(p string, handler http.HandlerFunc, middleware bool, _ *openapi.PathItem) error {
	var h http.Handler = handler
	if middleware {
		for i := len(r.middleware) - 1; i >= 0; i-- {
			h = r.middleware[i](h)
		}
	}
	r.Handle(path.Join(r.prefix, p), h)
	return nil
}
