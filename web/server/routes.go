package server

import (
	"log/slog"
	"net/http"

	"go.hackfix.me/modelvault/web/server/handler"
	"go.hackfix.me/modelvault/web/server/middleware"
	"go.hackfix.me/modelvault/web/server/router"
)

// SetupRoutes configures the server routes. Rules are matched in order, and
// every request is logged.
func SetupRoutes(h *handler.Handler, logger *slog.Logger) router.Handler {
	r := router.New()

	r.Handle(router.Prefix(http.MethodGet, "/zip/"), router.HandlerFunc(h.Zip))
	r.Handle(router.Exact(http.MethodGet, "/favicon.ico"), router.HandlerFunc(router.NotFound))
	r.Handle(router.Exact(http.MethodPost, "/zip-selected"), router.HandlerFunc(h.ZipSelected))
	r.Handle(router.Prefix(http.MethodGet, "/"), router.HandlerFunc(h.Browse))

	return middleware.Chain(r, middleware.Logger(logger))
}

// SetupNotFound returns the handler for requests whose path can't be decoded.
func SetupNotFound(logger *slog.Logger) router.Handler {
	return middleware.Chain(router.HandlerFunc(router.NotFound), middleware.Logger(logger))
}
