package middleware

import (
	"go.hackfix.me/modelvault/web/server/router"
)

// Middleware is a function that wraps a router.Handler to provide additional
// functionality such as logging. It takes a handler and returns a new handler.
type Middleware func(router.Handler) router.Handler

// Chain wraps h with the given middlewares. The first middleware is the
// outermost one, so execution flows from left to right.
func Chain(h router.Handler, middlewares ...Middleware) router.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
