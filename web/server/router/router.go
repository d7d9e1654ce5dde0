// Package router dispatches parsed requests to handlers using an ordered list
// of rules. The first rule that matches a request wins.
package router

import (
	"context"
	"net/http"
	"strings"

	"go.hackfix.me/modelvault/web/server/request"
	"go.hackfix.me/modelvault/web/server/response"
	"go.hackfix.me/modelvault/web/server/types"
)

// Handler responds to a single request.
type Handler interface {
	Serve(ctx context.Context, w *response.Writer, req *request.Request) error
}

// HandlerFunc is an adapter to use ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, w *response.Writer, req *request.Request) error

// Serve calls f(ctx, w, req).
func (f HandlerFunc) Serve(ctx context.Context, w *response.Writer, req *request.Request) error {
	return f(ctx, w, req)
}

// Matcher reports whether a rule applies to a request.
type Matcher func(req *request.Request) bool

// Exact matches requests with the given method and decoded path.
func Exact(method, path string) Matcher {
	return func(req *request.Request) bool {
		return req.Method == method && req.DecodedPath == path
	}
}

// Prefix matches requests with the given method whose decoded path starts with
// prefix.
func Prefix(method, prefix string) Matcher {
	return func(req *request.Request) bool {
		return req.Method == method && strings.HasPrefix(req.DecodedPath, prefix)
	}
}

type rule struct {
	match   Matcher
	handler Handler
}

// Router is an ordered dispatch table. Requests that match no rule get a 404
// error. It's not safe to add rules while serving requests.
type Router struct {
	rules []rule
}

// New returns an empty Router.
func New() *Router {
	return &Router{}
}

// Handle appends a rule. Rules are evaluated in the order they were added.
func (r *Router) Handle(match Matcher, h Handler) {
	r.rules = append(r.rules, rule{match: match, handler: h})
}

// Serve implements Handler by dispatching req to the first matching rule.
func (r *Router) Serve(ctx context.Context, w *response.Writer, req *request.Request) error {
	for _, rl := range r.rules {
		if rl.match(req) {
			return rl.handler.Serve(ctx, w, req)
		}
	}
	return NotFound(ctx, w, req)
}

// NotFound is a handler that always returns a 404 error.
func NotFound(context.Context, *response.Writer, *request.Request) error {
	return types.NewNotFoundError(http.StatusText(http.StatusNotFound))
}
