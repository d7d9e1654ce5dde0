package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	aerrors "go.hackfix.me/modelvault/app/errors"
	"go.hackfix.me/modelvault/content"
	"go.hackfix.me/modelvault/vault"
	"go.hackfix.me/modelvault/web/server/middleware"
	"go.hackfix.me/modelvault/web/server/request"
	"go.hackfix.me/modelvault/web/server/response"
	"go.hackfix.me/modelvault/web/server/types"
)

// DefaultCopyBufferSize is the size of the buffer used to copy file contents
// to the connection.
const DefaultCopyBufferSize = 32 << 10

// Handler serves the contents of a vault.
type Handler struct {
	vault   *vault.Vault
	repo    content.Repository
	keyMode content.KeyMode
	logger  *slog.Logger
	bufSize int
	bufPool sync.Pool
}

// Option is a function that allows configuring a Handler.
type Option func(*Handler)

// WithKeyMode sets how directories map to repository folder keys.
func WithKeyMode(mode content.KeyMode) Option {
	return func(h *Handler) {
		h.keyMode = mode
	}
}

// WithCopyBufferSize sets the size of the buffer used to copy file contents.
// Sizes lower than 1 are ignored.
func WithCopyBufferSize(size int) Option {
	return func(h *Handler) {
		if size > 0 {
			h.bufSize = size
		}
	}
}

// WithLogger sets the logger used when the request context doesn't carry one.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New returns a Handler serving the files in v, enriched with metadata from
// repo. repo may be nil, in which case listings carry no metadata.
func New(v *vault.Vault, repo content.Repository, opts ...Option) *Handler {
	h := &Handler{
		vault:   v,
		repo:    repo,
		keyMode: content.KeyLeaf,
		logger:  slog.Default(),
		bufSize: DefaultCopyBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.bufPool.New = func() any {
		buf := make([]byte, h.bufSize)
		return &buf
	}

	return h
}

// Browse serves GET /<relPath>: an index page for directories, and the raw
// contents for files.
func (h *Handler) Browse(ctx context.Context, w *response.Writer, req *request.Request) error {
	node, err := h.resolve(ctx, req.DecodedPath)
	if err != nil {
		return err
	}
	if node.IsDir {
		return h.Index(ctx, w, node)
	}
	return h.Static(ctx, w, node)
}

// ZipSelected serves POST /zip-selected. Archiving a selection of files isn't
// supported, so the client is sent back to the vault root.
func (h *Handler) ZipSelected(_ context.Context, w *response.Writer, _ *request.Request) error {
	return response.Redirect(w, "/")
}

// resolve maps a request path to a vault node. Paths that don't exist or lead
// outside of the vault are reported as 404 errors.
func (h *Handler) resolve(ctx context.Context, p string) (*vault.Node, error) {
	node, err := h.vault.Resolve(strings.Trim(p, "/"))
	if err != nil {
		if !errors.Is(err, vault.ErrNotFound) {
			args := append([]any{"request_path", p, "error", err.Error()}, aerrors.Attrs(err)...)
			middleware.LoggerFrom(ctx, h.logger).Warn("rejected path", args...)
		}
		return nil, types.NewNotFoundError(http.StatusText(http.StatusNotFound))
	}

	return node, nil
}

func (h *Handler) getBuffer() *[]byte {
	return h.bufPool.Get().(*[]byte) //nolint:forcetypeassert // Always *[]byte.
}

func (h *Handler) putBuffer(buf *[]byte) {
	h.bufPool.Put(buf)
}
