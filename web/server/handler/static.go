package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.hackfix.me/modelvault/vault"
	"go.hackfix.me/modelvault/web/server/response"
	"go.hackfix.me/modelvault/web/server/types"
)

// Static writes the contents of the file node.
func (h *Handler) Static(_ context.Context, w *response.Writer, node *vault.Node) error {
	f, err := h.vault.Open(node)
	if err != nil {
		return types.NewNotFoundError(http.StatusText(http.StatusNotFound))
	}
	defer f.Close()

	hdr := http.Header{}
	hdr.Set("Content-Type", contentType(node.Name))
	hdr.Set("Content-Length", strconv.FormatInt(node.Size, 10))
	if err = w.WriteHeader(http.StatusOK, hdr); err != nil {
		return err
	}

	buf := h.getBuffer()
	defer h.putBuffer(buf)

	// Wrap both sides so that io.CopyBuffer doesn't bypass the buffer.
	n, err := io.CopyBuffer(struct{ io.Writer }{w}, struct{ io.Reader }{f}, *buf)
	if err != nil {
		return fmt.Errorf("failed sending file '%s': %w", node.RelPath, err)
	}
	if n != node.Size {
		return fmt.Errorf("short copy of file '%s': sent %d of %d bytes", node.RelPath, n, node.Size)
	}

	return nil
}
