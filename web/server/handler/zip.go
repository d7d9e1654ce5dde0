package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/zip"

	"go.hackfix.me/modelvault/vault"
	"go.hackfix.me/modelvault/web/server/request"
	"go.hackfix.me/modelvault/web/server/response"
)

const zipRoutePrefix = "/zip/"

var dispositionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Zip serves GET /zip/<relPath> by streaming a ZIP archive of the node at
// relPath. The archive size isn't known in advance, so no Content-Length is
// sent, and the end of the response is signaled by closing the connection.
func (h *Handler) Zip(ctx context.Context, w *response.Writer, req *request.Request) error {
	node, err := h.resolve(ctx, strings.TrimPrefix(req.DecodedPath, zipRoutePrefix))
	if err != nil {
		return err
	}

	hdr := http.Header{}
	hdr.Set("Content-Type", "application/zip")
	hdr.Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s.zip"`, dispositionEscaper.Replace(node.Name)))
	if err = w.WriteHeader(http.StatusOK, hdr); err != nil {
		return err
	}

	// On failure the archive writer is deliberately not closed, so that the
	// client doesn't receive a valid but incomplete archive.
	zw := zip.NewWriter(w)
	if !node.IsDir {
		if err = h.addZipFile(zw, node, node.Name); err != nil {
			return err
		}
		return closeZip(zw, node)
	}

	err = h.vault.Walk(node, func(n *vault.Node) error {
		name := strings.TrimPrefix(n.RelPath, node.RelPath)
		name = strings.TrimPrefix(name, "/")
		if n.IsDir {
			_, err := zw.CreateHeader(&zip.FileHeader{
				Name:     name + "/",
				Method:   zip.Store,
				Modified: n.ModTime,
			})
			if err != nil {
				return fmt.Errorf("failed adding directory '%s' to archive: %w", n.RelPath, err)
			}
			return nil
		}
		return h.addZipFile(zw, n, name)
	})
	if err != nil {
		return err
	}

	return closeZip(zw, node)
}

func (h *Handler) addZipFile(zw *zip.Writer, n *vault.Node, name string) error {
	f, err := h.vault.Open(n)
	if err != nil {
		return err
	}
	defer f.Close()

	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: n.ModTime,
	})
	if err != nil {
		return fmt.Errorf("failed adding file '%s' to archive: %w", n.RelPath, err)
	}

	buf := h.getBuffer()
	defer h.putBuffer(buf)

	written, err := io.CopyBuffer(fw, struct{ io.Reader }{f}, *buf)
	if err != nil {
		return fmt.Errorf("failed archiving file '%s': %w", n.RelPath, err)
	}
	if written != n.Size {
		return fmt.Errorf("short read of file '%s': archived %d of %d bytes", n.RelPath, written, n.Size)
	}

	return nil
}

func closeZip(zw *zip.Writer, n *vault.Node) error {
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed finishing archive of '%s': %w", n.RelPath, err)
	}
	return nil
}
