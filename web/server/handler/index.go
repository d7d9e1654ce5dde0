package handler

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"go.hackfix.me/modelvault/content"
	"go.hackfix.me/modelvault/vault"
	"go.hackfix.me/modelvault/web/server/middleware"
	"go.hackfix.me/modelvault/web/server/response"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// Crumb is a single breadcrumb navigation link.
type Crumb struct {
	Name string
	Href string
}

type folderEntry struct {
	Name string
	Href string
}

type fileEntry struct {
	Name         string
	Href         string
	Size         string
	ThumbnailURL string
	SourceURL    string
}

type indexPage struct {
	Title   string
	Crumbs  []Crumb
	UpHref  string
	ZipHref string
	Folders []folderEntry
	Files   []fileEntry
}

// Index writes an HTML listing of the directory node. Each file is joined with
// the repository metadata of the same name in the directory's folder.
func (h *Handler) Index(ctx context.Context, w *response.Writer, dir *vault.Node) error {
	children, err := h.vault.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed listing directory '%s': %w", dir.RelPath, err)
	}

	meta := h.folderMetadata(ctx, dir)

	page := indexPage{
		Title:  dir.Name,
		Crumbs: Breadcrumbs(dir.RelPath),
	}
	if !dir.IsRoot() {
		page.Title = dir.RelPath
		page.UpHref = escapePath(path.Dir(dir.RelPath))
		page.ZipHref = "/zip" + escapePath(dir.RelPath)
	}

	for _, child := range children {
		href := escapePath(child.RelPath)
		if child.IsDir {
			page.Folders = append(page.Folders, folderEntry{Name: child.Name, Href: href})
			continue
		}
		m := meta[child.Name]
		page.Files = append(page.Files, fileEntry{
			Name:         child.Name,
			Href:         href,
			Size:         formatMB(child.Size),
			ThumbnailURL: m.ThumbnailURL,
			SourceURL:    m.SourceURL,
		})
	}

	var buf bytes.Buffer
	if err = indexTmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("failed rendering index of '%s': %w", dir.RelPath, err)
	}

	hdr := http.Header{}
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	hdr.Set("Content-Length", strconv.Itoa(buf.Len()))
	if err = w.WriteHeader(http.StatusOK, hdr); err != nil {
		return err
	}
	if _, err = buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed sending index of '%s': %w", dir.RelPath, err)
	}

	return nil
}

// folderMetadata loads the repository metadata of the directory's files. The
// listing is still useful without it, so failures are only logged.
func (h *Handler) folderMetadata(ctx context.Context, dir *vault.Node) map[string]content.Metadata {
	if h.repo == nil {
		return nil
	}

	key := h.keyMode.FolderKey(dir)
	meta, err := h.repo.ListModelsInFolder(ctx, key)
	if err != nil {
		middleware.LoggerFrom(ctx, h.logger).Warn(
			"failed loading folder metadata", "folder", key, "error", err.Error())
		return nil
	}

	return content.ByFileName(meta)
}

// Breadcrumbs returns the navigation trail from the vault root to the
// directory at rel. The first crumb always links to the root.
func Breadcrumbs(rel string) []Crumb {
	crumbs := []Crumb{{Name: "Home", Href: "/"}}
	if rel == "" {
		return crumbs
	}

	var href strings.Builder
	for _, seg := range strings.Split(rel, "/") {
		href.WriteString("/")
		href.WriteString(url.PathEscape(seg))
		crumbs = append(crumbs, Crumb{Name: seg, Href: href.String()})
	}

	return crumbs
}

// escapePath returns the absolute URL path of the relative vault path rel,
// with each segment percent-escaped.
func escapePath(rel string) string {
	if rel == "" || rel == "." {
		return "/"
	}
	segs := strings.Split(rel, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return "/" + strings.Join(segs, "/")
}

func formatMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
}
