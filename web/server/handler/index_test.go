package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/modelvault/content"
)

func TestBreadcrumbs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rel  string
		exp  []Crumb
	}{
		{name: "ok/root", rel: "", exp: []Crumb{{"Home", "/"}}},
		{name: "ok/nested", rel: "A/B/C", exp: []Crumb{
			{"Home", "/"}, {"A", "/A"}, {"B", "/A/B"}, {"C", "/A/B/C"},
		}},
		{name: "ok/escaped", rel: "My Ships/50%/#1", exp: []Crumb{
			{"Home", "/"}, {"My Ships", "/My%20Ships"},
			{"50%", "/My%20Ships/50%25"}, {"#1", "/My%20Ships/50%25/%231"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, Breadcrumbs(tt.rel))
		})
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	v := newTestVault(t, map[string]string{
		"Ships/galleon.stl":      strings.Repeat("x", 3<<19),
		"Ships/sloop.stl":        "sloop",
		"Ships/Pirate/flag.obj":  "flag",
		"Ships/Navy/frigate.stl": "frigate",
		"top.stl":                "top",
	}, "Empty")

	t.Run("ok/root", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{}
		h := newTestHandler(v, repo)
		resp, body, err := serve(t, h.Browse, "GET /")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.Equal(t, int64(len(body)), resp.ContentLength)

		html := string(body)
		assert.Contains(t, html, `<a href="/">Home</a></nav>`)
		assert.NotContains(t, html, "Download as ZIP")
		assert.NotContains(t, html, `class="up"`)
		assert.Less(t, strings.Index(html, `href="/Empty"`), strings.Index(html, `href="/Ships"`))
		assert.Contains(t, html, `href="/top.stl"`)
		assert.Equal(t, []string{"vault"}, repo.keys)
	})

	t.Run("ok/nested_with_metadata", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{meta: map[string][]content.Metadata{
			"Ships": {
				{FileName: "galleon.stl", ThumbnailURL: "https://img.example/galleon.png",
					SourceURL: "https://models.example/galleon"},
				{FileName: "missing.stl", ThumbnailURL: "https://img.example/missing.png"},
			},
		}}
		h := newTestHandler(v, repo)
		_, body, err := serve(t, h.Browse, "GET /Ships")
		require.NoError(t, err)

		html := string(body)
		assert.Contains(t, html,
			`<a href="/">Home</a><span class="sep">›</span><a href="/Ships">Ships</a></nav>`)
		assert.Contains(t, html, `<a class="up" href="/">`)
		assert.Contains(t, html, `<a class="zip" href="/zip/Ships">Download as ZIP</a>`)
		assert.Contains(t, html, `href="/Ships/Navy"`)
		assert.Contains(t, html, `href="/Ships/Pirate"`)
		assert.Contains(t, html, `<img src="https://img.example/galleon.png"`)
		assert.Contains(t, html, `href="https://models.example/galleon" target="_blank"`)
		assert.Contains(t, html, "1.50 MB")
		assert.Contains(t, html, "0.00 MB")
		assert.NotContains(t, html, "missing.png")
		// sloop has no metadata
		assert.Equal(t, 1, strings.Count(html, "No preview"))
		assert.Equal(t, 1, strings.Count(html, ">Source</a>"))
		assert.Less(t, strings.Index(html, "galleon.stl"), strings.Index(html, "sloop.stl"))
		assert.NotContains(t, html, "This folder is empty.")
		assert.Equal(t, []string{"Ships"}, repo.keys)
	})

	t.Run("ok/path_keys", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{}
		h := newTestHandler(v, repo, WithKeyMode(content.KeyPath))
		_, body, err := serve(t, h.Browse, "GET /Ships/Pirate/")
		require.NoError(t, err)
		assert.Contains(t, string(body), `<a class="up" href="/Ships">`)
		assert.Equal(t, []string{"Ships/Pirate"}, repo.keys)
	})

	t.Run("ok/empty", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(v, nil)
		_, body, err := serve(t, h.Browse, "GET /Empty")
		require.NoError(t, err)

		html := string(body)
		assert.Contains(t, html, "This folder is empty.")
		assert.NotContains(t, html, "<h2>Folders</h2>")
		assert.NotContains(t, html, "<h2>Files</h2>")
	})

	t.Run("ok/repository_error", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{err: errors.New("database is locked")}
		h := newTestHandler(v, repo)
		resp, body, err := serve(t, h.Browse, "GET /Ships")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "galleon.stl")
		assert.Equal(t, 2, strings.Count(string(body), "No preview"))
	})
}
