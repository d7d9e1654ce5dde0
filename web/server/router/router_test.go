package router

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/modelvault/web/server/request"
	"go.hackfix.me/modelvault/web/server/response"
	"go.hackfix.me/modelvault/web/server/types"
)

func TestRouterServe(t *testing.T) {
	t.Parallel()

	// Each handler fails with its own name, to tell which one ran.
	named := func(name string) Handler {
		return HandlerFunc(func(context.Context, *response.Writer, *request.Request) error {
			return errors.New(name)
		})
	}

	r := New()
	r.Handle(Prefix(http.MethodGet, "/zip/"), named("zip"))
	r.Handle(Exact(http.MethodGet, "/favicon.ico"), named("favicon"))
	r.Handle(Exact(http.MethodPost, "/zip-selected"), named("zip-selected"))
	r.Handle(Prefix(http.MethodGet, "/"), named("browse"))

	tests := []struct {
		name       string
		line       string
		expHandler string
	}{
		{name: "ok/zip", line: "GET /zip/Ships", expHandler: "zip"},
		{name: "ok/zip_root", line: "GET /zip/", expHandler: "zip"},
		{name: "ok/zip_without_slash_is_browse", line: "GET /zip", expHandler: "browse"},
		{name: "ok/favicon", line: "GET /favicon.ico", expHandler: "favicon"},
		{name: "ok/zip_selected", line: "POST /zip-selected", expHandler: "zip-selected"},
		{name: "ok/browse_root", line: "GET /", expHandler: "browse"},
		{name: "ok/browse_file", line: "GET /Ships/galleon.stl", expHandler: "browse"},
		{name: "ok/get_zip_selected_is_browse", line: "GET /zip-selected", expHandler: "browse"},
		{name: "ok/post_elsewhere", line: "POST /Ships"},
		{name: "ok/head", line: "HEAD /"},
		{name: "ok/absolute_uri", line: "GET http://host/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := request.ParseLine(tt.line)
			require.NoError(t, err)

			err = r.Serve(context.Background(), response.NewWriter(&bytes.Buffer{}, 64), req)
			require.Error(t, err)

			var terr *types.Error
			if tt.expHandler == "" {
				require.True(t, errors.As(err, &terr))
				assert.Equal(t, http.StatusNotFound, terr.StatusCode)
				return
			}
			assert.False(t, errors.As(err, &terr))
			assert.EqualError(t, err, tt.expHandler)
		})
	}
}

func TestRouterServeEmpty(t *testing.T) {
	t.Parallel()

	r := New()
	req, err := request.ParseLine("DELETE /x")
	require.NoError(t, err)

	err = r.Serve(context.Background(), response.NewWriter(&bytes.Buffer{}, 64), req)
	var terr *types.Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
}
