package request

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		expMethod  string
		expRaw     string
		expDecoded string
		expErr     string
	}{
		{
			name:       "ok/root",
			input:      "GET / HTTP/1.1\r\nHost: example\r\n\r\n",
			expMethod:  "GET",
			expRaw:     "/",
			expDecoded: "/",
		},
		{
			name:       "ok/encoded",
			input:      "GET /Ships/My%20Galleon%2B1.stl HTTP/1.1\r\n",
			expMethod:  "GET",
			expRaw:     "/Ships/My%20Galleon%2B1.stl",
			expDecoded: "/Ships/My Galleon+1.stl",
		},
		{
			name:       "ok/plus_is_literal",
			input:      "GET /a+b.stl HTTP/1.1\r\n",
			expMethod:  "GET",
			expRaw:     "/a+b.stl",
			expDecoded: "/a+b.stl",
		},
		{
			name:       "ok/query_dropped",
			input:      "GET /zip/Ships?x=1 HTTP/1.1\r\n",
			expMethod:  "GET",
			expRaw:     "/zip/Ships?x=1",
			expDecoded: "/zip/Ships",
		},
		{
			name:       "ok/no_version",
			input:      "POST /zip-selected\n",
			expMethod:  "POST",
			expRaw:     "/zip-selected",
			expDecoded: "/zip-selected",
		},
		{
			name:       "ok/unterminated",
			input:      "GET /a.stl",
			expMethod:  "GET",
			expRaw:     "/a.stl",
			expDecoded: "/a.stl",
		},
		{
			name:       "ok/extra_whitespace",
			input:      "  GET   /a.stl   HTTP/1.0  \r\n",
			expMethod:  "GET",
			expRaw:     "/a.stl",
			expDecoded: "/a.stl",
		},
		{
			name:   "err/empty_line",
			input:  "\r\n",
			expErr: "malformed request line",
		},
		{
			name:   "err/one_token",
			input:  "GET\r\n",
			expErr: "malformed request line",
		},
		{
			name:   "err/eof",
			input:  "",
			expErr: "failed reading request line: EOF",
		},
		{
			name:   "err/too_long",
			input:  "GET /" + strings.Repeat("a", MaxLineSize) + " HTTP/1.1\r\n",
			expErr: "malformed request line: request line too long",
		},
		{
			name:      "err/bad_escape",
			input:     "GET /a%zz.stl HTTP/1.1\r\n",
			expMethod: "GET",
			expRaw:    "/a%zz.stl",
			expErr:    "invalid request path '/a%zz.stl'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := bufio.NewReaderSize(strings.NewReader(tt.input), MaxLineSize)
			req, err := Parse(r)

			if tt.expErr != "" {
				assert.ErrorContains(t, err, tt.expErr)
				if tt.expMethod == "" {
					assert.Nil(t, req)
					return
				}
			} else {
				require.NoError(t, err)
			}

			require.NotNil(t, req)
			assert.Equal(t, tt.expMethod, req.Method)
			assert.Equal(t, tt.expRaw, req.RawPath)
			assert.Equal(t, tt.expDecoded, req.DecodedPath)
		})
	}
}

func TestParseLeavesHeadersUnread(t *testing.T) {
	t.Parallel()

	r := bufio.NewReaderSize(strings.NewReader("GET / HTTP/1.1\r\nHost: x\r\n\r\nbody"), MaxLineSize)
	req, err := Parse(r)
	require.NoError(t, err)
	assert.Equal(t, "GET /", req.String())

	rest, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Host: x\r\n", rest)
}
