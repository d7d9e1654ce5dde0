// Package request parses the request line of an HTTP/1.x request. Only the
// first line is read: headers and body are left unread on the connection.
package request

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// MaxLineSize is the longest request line accepted, including the line
// terminator. Readers passed to Parse should be at least this large.
const MaxLineSize = 8 << 10

// ErrMalformed is returned when the request line doesn't contain at least a
// method and a path. No response should be written for such requests.
var ErrMalformed = errors.New("malformed request line")

// PathError is returned when the request path can't be decoded.
type PathError struct {
	RawPath string
	Err     error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid request path '%s': %s", e.RawPath, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Request is the part of a request that the server routes on.
type Request struct {
	Method string
	// RawPath is the request target as sent by the client.
	RawPath string
	// DecodedPath is RawPath without its query string, percent-decoded.
	DecodedPath string
}

// Parse reads the request line from r. Requests with fewer than two tokens on
// the first line, or whose first line exceeds the reader's buffer, return
// ErrMalformed. If the path can't be decoded, the returned Request is still
// valid, with an empty DecodedPath, alongside a *PathError.
func Parse(r *bufio.Reader) (*Request, error) {
	line, err := r.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, fmt.Errorf("%w: request line too long", ErrMalformed)
	case errors.Is(err, io.EOF) && len(line) > 0:
		// Tolerate a request line that isn't terminated.
	case err != nil:
		return nil, fmt.Errorf("failed reading request line: %w", err)
	}

	return ParseLine(string(line))
}

// ParseLine parses a single request line.
func ParseLine(line string) (*Request, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, ErrMalformed
	}

	req := &Request{Method: fields[0], RawPath: fields[1]}

	p := req.RawPath
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return req, &PathError{RawPath: req.RawPath, Err: err}
	}
	req.DecodedPath = decoded

	return req, nil
}

// String returns the request line without the protocol version.
func (r *Request) String() string {
	return fmt.Sprintf("%s %s", r.Method, r.RawPath)
}
