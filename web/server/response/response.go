// Package response writes raw HTTP/1.1 responses onto a connection.
package response

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// ErrHeaderWritten is returned when the status line and headers are written
// more than once.
var ErrHeaderWritten = errors.New("response header already written")

// Writer writes a single response. The status line and headers must be
// written with WriteHeader before the body. Written bytes are buffered until
// Flush is called, and counted.
type Writer struct {
	bw            *bufio.Writer
	status        int
	headerWritten bool
	written       int64
}

// NewWriter returns a Writer that writes to w, buffering up to size bytes.
func NewWriter(w io.Writer, size int) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, size)}
}

// WriteHeader writes the status line followed by the header fields and the
// blank line that separates them from the body. Every response carries
// "Connection: close", since the connection is closed after it.
func (w *Writer) WriteHeader(status int, header http.Header) error {
	if w.headerWritten {
		return ErrHeaderWritten
	}
	w.headerWritten = true
	w.status = status

	if header == nil {
		header = http.Header{}
	}
	header.Set("Connection", "close")

	cw := &countWriter{w: w.bw}
	_, err := fmt.Fprintf(cw, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	if err == nil {
		err = header.Write(cw)
	}
	if err == nil {
		_, err = io.WriteString(cw, "\r\n")
	}
	w.written += cw.n
	if err != nil {
		return fmt.Errorf("failed writing response header: %w", err)
	}

	return nil
}

// Write writes body bytes. It fails if the header wasn't written yet.
func (w *Writer) Write(p []byte) (int, error) {
	if !w.headerWritten {
		return 0, errors.New("response header not written")
	}
	n, err := w.bw.Write(p)
	w.written += int64(n)
	return n, err //nolint:wrapcheck // Wrapped by caller.
}

// Flush writes any buffered data to the connection.
func (w *Writer) Flush() error {
	return w.bw.Flush() //nolint:wrapcheck // Wrapped by caller.
}

// HeaderWritten reports whether the status line was already written.
func (w *Writer) HeaderWritten() bool {
	return w.headerWritten
}

// Status returns the written status code, or 0 if nothing was written.
func (w *Writer) Status() int {
	return w.status
}

// Written returns the number of bytes written so far, including the header.
func (w *Writer) Written() int64 {
	return w.written
}

// Text writes a complete plain-text response.
func Text(w *Writer, status int, body string) error {
	h := http.Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	if err := w.WriteHeader(status, h); err != nil {
		return err
	}
	_, err := io.WriteString(w, body)
	return err //nolint:wrapcheck // Wrapped by caller.
}

// Redirect writes a complete 303 See Other response pointing at location.
func Redirect(w *Writer, location string) error {
	h := http.Header{}
	h.Set("Location", location)
	h.Set("Content-Length", "0")
	return w.WriteHeader(http.StatusSeeOther, h)
}

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err //nolint:wrapcheck // Transparent wrapper.
}
