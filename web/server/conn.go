package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/nrednav/cuid2"

	aerrors "go.hackfix.me/modelvault/app/errors"
	"go.hackfix.me/modelvault/web/server/middleware"
	"go.hackfix.me/modelvault/web/server/request"
	"go.hackfix.me/modelvault/web/server/response"
	"go.hackfix.me/modelvault/web/server/types"
)

const (
	writeBufferSize = 4 << 10
	lingerTimeout   = 500 * time.Millisecond
	maxLingerBytes  = 256 << 10
)

// handleConn serves a single request on conn and closes it.
func (s *Server) handleConn(conn net.Conn) {
	logger := s.logger.With(
		"conn_id", cuid2.Generate(),
		"remote_addr", conn.RemoteAddr().String(),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling connection",
				"panic", r, "stack", string(debug.Stack()))
		}
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("failed closing connection", "error", err.Error())
		}
	}()

	if s.opts.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			logger.Debug("failed setting read deadline", "error", err.Error())
			return
		}
	}

	h := s.handler
	req, err := request.Parse(bufio.NewReaderSize(conn, request.MaxLineSize))
	if err != nil {
		var perr *request.PathError
		if !errors.As(err, &perr) {
			logger.Debug("dropped request", "error", err.Error())
			return
		}
		h = s.notFound
	}

	if s.opts.WriteTimeout > 0 {
		if err = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
			logger.Debug("failed setting write deadline", "error", err.Error())
			return
		}
	}

	w := response.NewWriter(conn, writeBufferSize)
	ctx := middleware.WithLogger(s.ctx, logger)
	err = h.Serve(ctx, w, req)

	var terr *types.Error
	if errors.As(err, &terr) && !w.HeaderWritten() {
		err = response.Text(w, terr.StatusCode, terr.Message)
	}
	if err != nil {
		aerrors.Log(logger, "aborted connection", err)
		return
	}

	if err = w.Flush(); err != nil {
		logger.Debug("failed sending response", "error", err.Error())
		return
	}
	lingerClose(conn)
}

// lingerClose half-closes conn and discards the unread rest of the request.
// Closing a socket with unread input resets the connection, and the client may
// then lose the end of the response.
func lingerClose(conn net.Conn) {
	cw, ok := conn.(interface{ CloseWrite() error })
	if !ok || cw.CloseWrite() != nil {
		return
	}
	if err := conn.SetReadDeadline(time.Now().Add(lingerTimeout)); err != nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, maxLingerBytes))
}
