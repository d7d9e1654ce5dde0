package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"go.hackfix.me/modelvault/web/server/request"
	"go.hackfix.me/modelvault/web/server/response"
	"go.hackfix.me/modelvault/web/server/router"
	"go.hackfix.me/modelvault/web/server/types"
)

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger, which the Logger
// middleware prefers over its own.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom returns the logger stored in ctx with WithLogger, or fallback.
func LoggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}

// Logger logs request details and response metrics once the handler returns.
// If the handler fails with a types.Error before writing, the logged status is
// the one the client will receive. Any other failure aborts the response.
func Logger(logger *slog.Logger) Middleware {
	return func(next router.Handler) router.Handler {
		return router.HandlerFunc(func(ctx context.Context, w *response.Writer, req *request.Request) error {
			start := time.Now()
			err := next.Serve(ctx, w, req)

			l := LoggerFrom(ctx, logger)

			status, aborted := w.Status(), err != nil
			var terr *types.Error
			if !w.HeaderWritten() && errors.As(err, &terr) {
				status, aborted = terr.StatusCode, false
			}

			args := []any{
				"response_code", status,
				"duration", time.Since(start),
				"bytes_sent", humanize.Bytes(uint64(w.Written())), //nolint:gosec // Never negative.
			}
			if aborted {
				// The connection handler logs the error itself.
				args = append(args, "aborted", true)
			}
			l.Info(req.String(), args...)

			return err
		})
	}
}
