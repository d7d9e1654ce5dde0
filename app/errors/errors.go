package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// RuntimeError is an error that should be reported to the user of the CLI,
// optionally with a hint about how to resolve it.
type RuntimeError struct {
	Msg   string
	Cause error
	Hint  string
}

// NewRuntimeError returns a new RuntimeError.
func NewRuntimeError(msg string, cause error, hint string) *RuntimeError {
	return &RuntimeError{Msg: msg, Cause: cause, Hint: hint}
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the cause of the error.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// Attrs returns the slog attributes of err. The cause comes first, followed by
// the remaining metadata sorted by key. It returns nil for errors that carry no
// structured data.
func Attrs(err error) []any {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		return nil
	}

	args := make([]any, 0, len(serr.metadata)*2+2)

	cause := serr.metadata["cause"]
	if serr.cause != nil {
		cause = serr.cause
	}
	if cause != nil {
		args = append(args, "cause", cause)
	}

	keys := make([]string, 0, len(serr.metadata))
	for k := range serr.metadata {
		if k != "cause" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, k, serr.metadata[k])
	}

	return args
}

// Log logs an error using logger, extracting metadata if it's a
// StructuredError.
func Log(logger *slog.Logger, msg string, err error) {
	args := append([]any{"error", err.Error()}, Attrs(err)...)
	logger.Error(msg, args...)
}

// Errorf prints a fatal error to stderr. It's meant to be used in main,
// before the process exits.
func Errorf(err error) {
	msg := err.Error()
	var rerr *RuntimeError
	if errors.As(err, &rerr) && rerr.Hint != "" {
		msg = fmt.Sprintf("%s\nhint: %s", msg, rerr.Hint)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
}
