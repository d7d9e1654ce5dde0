package errors

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	t.Parallel()

	base := errors.New("not found")
	err := With(base, "path", "Ships/galleon.stl")
	assert.Equal(t, "not found", err.Error())
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, map[string]any{"path": "Ships/galleon.stl"}, err.Metadata())

	merged := WithCause(err, io.ErrUnexpectedEOF, "path", "Boats", "mode", "L")
	assert.True(t, errors.Is(merged, base))
	assert.True(t, errors.Is(merged, io.ErrUnexpectedEOF))
	assert.Equal(t, io.ErrUnexpectedEOF, merged.Cause())
	assert.Equal(t, map[string]any{"path": "Boats", "mode": "L"}, merged.Metadata())

	kept := With(merged, "extra", 1)
	assert.Equal(t, io.ErrUnexpectedEOF, kept.Cause())
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		exp  []any
	}{
		{name: "ok/plain", err: errors.New("boom"), exp: nil},
		{
			name: "ok/sorted",
			err:  NewWith("boom", "zeta", 1, "alpha", "a"),
			exp:  []any{"alpha", "a", "zeta", 1},
		},
		{
			name: "ok/cause_first",
			err:  NewWithCause("boom", io.EOF, "path", "x"),
			exp:  []any{"cause", io.EOF, "path", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, Attrs(tt.err))
		})
	}
}

func TestLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	Log(logger, "aborted connection", NewWith("short copy", "path", "Ships/galleon.stl"))

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `msg="aborted connection"`)
	assert.Contains(t, out, `error="short copy"`)
	assert.Contains(t, out, "path=Ships/galleon.stl")
}

func TestRuntimeError(t *testing.T) {
	t.Parallel()

	err := NewRuntimeError("failed opening vault", io.EOF, "check the vault root")
	assert.Equal(t, "failed opening vault: EOF", err.Error())
	require.True(t, errors.Is(err, io.EOF))

	assert.Equal(t, "failed opening vault", NewRuntimeError("failed opening vault", nil, "").Error())
}
