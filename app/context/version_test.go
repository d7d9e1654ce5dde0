package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfoString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vi   VersionInfo
		exp  string
	}{
		{name: "ok/devel", vi: VersionInfo{Semantic: "(devel)"}, exp: "v0.0.0-dev"},
		{name: "ok/release", vi: VersionInfo{Semantic: "1.2.3", GoVersion: "go1.24.2"},
			exp: "v1.2.3, built with go1.24.2"},
		{name: "ok/dirty", vi: VersionInfo{Semantic: "1.2.3", Commit: "abcdef1234", Dirty: true},
			exp: "v1.2.3 (commit abcdef1234, dirty)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, tt.vi.String())
		})
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	vi, err := GetVersion()
	assert.NoError(t, err)
	assert.NotNil(t, vi)
}
