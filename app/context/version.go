package context

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// VersionInfo describes the build of the running binary.
type VersionInfo struct {
	Semantic  string
	Commit    string
	Dirty     bool
	GoVersion string
}

// GetVersion reads the version information embedded in the binary by the Go
// toolchain.
func GetVersion() (*VersionInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("failed reading build information")
	}

	vi := &VersionInfo{
		Semantic:  strings.TrimPrefix(bi.Main.Version, "v"),
		GoVersion: bi.GoVersion,
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vi.Commit = s.Value
			if len(vi.Commit) > 10 {
				vi.Commit = vi.Commit[:10]
			}
		case "vcs.modified":
			vi.Dirty = s.Value == "true"
		}
	}

	return vi, nil
}

// String returns the version in a human-readable format.
func (vi *VersionInfo) String() string {
	var sb strings.Builder
	sb.WriteString("v")
	if vi.Semantic == "" || vi.Semantic == "(devel)" {
		sb.WriteString("0.0.0-dev")
	} else {
		sb.WriteString(vi.Semantic)
	}
	if vi.Commit != "" {
		fmt.Fprintf(&sb, " (commit %s", vi.Commit)
		if vi.Dirty {
			sb.WriteString(", dirty")
		}
		sb.WriteString(")")
	}
	if vi.GoVersion != "" {
		fmt.Fprintf(&sb, ", built with %s", vi.GoVersion)
	}

	return sb.String()
}
