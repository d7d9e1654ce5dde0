package content

import (
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/modelvault/vault"
)

func TestParseKeyMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		exp    KeyMode
		expErr string
	}{
		{name: "ok/empty", in: "", exp: KeyLeaf},
		{name: "ok/leaf", in: "leaf", exp: KeyLeaf},
		{name: "ok/path", in: "path", exp: KeyPath},
		{name: "err/invalid", in: "full", expErr: "invalid metadata key mode 'full'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mode, err := ParseKeyMode(tt.in)
			if tt.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.exp, mode)
		})
	}
}

func TestKeyModeFolderKey(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	require.NoError(t, fs.MkdirAll("/data/vault/Ships/Pirate", 0o755))
	v, err := vault.New(fs, "/data/vault")
	require.NoError(t, err)

	root, err := v.Resolve("")
	require.NoError(t, err)
	pirate, err := v.Resolve("Ships/Pirate")
	require.NoError(t, err)

	assert.Equal(t, "vault", KeyLeaf.FolderKey(root))
	assert.Equal(t, "", KeyPath.FolderKey(root))
	assert.Equal(t, "Pirate", KeyLeaf.FolderKey(pirate))
	assert.Equal(t, "Ships/Pirate", KeyPath.FolderKey(pirate))
}
