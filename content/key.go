package content

import (
	"fmt"

	"go.hackfix.me/modelvault/vault"
)

// KeyMode selects how a vault directory maps to a repository folder key.
type KeyMode string

const (
	// KeyLeaf uses the directory's own name. At the vault root it's the name of
	// the root directory.
	KeyLeaf KeyMode = "leaf"
	// KeyPath uses the directory's path relative to the vault root, which is
	// empty for the root.
	KeyPath KeyMode = "path"
)

// ParseKeyMode validates s as a KeyMode. An empty string selects KeyLeaf.
func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(s) {
	case "", KeyLeaf:
		return KeyLeaf, nil
	case KeyPath:
		return KeyPath, nil
	default:
		return "", fmt.Errorf("invalid metadata key mode '%s': must be one of '%s', '%s'", s, KeyLeaf, KeyPath)
	}
}

// FolderKey returns the repository folder key of the directory node dir.
func (m KeyMode) FolderKey(dir *vault.Node) string {
	if m == KeyPath {
		return dir.RelPath
	}
	return dir.Name
}
