package vault

import (
	"os"
	"time"

	aerrors "go.hackfix.me/modelvault/app/errors"
)

// Node is a file or directory reachable from the vault root.
type Node struct {
	// RelPath is the slash-separated path relative to the vault root, without
	// leading or trailing slashes. It's empty for the root.
	RelPath string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time

	// location on the vault filesystem, with symlinks resolved
	fsPath string
}

// IsRoot returns true if the node is the vault root.
func (n *Node) IsRoot() bool {
	return n.RelPath == ""
}

func newNode(rel, name, fsPath string, info os.FileInfo) (*Node, error) {
	mode := info.Mode()
	if !mode.IsDir() && !mode.IsRegular() {
		return nil, aerrors.With(ErrNotFound, "path", rel, "mode", mode.String())
	}

	n := &Node{
		RelPath: rel,
		Name:    name,
		IsDir:   mode.IsDir(),
		ModTime: info.ModTime(),
		fsPath:  fsPath,
	}
	if !n.IsDir {
		n.Size = info.Size()
	}

	return n, nil
}
