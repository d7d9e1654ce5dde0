// Package vault resolves request paths to files and directories under a fixed
// root directory, and guarantees that nothing outside of it is reachable.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	aerrors "go.hackfix.me/modelvault/app/errors"
)

var (
	// ErrNotFound is returned when a path doesn't denote a file or directory.
	ErrNotFound = errors.New("not found")
	// ErrOutsideVault is returned when a path resolves to a location outside of
	// the vault root.
	ErrOutsideVault = errors.New("path resolves outside of the vault root")
)

// maxLinkHops bounds symlink resolution, which also breaks symlink loops.
const maxLinkHops = 40

// Vault is a read-only view of a directory tree on a filesystem.
type Vault struct {
	fs   vfs.FileSystem
	root string // canonical root, without symlinks
	// The root as configured. It may reach the root through symlinks, and
	// symlink targets below it are also considered inside the vault.
	alias string
}

// New returns a Vault rooted at root on fs. The root directory is created if it
// doesn't exist.
func New(fs vfs.FileSystem, root string) (*Vault, error) {
	if root == "" {
		return nil, errors.New("vault root must be set")
	}
	root = path.Clean(root)

	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating vault root: %w", err)
	}

	info, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed reading vault root: %w", err)
	}
	if !info.IsDir() {
		return nil, aerrors.NewWith("vault root is not a directory", "path", root)
	}

	canon, err := vfs.Canonical(fs, root, true)
	if err != nil {
		return nil, fmt.Errorf("failed resolving vault root: %w", err)
	}

	return &Vault{fs: fs, root: path.Clean(canon), alias: root}, nil
}

// Root returns the vault root directory, with symlinks resolved.
func (v *Vault) Root() string {
	return v.root
}

// Resolve returns the node at the slash-separated path rel, relative to the
// vault root. Leading and trailing slashes are ignored, and an empty path
// denotes the root itself.
func (v *Vault) Resolve(rel string) (*Node, error) {
	clean, err := cleanRel(rel)
	if err != nil {
		return nil, err
	}

	fsPath, info, err := v.canonical(clean)
	if err != nil {
		return nil, aerrors.With(err, "path", rel)
	}

	name := path.Base(clean)
	if clean == "" {
		name = path.Base(v.alias)
	}

	return newNode(clean, name, fsPath, info)
}

// ReadDir returns the immediate children of the directory node, sorted by
// name. Entries that are neither files nor directories, and symlinks that
// point outside of the vault, are skipped.
func (v *Vault) ReadDir(dir *Node) ([]*Node, error) {
	if !dir.IsDir {
		return nil, aerrors.NewWith("not a directory", "path", dir.RelPath)
	}

	f, err := v.fs.Open(dir.fsPath)
	if err != nil {
		return nil, fmt.Errorf("failed opening directory '%s': %w", dir.RelPath, err)
	}
	defer f.Close()

	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed reading directory '%s': %w", dir.RelPath, err)
	}

	children := make([]*Node, 0, len(infos))
	for _, info := range infos {
		childRel := path.Join(dir.RelPath, info.Name())
		var child *Node
		if info.Mode()&os.ModeSymlink != 0 {
			if child, err = v.Resolve(childRel); err != nil {
				continue
			}
		} else if child, err = newNode(childRel, info.Name(), path.Join(dir.fsPath, info.Name()), info); err != nil {
			continue
		}
		children = append(children, child)
	}

	slices.SortFunc(children, func(a, b *Node) int { return strings.Compare(a.Name, b.Name) })

	return children, nil
}

// Walk visits every regular file and directory below root in depth-first
// order, with siblings sorted by name. fn isn't called for root itself.
// Symlinked directories are followed, except those that point back to one of
// the directories currently being walked.
func (v *Vault) Walk(root *Node, fn func(n *Node) error) error {
	if !root.IsDir {
		return nil
	}
	return v.walk(root, fn, map[string]struct{}{root.fsPath: {}})
}

func (v *Vault) walk(dir *Node, fn func(n *Node) error, ancestors map[string]struct{}) error {
	children, err := v.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, child := range children {
		if err = fn(child); err != nil {
			return err
		}
		if !child.IsDir {
			continue
		}
		if _, ok := ancestors[child.fsPath]; ok {
			continue
		}
		ancestors[child.fsPath] = struct{}{}
		err = v.walk(child, fn, ancestors)
		delete(ancestors, child.fsPath)
		if err != nil {
			return err
		}
	}

	return nil
}

// Open opens the file node for reading.
func (v *Vault) Open(n *Node) (vfs.File, error) {
	if n.IsDir {
		return nil, aerrors.NewWith("not a file", "path", n.RelPath)
	}
	f, err := v.fs.Open(n.fsPath)
	if err != nil {
		return nil, fmt.Errorf("failed opening file '%s': %w", n.RelPath, err)
	}
	return f, nil
}

// canonical resolves the clean relative path segment by segment, following
// symlinks, and returns the resulting filesystem path and its file info. Every
// intermediate location must be within the vault root.
func (v *Vault) canonical(rel string) (string, os.FileInfo, error) {
	cur := v.root
	info, err := v.fs.Stat(cur)
	if err != nil {
		return "", nil, fmt.Errorf("failed reading vault root: %w", err)
	}
	if rel == "" {
		return cur, info, nil
	}

	hops := 0
	for _, seg := range strings.Split(rel, "/") {
		next := path.Join(cur, seg)
		for {
			info, err = v.fs.Lstat(next)
			if err != nil {
				if vfs.IsErrNotExist(err) {
					return "", nil, ErrNotFound
				}
				return "", nil, fmt.Errorf("failed reading '%s': %w", next, err)
			}
			if info.Mode()&os.ModeSymlink == 0 {
				break
			}

			hops++
			if hops > maxLinkHops {
				return "", nil, fmt.Errorf("too many levels of symbolic links: %w", ErrNotFound)
			}
			target, err := v.fs.Readlink(next)
			if err != nil {
				return "", nil, fmt.Errorf("failed reading symlink '%s': %w", next, err)
			}
			if !path.IsAbs(target) {
				target = path.Join(path.Dir(next), target)
			}
			next = path.Clean(target)
			if !v.contains(next) {
				return "", nil, ErrOutsideVault
			}
		}
		cur = next
	}

	return cur, info, nil
}

func (v *Vault) contains(p string) bool {
	return within(p, v.root) || within(p, v.alias)
}

func within(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, strings.TrimSuffix(dir, "/")+"/")
}

// cleanRel normalizes a slash-separated relative path. Any ".." segment that
// would climb above the root is rejected.
func cleanRel(rel string) (string, error) {
	if strings.ContainsRune(rel, 0) || strings.ContainsRune(rel, '\\') {
		return "", aerrors.With(ErrOutsideVault, "path", rel)
	}

	depth := 0
	for _, seg := range strings.Split(rel, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", aerrors.With(ErrOutsideVault, "path", rel)
			}
		default:
			depth++
		}
	}

	clean := strings.Trim(path.Clean("/"+rel), "/")

	return clean, nil
}
