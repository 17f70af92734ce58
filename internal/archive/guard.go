package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

var (
	errEscapesDestination = errors.New("entry escapes destination directory")
	errAbsoluteLink       = errors.New("absolute symlink targets are not allowed")
)

// isWithin reports whether target is base or lies beneath it.
func isWithin(target, base string) bool {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}

	return absTarget == absBase || strings.HasPrefix(absTarget, absBase+string(os.PathSeparator))
}

// entryName maps an archive member name onto a local path relative to the
// destination, rejecting absolute and dot-dot names.
func entryName(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(filepath.ToSlash(name), "./")))
	if strings.HasPrefix(filepath.ToSlash(name), "/") || !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %s: %w", distribution.ErrArchive, name, errEscapesDestination)
	}

	return clean, nil
}

// bundleRoot confines every write of one extraction to its destination.
// Paths are resolved by os.Root, so symlinks already on disk, whether from
// the runtime tree or earlier members, can never carry a write outside.
type bundleRoot struct {
	// root is opened on dir.
	root *os.Root
	// dir is the destination with symlinks resolved.
	dir string
}

func openBundleRoot(destDir string) (*bundleRoot, error) {
	if err := os.MkdirAll(destDir, dirMode); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}

	dir, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return nil, fmt.Errorf("resolve destination %s: %w", destDir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open destination %s: %w", destDir, err)
	}

	return &bundleRoot{root: root, dir: dir}, nil
}

func (b *bundleRoot) Close() {
	_ = b.root.Close()
}

// escaped wraps a failed filesystem operation on a member as ErrArchive.
func escaped(op, name string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", distribution.ErrArchive, op, name, err)
}

func (b *bundleRoot) mkdir(name string) error {
	if name == "." {
		return nil
	}

	if info, err := b.root.Stat(name); err == nil && info.IsDir() {
		return nil
	}

	if err := b.root.MkdirAll(name, dirMode); err != nil {
		return escaped("create directory", name, err)
	}

	return nil
}

// clear removes a non-directory entry so overlays replace it instead of
// writing through an existing symlink.
func (b *bundleRoot) clear(name string) error {
	info, err := b.root.Lstat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return escaped("inspect", name, err)
	}

	if info.IsDir() {
		return nil
	}

	if err = b.root.Remove(name); err != nil {
		return escaped("replace", name, err)
	}

	return nil
}

// writeFile replaces name with the contents of r.
func (b *bundleRoot) writeFile(name string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = fileMode
	}

	if err := b.mkdir(filepath.Dir(name)); err != nil {
		return err
	}

	if err := b.clear(name); err != nil {
		return err
	}

	out, err := b.root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return escaped("create file", name, err)
	}

	if _, err = io.Copy(out, r); err != nil {
		_ = out.Close()

		return escaped("write", name, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	if err = b.root.Chmod(name, perm); err != nil {
		return escaped("chmod", name, err)
	}

	return nil
}

// writeSymlink creates name pointing at linkTarget. The target is checked
// against the link's resolved parent, and the finished link must not lead
// out of the root.
func (b *bundleRoot) writeSymlink(linkTarget, name string) error {
	if filepath.IsAbs(linkTarget) || strings.HasPrefix(linkTarget, "/") {
		return fmt.Errorf("%w: %s -> %s: %w", distribution.ErrArchive, name, linkTarget, errAbsoluteLink)
	}

	parent := filepath.Dir(name)
	if err := b.mkdir(parent); err != nil {
		return err
	}

	realParent, err := filepath.EvalSymlinks(filepath.Join(b.dir, parent))
	if err != nil {
		return escaped("resolve parent of", name, err)
	}

	if !isWithin(filepath.Join(realParent, filepath.FromSlash(linkTarget)), b.dir) {
		return fmt.Errorf("%w: %s -> %s: %w", distribution.ErrArchive, name, linkTarget, errEscapesDestination)
	}

	if err = b.clear(name); err != nil {
		return err
	}

	if err = b.root.Symlink(linkTarget, name); err != nil {
		return escaped("create symlink", name, err)
	}

	// Dangling links are kept; links resolving through other links to
	// somewhere outside are not.
	if _, err = b.root.Stat(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = b.root.Remove(name)

		return fmt.Errorf("%w: %s -> %s: %w", distribution.ErrArchive, name, linkTarget, errEscapesDestination)
	}

	return nil
}

// writeHardLink copies an earlier member; hard links are relative to the archive root.
func (b *bundleRoot) writeHardLink(linkName, name string) error {
	source, err := entryName(linkName)
	if err != nil {
		return err
	}

	info, err := b.root.Lstat(source)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s -> %s: %w", distribution.ErrArchive, name, linkName, errLinkOutsider)
	}

	in, err := b.root.Open(source)
	if err != nil {
		return escaped("open", source, err)
	}

	defer func() {
		_ = in.Close()
	}()

	return b.writeFile(name, in, info.Mode().Perm())
}

// clearForWrite removes a non-directory entry at path so a copy replaces it
// instead of writing through an existing symlink.
func clearForWrite(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	if info.IsDir() {
		return nil
	}

	return os.Remove(path)
}
