package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/love-distributor/internal/logger"
)

// Workspace is an exclusively owned scratch directory for one run.
type Workspace struct {
	// dir is the absolute path of the scratch directory.
	dir string
}

var errClosed = errors.New("workspace already removed")

// New creates a fresh scratch directory under the system temp dir.
func New(prefix string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		_ = os.RemoveAll(dir)

		return nil, fmt.Errorf("resolve workspace: %w", err)
	}

	return &Workspace{dir: abs}, nil
}

// Dir returns the absolute path of the workspace.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins elem onto the workspace directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.dir}, elem...)...)
}

// Close recursively removes the workspace. It is safe to call more than once.
func (w *Workspace) Close(ctx context.Context) error {
	if w.dir == "" {
		return errClosed
	}

	dir := w.dir
	w.dir = ""

	// Self-extracted trees are sometimes read-only.
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			_ = os.Chmod(path, 0o700)
		}

		return nil
	})

	if err := os.RemoveAll(dir); err != nil {
		logger.WarnKV(ctx, "Unable to remove workspace", "path", dir, "error", err)

		return fmt.Errorf("remove workspace: %w", err)
	}

	logger.DebugKV(ctx, "Workspace removed", "path", dir)

	return nil
}
