package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestWorkspace_Lifecycle creates, fills and removes a workspace.
func TestWorkspace_Lifecycle(t *testing.T) {
	t.Parallel()

	ws, err := New("love-distributor-test-")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(ws.Dir()))

	dir := ws.Dir()

	readOnly := ws.Path("squashfs-root", "usr")
	require.NoError(t, os.MkdirAll(readOnly, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(readOnly, "f"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(readOnly, 0o500))

	require.NoError(t, ws.Close(context.Background()))

	_, err = os.Stat(dir)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.Error(t, ws.Close(context.Background()))
}
