package publisher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/logger"
	"github.com/oshokin/love-distributor/internal/testutil"
)

// TestPublish_CopiesPresentArtifacts copies only the artifacts that exist.
func TestPublish_CopiesPresentArtifacts(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	testutil.WriteFile(t, work, "MyGame-linux-x64.zip", []byte("linux"))
	testutil.WriteFile(t, work, "MyGame-macos-x64.zip", []byte("macos"))
	testutil.WriteFile(t, work, "Other-windows-x64.zip", []byte("other"))

	out := filepath.Join(t.TempDir(), "dist")

	published, err := Publish(context.Background(), work, out, "MyGame")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(out, "MyGame-linux-x64.zip"),
		filepath.Join(out, "MyGame-macos-x64.zip"),
	}, published)

	data, err := os.ReadFile(filepath.Join(out, "MyGame-linux-x64.zip"))
	require.NoError(t, err)
	require.Equal(t, "linux", string(data))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

// TestPublish_NothingToCopy succeeds with an empty result.
func TestPublish_NothingToCopy(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	testutil.WriteFile(t, work, "MyGame-linux-x64.zip", []byte("linux"))

	out := t.TempDir()

	var logs bytes.Buffer

	ctx := logger.ToContext(context.Background(), logger.New(&logs, zapcore.DebugLevel))

	published, err := Publish(ctx, work, out, "Another")
	require.NoError(t, err)
	require.Empty(t, published)
	require.Contains(t, logs.String(), "No artifacts found to publish")
}

// TestPublish_MissingParent refuses to create more than one directory level.
func TestPublish_MissingParent(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "missing", "dist")

	_, err := Publish(context.Background(), t.TempDir(), out, "MyGame")
	require.ErrorIs(t, err, distribution.ErrIO)
	require.NoDirExists(t, out)
}

// TestPublish_OutputIsFile fails when the output path is a regular file.
func TestPublish_OutputIsFile(t *testing.T) {
	t.Parallel()

	out := testutil.WriteFile(t, t.TempDir(), "dist", []byte("file"))

	_, err := Publish(context.Background(), t.TempDir(), out, "MyGame")
	require.ErrorIs(t, err, distribution.ErrIO)
}
