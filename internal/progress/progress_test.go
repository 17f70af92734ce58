package progress

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestWriter_CountsAndReports writes through the wrapper and checks the status line.
func TestWriter_CountsAndReports(t *testing.T) {
	t.Parallel()

	var sink, out bytes.Buffer

	pw := NewWriter(&sink, 2048, &out, "love-11.3-win64.zip")

	n, err := pw.Write(bytes.Repeat([]byte{'x'}, 2048))
	require.NoError(t, err)
	require.Equal(t, 2048, n)
	require.Equal(t, int64(2048), pw.Written())

	pw.Finish()
	require.Equal(t, 2048, sink.Len())
	require.Contains(t, out.String(), "love-11.3-win64.zip 2.0 KiB / 2.0 KiB (100%)")
}

// TestFormatBytes covers unit boundaries.
func TestFormatBytes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "512 B", formatBytes(512))
	require.Equal(t, "1.0 KiB", formatBytes(1024))
	require.Equal(t, "1.5 MiB", formatBytes(1536*1024))
}

// TestEnabled reports false for files that are not terminals.
func TestEnabled(t *testing.T) {
	t.Parallel()

	require.False(t, Enabled(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)

	defer func() {
		_ = f.Close()
	}()

	require.False(t, Enabled(f))
}
