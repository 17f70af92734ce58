package distribution

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeGame creates a placeholder game archive and returns its path.
func writeGame(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "game.love")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04game"), 0o600))

	return path
}

// TestNewRequest_Defaults checks defaults and absolute path resolution.
func TestNewRequest_Defaults(t *testing.T) {
	t.Parallel()

	game := writeGame(t)

	req, err := NewRequest(Input{
		Platform:        "Windows",
		Name:            "MyGame",
		GameArchivePath: game,
		OutputDir:       "dist",
	})
	require.NoError(t, err)
	require.Equal(t, PlatformWindows, req.Platform)
	require.Equal(t, ArchX64, req.Arch)
	require.Equal(t, DefaultRuntimeVersion, req.RuntimeVersion)
	require.True(t, filepath.IsAbs(req.OutputDir))
	require.True(t, filepath.IsAbs(req.GameArchivePath))
	require.Empty(t, req.ExtraFilesPath)
	require.Equal(t, "MyGame-windows-x64.zip", req.ArtifactName())
}

// TestNewRequest_Rejects verifies every validation failure wraps ErrValidation.
func TestNewRequest_Rejects(t *testing.T) {
	t.Parallel()

	game := writeGame(t)
	dir := t.TempDir()

	cases := map[string]Input{
		"unknown platform": {Platform: "beos", Name: "g", GameArchivePath: game, OutputDir: dir},
		"empty name":       {Platform: "linux", Name: " ", GameArchivePath: game, OutputDir: dir},
		"name with slash":  {Platform: "linux", Name: "a/b", GameArchivePath: game, OutputDir: dir},
		"name with eol":    {Platform: "linux", Name: "a\nExec=x", GameArchivePath: game, OutputDir: dir},
		"missing game":     {Platform: "linux", Name: "g", GameArchivePath: filepath.Join(dir, "none.love"), OutputDir: dir},
		"game is dir":      {Platform: "linux", Name: "g", GameArchivePath: dir, OutputDir: dir},
		"missing extras":   {Platform: "linux", Name: "g", GameArchivePath: game, OutputDir: dir, ExtraFilesPath: filepath.Join(dir, "x.tar")},
		"bad arch":         {Platform: "windows", Name: "g", GameArchivePath: game, OutputDir: dir, WindowsArch: "arm64"},
		"bad version":      {Platform: "linux", Name: "g", GameArchivePath: game, OutputDir: dir, RuntimeVersion: "../x"},
		"no identifier":    {Platform: "macos", Name: "g", GameArchivePath: game, OutputDir: dir, Copyright: "c"},
		"no copyright":     {Platform: "macos", Name: "g", GameArchivePath: game, OutputDir: dir, BundleIdentifier: "com.example.g"},
		"no output dir":    {Platform: "linux", Name: "g", GameArchivePath: game},
	}

	for name, in := range cases {
		_, err := NewRequest(in)
		require.ErrorIs(t, err, ErrValidation, name)
	}
}

// TestNewRequest_ArchOnlyForWindows ensures the arch selector is ignored elsewhere.
func TestNewRequest_ArchOnlyForWindows(t *testing.T) {
	t.Parallel()

	game := writeGame(t)

	req, err := NewRequest(Input{
		Platform:        "linux",
		Name:            "g",
		GameArchivePath: game,
		OutputDir:       t.TempDir(),
		WindowsArch:     "x86",
	})
	require.NoError(t, err)
	require.Equal(t, ArchX64, req.Arch)
	require.Equal(t, "g-linux-x64.zip", req.ArtifactName())

	req, err = NewRequest(Input{
		Platform:        "windows",
		Name:            "g",
		GameArchivePath: game,
		OutputDir:       t.TempDir(),
		WindowsArch:     "x86",
	})
	require.NoError(t, err)
	require.Equal(t, "g-windows-x86.zip", req.ArtifactName())
}

// TestArtifactNames lists all four candidates in a stable order.
func TestArtifactNames(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{
		"G-linux-x64.zip",
		"G-windows-x86.zip",
		"G-windows-x64.zip",
		"G-macos-x64.zip",
	}, ArtifactNames("G"))
}
