package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

// TestValidate_FillsDefaults checks defaults and the HTTPS requirement.
func TestValidate_FillsDefaults(t *testing.T) {
	t.Parallel()

	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultRuntimeBaseURL, cfg.RuntimeBaseURL)
	require.Equal(t, DefaultAppImageToolURL, cfg.AppImageToolURL)
	require.Equal(t, DefaultDownloadTimeout, cfg.DownloadTimeout)
	require.Equal(t, DefaultToolTimeout, cfg.ToolTimeout)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.False(t, cfg.AllowMissingMetadataKeys)

	cfg = &Config{RuntimeBaseURL: "http://example.com/releases"}
	require.ErrorIs(t, Validate(cfg), distribution.ErrValidation)

	cfg = &Config{RuntimeBaseURL: "https://mirror.example.com/love/"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, "https://mirror.example.com/love", cfg.RuntimeBaseURL)
}

// TestLoad_YAML reads a YAML settings file.
func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := "runtime_base_url: https://mirror.example.com/love\n" +
		"download_timeout: 90s\n" +
		"allow_missing_metadata_keys: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://mirror.example.com/love", cfg.RuntimeBaseURL)
	require.Equal(t, 90*time.Second, cfg.DownloadTimeout)
	require.Equal(t, DefaultToolTimeout, cfg.ToolTimeout)
	require.True(t, cfg.AllowMissingMetadataKeys)
}

// TestLoad_TOML reads a TOML settings file.
func TestLoad_TOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	contents := "appimagetool_url = \"https://tools.example.com/appimagetool\"\n" +
		"tool_timeout = \"2m\"\n" +
		"log_level = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://tools.example.com/appimagetool", cfg.AppImageToolURL)
	require.Equal(t, 2*time.Minute, cfg.ToolTimeout)
	require.Equal(t, "debug", cfg.LogLevel)
}

// TestLoad_Errors covers a missing explicit file and a malformed one.
func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.yaml"))
	require.ErrorIs(t, err, distribution.ErrValidation)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("download_timeout: [\n"), 0o600))

	_, err = Load(broken)
	require.ErrorIs(t, err, distribution.ErrValidation)
}

// TestLoad_MissingDefaultFile yields defaults when nothing is configured.
func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

// TestSave_RoundTrip writes settings and reads them back for both formats.
func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"settings.yaml", "settings.toml"} {
		path := filepath.Join(t.TempDir(), name)
		want := &Config{
			RuntimeBaseURL:           "https://mirror.example.com/love",
			DownloadTimeout:          45 * time.Second,
			AllowMissingMetadataKeys: true,
		}

		require.NoError(t, Save(path, want))

		got, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

// TestSave_RejectsHTTP refuses to persist a plain http base URL.
func TestSave_RejectsHTTP(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	require.ErrorIs(t, Save(path, &Config{RuntimeBaseURL: "http://example.com"}), distribution.ErrValidation)
	require.NoFileExists(t, path)
}
