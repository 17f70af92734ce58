package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

// Config holds settings shared by every platform pipeline.
type Config struct {
	// RuntimeBaseURL is the release root; "/{version}/love-{version}-{suffix}" is appended.
	RuntimeBaseURL string `yaml:"runtime_base_url" toml:"runtime_base_url"`
	// AppImageToolURL is the pinned appimagetool release used on Linux.
	AppImageToolURL string `yaml:"appimagetool_url" toml:"appimagetool_url"`
	// DownloadTimeout bounds each download.
	DownloadTimeout time.Duration `yaml:"download_timeout" toml:"download_timeout"`
	// ToolTimeout bounds each external tool invocation.
	ToolTimeout time.Duration `yaml:"tool_timeout" toml:"tool_timeout"`
	// AllowMissingMetadataKeys turns missing Info.plist keys into warnings.
	AllowMissingMetadataKeys bool `yaml:"allow_missing_metadata_keys" toml:"allow_missing_metadata_keys"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

const (
	// DefaultConfigFilename is looked up in the working directory when no path is given.
	DefaultConfigFilename = "love-distributor.yaml"

	// DefaultRuntimeBaseURL hosts the LÖVE releases.
	DefaultRuntimeBaseURL = "https://github.com/love2d/love/releases/download"

	// DefaultAppImageToolURL is appimagetool release 13 for x86_64.
	DefaultAppImageToolURL = "https://github.com/AppImage/AppImageKit/releases/download/13/appimagetool-x86_64.AppImage"

	// DefaultDownloadTimeout is the default bound on a single download.
	DefaultDownloadTimeout = 10 * time.Minute

	// DefaultToolTimeout is the default bound on a single external tool run.
	DefaultToolTimeout = 10 * time.Minute

	// DefaultLogLevel is used when the file does not set one.
	DefaultLogLevel = "info"
)

// settingsFileMode is used when writing settings files.
const settingsFileMode = 0o600

var errHTTPSRequired = errors.New("url must use https")

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from path. An empty path means DefaultConfigFilename,
// and a missing default file yields Default(). A missing explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("%w: read settings: %w", distribution.ErrValidation, err)
	}

	var cfg Config

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(contents, &cfg)
	} else {
		err = yaml.Unmarshal(contents, &cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: unmarshal settings %s: %w", distribution.ErrValidation, path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save validates cfg and writes it to path, as TOML when the extension is
// .toml and as YAML otherwise.
func Save(path string, cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	var (
		contents []byte
		err      error
	)

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var buf bytes.Buffer

		err = toml.NewEncoder(&buf).Encode(cfg)
		contents = buf.Bytes()
	} else {
		contents, err = yaml.Marshal(cfg)
	}

	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(path, contents, settingsFileMode); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}

	return nil
}

// Validate fills defaults and checks that download URLs use HTTPS.
func Validate(cfg *Config) error {
	if cfg.RuntimeBaseURL == "" {
		cfg.RuntimeBaseURL = DefaultRuntimeBaseURL
	}

	if cfg.AppImageToolURL == "" {
		cfg.AppImageToolURL = DefaultAppImageToolURL
	}

	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}

	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = DefaultToolTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	cfg.RuntimeBaseURL = strings.TrimRight(cfg.RuntimeBaseURL, "/")

	for _, raw := range []string{cfg.RuntimeBaseURL, cfg.AppImageToolURL} {
		u, err := url.ParseRequestURI(raw)
		if err != nil {
			return fmt.Errorf("%w: invalid url %q: %w", distribution.ErrValidation, raw, err)
		}

		if u.Scheme != "https" {
			return fmt.Errorf("%w: %s: %w", distribution.ErrValidation, raw, errHTTPSRequired)
		}
	}

	return nil
}
