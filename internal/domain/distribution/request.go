package distribution

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
)

// Platform selects the target operating system.
type Platform string

// Supported platforms.
const (
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
)

// Arch selects the target CPU architecture.
type Arch string

// Supported architectures. Linux and macOS are always x64.
const (
	ArchX86 Arch = "x86"
	ArchX64 Arch = "x64"
)

// DefaultRuntimeVersion is the LÖVE release used when none is requested.
const DefaultRuntimeVersion = "11.3"

var (
	errUnknownPlatform    = errors.New("unknown platform")
	errUnknownArch        = errors.New("unknown architecture")
	errNameRequired       = errors.New("distribution name must be provided")
	errNameHasSeparator   = errors.New("distribution name must not contain path separators")
	errNameHasControl     = errors.New("distribution name must not contain control characters")
	errIdentifierRequired = errors.New("bundle identifier must be provided for macos")
	errCopyrightRequired  = errors.New("copyright notice must be provided for macos")
	errNotAFile           = errors.New("not a regular file")
	errOutputDirRequired  = errors.New("output directory must be provided")
)

// Identity is what the distributed application calls itself.
type Identity struct {
	// Name is the distribution name used for files, bundles and desktop entries.
	Name string
	// BundleIdentifier replaces CFBundleIdentifier on macOS.
	BundleIdentifier string
	// Copyright replaces NSHumanReadableCopyright on macOS.
	Copyright string
}

// Input holds raw, caller-supplied values before validation.
type Input struct {
	Platform         string
	Name             string
	GameArchivePath  string
	OutputDir        string
	RuntimeVersion   string
	ExtraFilesPath   string
	WindowsArch      string
	BundleIdentifier string
	Copyright        string
}

// Request fully determines one run. It is produced by NewRequest and
// must not be modified afterwards.
type Request struct {
	// Platform is the target operating system.
	Platform Platform
	// Arch is the target architecture (x86 only makes sense for windows).
	Arch Arch
	// Identity carries the name, bundle identifier and copyright.
	Identity Identity
	// GameArchivePath is the absolute path to the packaged game.
	GameArchivePath string
	// OutputDir is the absolute path of the directory receiving artifacts.
	OutputDir string
	// RuntimeVersion is the LÖVE release to download.
	RuntimeVersion string
	// ExtraFilesPath is the absolute path to an optional tar overlay, or empty.
	ExtraFilesPath string
}

// NewRequest validates the input, resolves every path to absolute form and
// checks that input files exist. All failures wrap ErrValidation.
func NewRequest(in Input) (*Request, error) {
	platform, err := ParsePlatform(in.Platform)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidation, errNameRequired)
	}

	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: %q: %w", ErrValidation, name, errNameHasSeparator)
	}

	if strings.ContainsFunc(name, unicode.IsControl) {
		return nil, fmt.Errorf("%w: %q: %w", ErrValidation, name, errNameHasControl)
	}

	arch := ArchX64

	if platform == PlatformWindows && in.WindowsArch != "" {
		if arch, err = ParseArch(in.WindowsArch); err != nil {
			return nil, err
		}
	}

	version := strings.TrimSpace(in.RuntimeVersion)
	if version == "" {
		version = DefaultRuntimeVersion
	}

	if _, err = semver.NewVersion(version); err != nil {
		return nil, fmt.Errorf("%w: runtime version %q: %w", ErrValidation, version, err)
	}

	identity := Identity{Name: name}

	if platform == PlatformMacOS {
		identity.BundleIdentifier = strings.TrimSpace(in.BundleIdentifier)
		if identity.BundleIdentifier == "" {
			return nil, fmt.Errorf("%w: %w", ErrValidation, errIdentifierRequired)
		}

		identity.Copyright = in.Copyright
		if strings.TrimSpace(identity.Copyright) == "" {
			return nil, fmt.Errorf("%w: %w", ErrValidation, errCopyrightRequired)
		}
	}

	gameArchive, err := existingFile(in.GameArchivePath, "game archive")
	if err != nil {
		return nil, err
	}

	var extraFiles string

	if in.ExtraFilesPath != "" {
		if extraFiles, err = existingFile(in.ExtraFilesPath, "extra files archive"); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(in.OutputDir) == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidation, errOutputDirRequired)
	}

	outputDir, err := filepath.Abs(in.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: output directory: %w", ErrValidation, err)
	}

	return &Request{
		Platform:        platform,
		Arch:            arch,
		Identity:        identity,
		GameArchivePath: gameArchive,
		OutputDir:       outputDir,
		RuntimeVersion:  version,
		ExtraFilesPath:  extraFiles,
	}, nil
}

// ArtifactName returns the file name this request publishes.
func (r *Request) ArtifactName() string {
	return ArtifactName(r.Identity.Name, r.Platform, r.Arch)
}

// ParsePlatform converts a selector string into a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformLinux, PlatformWindows, PlatformMacOS:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q: %w", ErrValidation, s, errUnknownPlatform)
	}
}

// ParseArch converts a selector string into an Arch.
func ParseArch(s string) (Arch, error) {
	switch a := Arch(strings.ToLower(strings.TrimSpace(s))); a {
	case ArchX86, ArchX64:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q: %w", ErrValidation, s, errUnknownArch)
	}
}

// existingFile resolves path to absolute form and requires a regular file there.
func existingFile(path, what string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrValidation, what, err)
	}

	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %w", ErrValidation, what, path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %w", ErrValidation, what, path, err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s %s: %w", ErrValidation, what, path, errNotAFile)
	}

	return abs, nil
}
