package assembler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/love-distributor/internal/archive"
	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/logger"
	"github.com/oshokin/love-distributor/internal/tool"
)

// GameFilename is the name the game archive gets inside Linux and macOS bundles.
const GameFilename = "game.love"

var (
	errToolFailed       = errors.New("external tool failed")
	errMissingOutput    = errors.New("expected output not produced")
	errUnknownPlatform  = errors.New("no assembler for platform")
	errHelperRequired   = errors.New("bundling helper path is required")
	errUnexpectedLayout = errors.New("unexpected runtime layout")
)

// Input is everything one assembly needs.
type Input struct {
	// Request is the validated run request.
	Request *distribution.Request
	// RuntimePath is the downloaded runtime AppImage or zip.
	RuntimePath string
	// HelperPath is appimagetool, used on linux only.
	HelperPath string
	// WorkDir is the workspace; the artifact is written directly inside it.
	WorkDir string
}

// Assembler builds platform artifacts.
type Assembler struct {
	// runner invokes the AppImage runtime and appimagetool.
	runner tool.Runner
	// lenientMetadata downgrades missing Info.plist keys to warnings.
	lenientMetadata bool
}

// Option customizes an Assembler.
type Option func(*Assembler)

// WithLenientMetadata makes missing Info.plist keys a warning instead of a failure.
func WithLenientMetadata(lenient bool) Option {
	return func(a *Assembler) {
		a.lenientMetadata = lenient
	}
}

// New creates an Assembler invoking external programs through runner.
func New(runner tool.Runner, opts ...Option) *Assembler {
	a := &Assembler{runner: runner}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Assemble builds the artifact for in.Request and returns its path.
func (a *Assembler) Assemble(ctx context.Context, in *Input) (string, error) {
	ctx = logger.WithKV(ctx, "platform", in.Request.Platform, "arch", in.Request.Arch)

	var (
		artifact string
		err      error
	)

	switch in.Request.Platform {
	case distribution.PlatformLinux:
		artifact, err = a.assembleLinux(ctx, in)
	case distribution.PlatformWindows:
		artifact, err = a.assembleWindows(ctx, in)
	case distribution.PlatformMacOS:
		artifact, err = a.assembleMacOS(ctx, in)
	default:
		err = fmt.Errorf("%w: %s: %w", distribution.ErrValidation, in.Request.Platform, errUnknownPlatform)
	}

	if err != nil {
		return "", err
	}

	if err = requireFile(artifact); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Artifact assembled", "path", artifact)

	return artifact, nil
}

// runTool runs an external program and turns any failure into ErrAssembly.
func (a *Assembler) runTool(ctx context.Context, command string, args []string, dir string) error {
	code, output, err := a.runner.Run(ctx, command, args, dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", distribution.ErrAssembly, filepath.Base(command), err)
	}

	if code != 0 {
		return fmt.Errorf("%w: %s exited with code %d: %s: %w",
			distribution.ErrAssembly, filepath.Base(command), code, strings.TrimSpace(string(output)), errToolFailed)
	}

	logger.DebugKV(ctx, "External tool finished", "command", filepath.Base(command), "output", string(output))

	return nil
}

// overlay extracts the optional extra-files tar over destDir.
func overlay(ctx context.Context, extraFiles, destDir string) error {
	if extraFiles == "" {
		return nil
	}

	logger.InfoKV(ctx, "Overlaying extra files", "archive", extraFiles, "dest", destDir)

	return archive.ExtractTar(extraFiles, destDir)
}

// writeText replaces path with content and sets perm exactly.
func writeText(path, content string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	return nil
}

// requireDir fails with ErrAssembly unless path is a directory.
func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: directory %s: %w", distribution.ErrAssembly, path, errMissingOutput)
	}

	return nil
}

// requireFile fails with ErrAssembly unless path is a regular file.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: file %s: %w", distribution.ErrAssembly, path, errMissingOutput)
	}

	return nil
}
