package assembler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/love-distributor/internal/archive"
	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/logger"
)

const (
	windowsStage     = "windows"
	guiLauncher      = "love.exe"
	consoleLauncher  = "lovec.exe"
	fusedLauncherExt = ".exe"
)

// assembleWindows fuses the game onto love.exe inside the renamed runtime
// directory and zips that directory.
func (a *Assembler) assembleWindows(ctx context.Context, in *Input) (string, error) {
	name := in.Request.Identity.Name
	stage := filepath.Join(in.WorkDir, windowsStage)

	logger.InfoKV(ctx, "Extracting runtime", "archive", in.RuntimePath)

	if err := archive.ExtractZip(in.RuntimePath, stage); err != nil {
		return "", err
	}

	top, err := windowsTopDir(stage, in.Request)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(stage, name)
	if top != dir {
		if err = os.Rename(top, dir); err != nil {
			return "", fmt.Errorf("rename %s to %s: %w", filepath.Base(top), name, err)
		}
	}

	// The stock launcher leaves the bundle before fusing since name may be "love".
	launcher := filepath.Join(stage, guiLauncher)
	if err = os.Rename(filepath.Join(dir, guiLauncher), launcher); err != nil {
		return "", fmt.Errorf("%w: %s: %w", distribution.ErrArchive, guiLauncher, errUnexpectedLayout)
	}

	fused := name + fusedLauncherExt

	logger.InfoKV(ctx, "Fusing game into launcher", "exe", fused)

	if err = archive.Concat(filepath.Join(dir, fused), launcherMode, launcher, in.Request.GameArchivePath); err != nil {
		return "", fmt.Errorf("fuse executable: %w", err)
	}

	if fused != consoleLauncher {
		err = os.Remove(filepath.Join(dir, consoleLauncher))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("remove %s: %w", consoleLauncher, err)
		}
	}

	if err = overlay(ctx, in.Request.ExtraFilesPath, dir); err != nil {
		return "", err
	}

	artifact := filepath.Join(in.WorkDir, in.Request.ArtifactName())

	if err = archive.WriteZip(artifact, stage, name); err != nil {
		return "", fmt.Errorf("%w: %w", distribution.ErrAssembly, err)
	}

	return artifact, nil
}

// windowsTopDir finds love-<version>-win32|win64 below stage, falling back to
// the only top-level directory when the release used another name.
func windowsTopDir(stage string, req *distribution.Request) (string, error) {
	bits := "64"
	if req.Arch == distribution.ArchX86 {
		bits = "32"
	}

	expected := filepath.Join(stage, "love-"+req.RuntimeVersion+"-win"+bits)
	if info, err := os.Stat(expected); err == nil && info.IsDir() {
		return expected, nil
	}

	entries, err := os.ReadDir(stage)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", distribution.ErrArchive, stage, err)
	}

	if len(entries) != 1 || !entries[0].IsDir() {
		return "", fmt.Errorf("%w: want a single top-level directory like %s: %w",
			distribution.ErrArchive, filepath.Base(expected), errUnexpectedLayout)
	}

	return filepath.Join(stage, entries[0].Name()), nil
}
