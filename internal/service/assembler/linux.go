package assembler

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oshokin/love-distributor/internal/archive"
	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/logger"
	"github.com/oshokin/love-distributor/internal/metadata"
)

const (
	// appImageExtractFlag makes an AppImage unpack itself into squashfs-root.
	appImageExtractFlag = "--appimage-extract"
	// appImageTree is the directory the self-extraction produces.
	appImageTree = "squashfs-root"

	launcherMode = 0o755
	textMode     = 0o644
)

// assembleLinux unpacks the runtime AppImage, fuses the game into the tree,
// rebuilds a single AppImage with appimagetool and zips it.
func (a *Assembler) assembleLinux(ctx context.Context, in *Input) (string, error) {
	if in.HelperPath == "" {
		return "", fmt.Errorf("%w: %w", distribution.ErrAssembly, errHelperRequired)
	}

	name := in.Request.Identity.Name
	tree := filepath.Join(in.WorkDir, appImageTree)

	logger.Info(ctx, "Extracting runtime AppImage")

	if err := a.runTool(ctx, in.RuntimePath, []string{appImageExtractFlag}, in.WorkDir); err != nil {
		return "", err
	}

	if err := requireDir(tree); err != nil {
		return "", err
	}

	if err := archive.CopyFile(in.Request.GameArchivePath, filepath.Join(tree, GameFilename)); err != nil {
		return "", fmt.Errorf("copy game archive: %w", err)
	}

	if err := overlay(ctx, in.Request.ExtraFilesPath, tree); err != nil {
		return "", err
	}

	desktop, err := metadata.DesktopEntry(name)
	if err != nil {
		return "", err
	}

	if err = writeText(filepath.Join(tree, metadata.DesktopEntryFilename), desktop, textMode); err != nil {
		return "", err
	}

	launcher, err := metadata.Launcher()
	if err != nil {
		return "", err
	}

	if err = writeText(filepath.Join(tree, filepath.FromSlash(metadata.LauncherPath)), launcher, launcherMode); err != nil {
		return "", err
	}

	image := name + "-linux-x64.AppImage"

	logger.InfoKV(ctx, "Building AppImage", "image", image)

	if err = a.runTool(ctx, in.HelperPath, []string{appImageTree, image}, in.WorkDir); err != nil {
		return "", err
	}

	if err = requireFile(filepath.Join(in.WorkDir, image)); err != nil {
		return "", err
	}

	artifact := filepath.Join(in.WorkDir, in.Request.ArtifactName())

	if err = archive.WriteZip(artifact, in.WorkDir, image); err != nil {
		return "", fmt.Errorf("%w: %w", distribution.ErrAssembly, err)
	}

	return artifact, nil
}
