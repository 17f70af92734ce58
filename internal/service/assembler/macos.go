package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/love-distributor/internal/archive"
	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/logger"
	"github.com/oshokin/love-distributor/internal/metadata"
)

const (
	macStage     = "macos"
	runtimeApp   = "love.app"
	appExtension = ".app"
)

// assembleMacOS drops the game into love.app, patches Info.plist, renames
// the bundle and zips it with symlinks intact.
func (a *Assembler) assembleMacOS(ctx context.Context, in *Input) (string, error) {
	name := in.Request.Identity.Name
	stage := filepath.Join(in.WorkDir, macStage)

	logger.InfoKV(ctx, "Extracting runtime", "archive", in.RuntimePath)

	if err := archive.ExtractZip(in.RuntimePath, stage); err != nil {
		return "", err
	}

	bundle := filepath.Join(stage, runtimeApp)
	resources := filepath.Join(bundle, "Contents", "Resources")

	if info, err := os.Stat(resources); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s/Contents/Resources: %w", distribution.ErrArchive, runtimeApp, errUnexpectedLayout)
	}

	if err := archive.CopyFile(in.Request.GameArchivePath, filepath.Join(resources, GameFilename)); err != nil {
		return "", fmt.Errorf("copy game archive: %w", err)
	}

	if err := overlay(ctx, in.Request.ExtraFilesPath, resources); err != nil {
		return "", err
	}

	if err := a.patchInfoPlist(ctx, filepath.Join(bundle, "Contents", "Info.plist"), in.Request.Identity); err != nil {
		return "", err
	}

	renamed := filepath.Join(stage, name+appExtension)
	if renamed != bundle {
		if err := os.Rename(bundle, renamed); err != nil {
			return "", fmt.Errorf("rename %s to %s: %w", runtimeApp, filepath.Base(renamed), err)
		}
	}

	artifact := filepath.Join(in.WorkDir, in.Request.ArtifactName())

	if err := archive.WriteZip(artifact, stage, name+appExtension); err != nil {
		return "", fmt.Errorf("%w: %w", distribution.ErrAssembly, err)
	}

	return artifact, nil
}

func (a *Assembler) patchInfoPlist(ctx context.Context, path string, identity distribution.Identity) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: Info.plist: %w", distribution.ErrArchive, err)
	}

	text, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read Info.plist: %w", err)
	}

	result, err := metadata.PatchPlist(string(text), identity, metadata.PatchOptions{
		AllowMissingKeys: a.lenientMetadata,
	})
	if err != nil {
		return err
	}

	for _, key := range result.Missing {
		logger.WarnKV(ctx, "Info.plist key not found, left unchanged", "key", key)
	}

	if err = writeText(path, result.Text, info.Mode().Perm()); err != nil {
		return err
	}

	logger.Debug(ctx, "Info.plist patched")

	return nil
}
