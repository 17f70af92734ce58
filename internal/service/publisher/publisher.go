package publisher

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

const outputDirMode = 0o755

var errNotADirectory = errors.New("output path exists and is not a directory")

// Publish creates outputDir if needed (one level only) and copies every
// artifact named after name that exists in workDir. Absent artifacts are
// skipped. It returns the paths written in outputDir.
func Publish(ctx context.Context, workDir, outputDir, name string) ([]string, error) {
	ctx = logger.WithKV(ctx, "output_dir", outputDir)

	if err := ensureDir(outputDir); err != nil {
		return nil, err
	}

	var published []string

	for _, artifact := range distribution.ArtifactNames(name) {
		src := filepath.Join(workDir, artifact)

		info, err := os.Stat(src)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return published, fmt.Errorf("%w: stat %s: %w", distribution.ErrIO, artifact, err)
		}

		if !info.Mode().IsRegular() {
			continue
		}

		dst := filepath.Join(outputDir, artifact)

		if err = archive.CopyFile(src, dst); err != nil {
			return published, fmt.Errorf("%w: %w", distribution.ErrIO, err)
		}

		logger.InfoKV(ctx, "Artifact published", "path", dst)

		published = append(published, dst)
	}

	if len(published) == 0 {
		logger.Warn(ctx, "No artifacts found to publish")
	}

	return published, nil
}

// ensureDir creates dir when absent. Its parent must already exist.
func ensureDir(dir string) error {
	err := os.Mkdir(dir, outputDirMode)
	if err == nil {
		return nil
	}

	if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: create output directory: %w", distribution.ErrIO, err)
	}

	info, statErr := os.Stat(dir)
	if statErr != nil {
		return fmt.Errorf("%w: output directory: %w", distribution.ErrIO, statErr)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s: %w", distribution.ErrIO, dir, errNotADirectory)
	}

	return nil
}
