package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
)

// WriteZip writes outPath containing every root (files or directory trees)
// named relative to baseDir, so member paths start with the root names.
// Symbolic links are stored as links, never dereferenced. Member order
// follows the directory walk and is not guaranteed to be stable.
func WriteZip(outPath, baseDir string, roots ...string) (err error) {
	out, err := os.Create(filepath.Clean(outPath))
	if err != nil {
		return fmt.Errorf("create zip %s: %w", outPath, err)
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close zip %s: %w", outPath, closeErr)
		}
	}()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	for _, root := range roots {
		if err = addTree(zw, baseDir, root); err != nil {
			_ = zw.Close()

			return err
		}
	}

	if err = zw.Close(); err != nil {
		return fmt.Errorf("finish zip %s: %w", outPath, err)
	}

	return nil
}

// addTree walks baseDir/root and appends every entry to zw.
func addTree(zw *zip.Writer, baseDir, root string) error {
	return filepath.WalkDir(filepath.Join(baseDir, root), func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		return addEntry(zw, path, filepath.ToSlash(rel), info)
	})
}

func addEntry(zw *zip.Writer, path, name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", path, err)
	}

	header.Name = name

	switch {
	case info.IsDir():
		header.Name += "/"
		header.Method = zip.Store

		_, err = zw.CreateHeader(header)

		return err
	case info.Mode()&os.ModeSymlink != 0:
		linkTarget, err := os.Readlink(path)
		if err != nil {
			return fmt.Errorf("read symlink %s: %w", path, err)
		}

		header.Method = zip.Store

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		_, err = io.WriteString(w, filepath.ToSlash(linkTarget))

		return err
	case info.Mode().IsRegular():
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		return copyFrom(w, path)
	default:
		return nil
	}
}

func copyFrom(w io.Writer, path string) error {
	in, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	if _, err = io.Copy(w, in); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}

	return nil
}

// CopyFile copies src to dst byte for byte. dst gets 0644 permissions.
func CopyFile(src, dst string) error {
	return Concat(dst, fileMode, src)
}

// Concat writes the contents of srcs, in order and without framing, to dst.
func Concat(dst string, perm os.FileMode, srcs ...string) (err error) {
	if err = clearForWrite(dst); err != nil {
		return fmt.Errorf("replace %s: %w", dst, err)
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", dst, closeErr)
		}
	}()

	for _, src := range srcs {
		if err = copyFrom(out, src); err != nil {
			return err
		}
	}

	return nil
}
