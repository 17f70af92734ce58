package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644

	// maxLinkTarget bounds the size of a symlink member read from a zip.
	maxLinkTarget = 4096
)

var (
	errLinkTooLong  = errors.New("symlink target too long")
	errLinkOutsider = errors.New("hard link target outside archive")
)

// ExtractZip extracts the zip archive at path into destDir, restoring
// directories, regular files and symbolic links.
func ExtractZip(path, destDir string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: open zip %s: %w", distribution.ErrArchive, path, err)
	}

	defer func() {
		_ = r.Close()
	}()

	r.RegisterDecompressor(zip.Deflate, flate.NewReader)

	root, err := openBundleRoot(destDir)
	if err != nil {
		return err
	}

	defer root.Close()

	for _, f := range r.File {
		if err = extractZipEntry(f, root); err != nil {
			return err
		}
	}

	return nil
}

func extractZipEntry(f *zip.File, root *bundleRoot) error {
	name, err := entryName(f.Name)
	if err != nil {
		return err
	}

	mode := f.Mode()

	switch {
	case mode.IsDir():
		return root.mkdir(name)
	case mode&os.ModeSymlink != 0:
		linkTarget, err := readZipLink(f)
		if err != nil {
			return err
		}

		return root.writeSymlink(linkTarget, name)
	default:
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%w: open %s: %w", distribution.ErrArchive, f.Name, err)
		}

		defer func() {
			_ = rc.Close()
		}()

		return root.writeFile(name, rc, mode.Perm())
	}
}

// readZipLink returns the link target stored as the member's content.
func readZipLink(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", distribution.ErrArchive, f.Name, err)
	}

	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(rc, maxLinkTarget+1))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", distribution.ErrArchive, f.Name, err)
	}

	if len(data) > maxLinkTarget {
		return "", fmt.Errorf("%w: %s: %w", distribution.ErrArchive, f.Name, errLinkTooLong)
	}

	return string(data), nil
}

// ExtractTar extracts the tar archive at path into destDir. Gzip, bzip2, xz,
// zstd and lzip compression are detected from the leading magic bytes.
func ExtractTar(path, destDir string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: open tar %s: %w", distribution.ErrArchive, path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	stream, closeStream, err := decompress(bufio.NewReader(file))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", distribution.ErrArchive, path, err)
	}

	defer closeStream()

	root, err := openBundleRoot(destDir)
	if err != nil {
		return err
	}

	defer root.Close()

	return extractTarReader(tar.NewReader(stream), root)
}

var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicBzip2 = []byte("BZh")
	magicXz    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLzip  = []byte("LZIP")
)

// decompress wraps br with the decoder matching its magic bytes.
func decompress(br *bufio.Reader) (io.Reader, func(), error) {
	head, err := br.Peek(len(magicXz))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}

	noop := func() {}

	switch {
	case bytes.HasPrefix(head, magicGzip):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader: %w", err)
		}

		return zr, func() { _ = zr.Close() }, nil
	case bytes.HasPrefix(head, magicBzip2):
		return bzip2.NewReader(br), noop, nil
	case bytes.HasPrefix(head, magicXz):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("xz reader: %w", err)
		}

		return xr, noop, nil
	case bytes.HasPrefix(head, magicZstd):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd reader: %w", err)
		}

		return zr, zr.Close, nil
	case bytes.HasPrefix(head, magicLzip):
		lr, err := lzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("lzip reader: %w", err)
		}

		return lr, noop, nil
	default:
		return br, noop, nil
	}
}

func extractTarReader(tr *tar.Reader, root *bundleRoot) error {
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("%w: read tar header: %w", distribution.ErrArchive, err)
		}

		name, err := entryName(header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			err = root.mkdir(name)
		case tar.TypeReg:
			err = root.writeFile(name, tr, os.FileMode(header.Mode).Perm()) //nolint:gosec // Mode bits come from a tar header.
		case tar.TypeSymlink:
			err = root.writeSymlink(header.Linkname, name)
		case tar.TypeLink:
			err = root.writeHardLink(header.Linkname, name)
		default:
			// Devices, FIFOs and other special files are not part of a bundle.
			continue
		}

		if err != nil {
			return err
		}
	}
}
