package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// LauncherBytes is the content of the synthetic love.exe. It starts with the
// PE "MZ" signature so fused executables can be recognized.
const LauncherBytes = "MZ\x90\x00synthetic-love-launcher"

// Entry describes one archive member. Link makes it a symbolic link.
type Entry struct {
	Name string
	Body string
	Mode os.FileMode
	Link string
}

// ZipBytes returns a zip archive holding entries in order.
func ZipBytes(t *testing.T, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		header := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}

		switch {
		case e.Link != "":
			header.Method = zip.Store
			header.SetMode(os.ModeSymlink | 0o755)
		case e.Mode != 0:
			header.SetMode(e.Mode)
		default:
			header.SetMode(0o644)
		}

		w, err := zw.CreateHeader(header)
		require.NoError(t, err)

		body := e.Body
		if e.Link != "" {
			body = e.Link
		}

		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// TarBytes returns an uncompressed tar archive holding entries in order.
func TarBytes(t *testing.T, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer

	tw := tar.NewWriter(&buf)

	for _, e := range entries {
		header := &tar.Header{Name: e.Name, Mode: 0o644, Typeflag: tar.TypeReg, Size: int64(len(e.Body))}

		if e.Mode != 0 {
			header.Mode = int64(e.Mode.Perm())
		}

		if e.Link != "" {
			header.Typeflag = tar.TypeSymlink
			header.Linkname = e.Link
			header.Size = 0
		}

		require.NoError(t, tw.WriteHeader(header))

		if e.Link == "" {
			_, err := tw.Write([]byte(e.Body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())

	return buf.Bytes()
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

// WindowsRuntimeZip mimics love-<version>-win32|win64.zip with its files under topDir.
func WindowsRuntimeZip(t *testing.T, topDir string) []byte {
	t.Helper()

	return ZipBytes(t,
		Entry{Name: topDir + "/love.exe", Body: LauncherBytes, Mode: 0o755},
		Entry{Name: topDir + "/lovec.exe", Body: "MZ-console-launcher", Mode: 0o755},
		Entry{Name: topDir + "/love.dll", Body: "love-library"},
		Entry{Name: topDir + "/SDL2.dll", Body: "sdl-library"},
		Entry{Name: topDir + "/license.txt", Body: "runtime license"},
	)
}

// InfoPlist is a trimmed LÖVE Info.plist carrying every key the patcher touches.
const InfoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleExecutable</key>
	<string>love</string>
	<key>CFBundleIdentifier</key>
	<string>org.love2d.love</string>
	<key>CFBundleName</key>
	<string>LÖVE</string>
	<key>NSHumanReadableCopyright</key>
	<string>© 2006-2019 LÖVE Development Team</string>
	<key>UTExportedTypeDeclarations</key>
	<array>
		<dict>
			<key>UTTypeIdentifier</key>
			<string>org.love2d.love-game</string>
		</dict>
	</array>
</dict>
</plist>
`

// MacRuntimeZip mimics love-<version>-macos.zip, including a framework
// symlink chain.
func MacRuntimeZip(t *testing.T) []byte {
	t.Helper()

	const fw = "love.app/Contents/Frameworks/SDL2.framework/"

	return ZipBytes(t,
		Entry{Name: "love.app/Contents/Info.plist", Body: InfoPlist},
		Entry{Name: "love.app/Contents/MacOS/love", Body: "mach-o-launcher", Mode: 0o755},
		Entry{Name: "love.app/Contents/Resources/license.txt", Body: "runtime license"},
		Entry{Name: fw + "Versions/A/SDL2", Body: "sdl-framework", Mode: 0o755},
		Entry{Name: fw + "Versions/Current", Link: "A"},
		Entry{Name: fw + "SDL2", Link: "Versions/Current/SDL2"},
	)
}
