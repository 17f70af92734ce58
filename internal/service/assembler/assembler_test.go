package assembler

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/testutil"
)

const gameBytes = "PK\x03\x04synthetic-game-archive"

// member is a zip entry as read back from an artifact.
type member struct {
	body string
	mode os.FileMode
}

func readZip(t *testing.T, path string) map[string]member {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		_ = r.Close()
	}()

	members := make(map[string]member, len(r.File))

	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		members[f.Name] = member{body: string(data), mode: f.Mode()}
	}

	return members
}

// setup writes the game, optional overlay and runtime into a fresh workspace.
func setup(t *testing.T, in distribution.Input, runtime []byte, extra []byte) *Input {
	t.Helper()

	src := t.TempDir()
	work := t.TempDir()

	in.GameArchivePath = testutil.WriteFile(t, src, "game.love", []byte(gameBytes))
	in.OutputDir = filepath.Join(src, "out")

	if extra != nil {
		in.ExtraFilesPath = testutil.WriteFile(t, src, "extra.tar", extra)
	}

	req, err := distribution.NewRequest(in)
	require.NoError(t, err)

	runtimePath := filepath.Join(work, "runtime.bin")
	require.NoError(t, os.WriteFile(runtimePath, runtime, 0o755))

	return &Input{Request: req, RuntimePath: runtimePath, WorkDir: work}
}

// TestAssemble_Windows checks the fused executable, removed launchers,
// overlay precedence and member paths rooted at the distribution name.
func TestAssemble_Windows(t *testing.T) {
	t.Parallel()

	in := setup(t,
		distribution.Input{Platform: "windows", Name: "MyGame", WindowsArch: "x64"},
		testutil.WindowsRuntimeZip(t, "love-11.3-win64"),
		testutil.TarBytes(t,
			testutil.Entry{Name: "license.txt", Body: "game license"},
			testutil.Entry{Name: "saves/readme.txt", Body: "saves"},
		),
	)

	artifact, err := New(&testutil.FakeRunner{}).Assemble(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(in.WorkDir, "MyGame-windows-x64.zip"), artifact)

	members := readZip(t, artifact)

	require.Equal(t, testutil.LauncherBytes+gameBytes, members["MyGame/MyGame.exe"].body)
	require.Equal(t, "game license", members["MyGame/license.txt"].body)
	require.Equal(t, "saves", members["MyGame/saves/readme.txt"].body)
	require.Contains(t, members, "MyGame/SDL2.dll")
	require.NotContains(t, members, "MyGame/love.exe")
	require.NotContains(t, members, "MyGame/lovec.exe")

	for name := range members {
		require.Regexp(t, `^MyGame/`, name)
	}
}

// TestAssemble_WindowsSoleDirectory accepts a differently named single top-level directory.
func TestAssemble_WindowsSoleDirectory(t *testing.T) {
	t.Parallel()

	in := setup(t,
		distribution.Input{Platform: "windows", Name: "love", WindowsArch: "x86"},
		testutil.WindowsRuntimeZip(t, "love-11.3.0-win32-custom"),
		nil,
	)

	artifact, err := New(&testutil.FakeRunner{}).Assemble(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "love-windows-x86.zip", filepath.Base(artifact))

	members := readZip(t, artifact)
	require.Equal(t, testutil.LauncherBytes+gameBytes, members["love/love.exe"].body)
	require.NotContains(t, members, "love/lovec.exe")
}

// TestAssemble_WindowsUnexpectedLayout rejects runtimes without a single top-level directory.
func TestAssemble_WindowsUnexpectedLayout(t *testing.T) {
	t.Parallel()

	in := setup(t,
		distribution.Input{Platform: "windows", Name: "MyGame"},
		testutil.ZipBytes(t,
			testutil.Entry{Name: "a/love.exe", Body: testutil.LauncherBytes},
			testutil.Entry{Name: "b/lovec.exe", Body: "console"},
		),
		nil,
	)

	_, err := New(&testutil.FakeRunner{}).Assemble(context.Background(), in)
	require.ErrorIs(t, err, distribution.ErrArchive)
}

// TestAssemble_Linux drives the simulated AppImage tools end to end.
func TestAssemble_Linux(t *testing.T) {
	t.Parallel()

	in := setup(t,
		distribution.Input{Platform: "linux", Name: "MyGame"},
		[]byte("runtime-appimage"),
		testutil.TarBytes(t, testutil.Entry{Name: "license.txt", Body: "game license"}),
	)
	in.HelperPath = filepath.Join(in.WorkDir, "appimagetool")

	runner := &testutil.FakeRunner{Handler: testutil.AppImageTools()}

	artifact, err := New(runner).Assemble(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(in.WorkDir, "MyGame-linux-x64.zip"), artifact)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, testutil.Call{Command: in.RuntimePath, Args: []string{"--appimage-extract"}, Dir: in.WorkDir}, calls[0])
	require.Equal(t, testutil.Call{
		Command: in.HelperPath,
		Args:    []string{"squashfs-root", "MyGame-linux-x64.AppImage"},
		Dir:     in.WorkDir,
	}, calls[1])

	members := readZip(t, artifact)
	require.Len(t, members, 1)
	require.Equal(t, "appimage:"+gameBytes, members["MyGame-linux-x64.AppImage"].body)

	tree := filepath.Join(in.WorkDir, "squashfs-root")

	desktop, err := os.ReadFile(filepath.Join(tree, "love.desktop"))
	require.NoError(t, err)
	require.Contains(t, string(desktop), "\nName=MyGame\n")
	require.Contains(t, string(desktop), "\nExec=wrapper-love\n")

	info, err := os.Stat(filepath.Join(tree, "usr", "bin", "wrapper-love"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	license, err := os.ReadFile(filepath.Join(tree, "license.txt"))
	require.NoError(t, err)
	require.Equal(t, "game license", string(license))
}

// TestAssemble_LinuxToolFailures maps every helper misbehaviour to ErrAssembly.
func TestAssemble_LinuxToolFailures(t *testing.T) {
	t.Parallel()

	simulate := testutil.AppImageTools()

	tests := []struct {
		name    string
		handler func(call testutil.Call) (int, []byte, error)
	}{
		{
			name: "extract exits non-zero",
			handler: func(testutil.Call) (int, []byte, error) {
				return 1, []byte("boom"), nil
			},
		},
		{
			name: "extract produces no tree",
			handler: func(testutil.Call) (int, []byte, error) {
				return 0, nil, nil
			},
		},
		{
			name: "bundling produces no image",
			handler: func(call testutil.Call) (int, []byte, error) {
				if len(call.Args) == 2 {
					return 0, nil, nil
				}

				return simulate(call)
			},
		},
		{
			name: "bundling cannot start",
			handler: func(call testutil.Call) (int, []byte, error) {
				if len(call.Args) == 2 {
					return -1, nil, os.ErrPermission
				}

				return simulate(call)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := setup(t, distribution.Input{Platform: "linux", Name: "MyGame"}, []byte("runtime"), nil)
			in.HelperPath = filepath.Join(in.WorkDir, "appimagetool")

			_, err := New(&testutil.FakeRunner{Handler: tt.handler}).Assemble(context.Background(), in)
			require.ErrorIs(t, err, distribution.ErrAssembly)
		})
	}
}

// TestAssemble_MacOS checks the bundle rename, resources, patched plist and preserved symlinks.
func TestAssemble_MacOS(t *testing.T) {
	t.Parallel()

	in := setup(t,
		distribution.Input{
			Platform:         "macos",
			Name:             "MyGame",
			BundleIdentifier: "com.example.mygame",
			Copyright:        "© 2024 Example & Co",
		},
		testutil.MacRuntimeZip(t),
		testutil.TarBytes(t, testutil.Entry{Name: "license.txt", Body: "game license"}),
	)

	artifact, err := New(&testutil.FakeRunner{}).Assemble(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "MyGame-macos-x64.zip", filepath.Base(artifact))

	members := readZip(t, artifact)

	require.Equal(t, gameBytes, members["MyGame.app/Contents/Resources/game.love"].body)
	require.Equal(t, "game license", members["MyGame.app/Contents/Resources/license.txt"].body)

	plist := members["MyGame.app/Contents/Info.plist"].body
	require.Contains(t, plist, "<string>com.example.mygame</string>")
	require.Contains(t, plist, "<string>MyGame</string>")
	require.Contains(t, plist, "<string>© 2024 Example &amp; Co</string>")
	require.NotContains(t, plist, "UTExportedTypeDeclarations")

	link := members["MyGame.app/Contents/Frameworks/SDL2.framework/Versions/Current"]
	require.NotZero(t, link.mode&os.ModeSymlink)
	require.Equal(t, "A", link.body)

	for name := range members {
		require.Regexp(t, `^MyGame\.app/`, name)
	}
}

// TestAssemble_MacOSMissingKey fails strictly and succeeds when lenient.
func TestAssemble_MacOSMissingKey(t *testing.T) {
	t.Parallel()

	runtime := testutil.ZipBytes(t,
		testutil.Entry{Name: "love.app/Contents/Info.plist", Body: "<plist><dict></dict></plist>\n"},
		testutil.Entry{Name: "love.app/Contents/Resources/license.txt", Body: "runtime license"},
	)

	input := distribution.Input{
		Platform:         "macos",
		Name:             "MyGame",
		BundleIdentifier: "com.example.mygame",
		Copyright:        "Example",
	}

	_, err := New(&testutil.FakeRunner{}).Assemble(context.Background(), setup(t, input, runtime, nil))
	require.ErrorIs(t, err, distribution.ErrPatch)

	artifact, err := New(&testutil.FakeRunner{}, WithLenientMetadata(true)).
		Assemble(context.Background(), setup(t, input, runtime, nil))
	require.NoError(t, err)
	require.FileExists(t, artifact)
}

// TestAssemble_MacOSMissingResources rejects a runtime without the bundle layout.
func TestAssemble_MacOSMissingResources(t *testing.T) {
	t.Parallel()

	in := setup(t,
		distribution.Input{Platform: "macos", Name: "MyGame", BundleIdentifier: "id", Copyright: "c"},
		testutil.ZipBytes(t, testutil.Entry{Name: "Other.app/Contents/Info.plist", Body: testutil.InfoPlist}),
		nil,
	)

	_, err := New(&testutil.FakeRunner{}).Assemble(context.Background(), in)
	require.ErrorIs(t, err, distribution.ErrArchive)
}

// TestAssemble_OverlayReplacesRuntimeFiles checks that extra files win over
// files the runtime already ships, on every platform.
func TestAssemble_OverlayReplacesRuntimeFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   distribution.Input
		runtime func(t *testing.T) []byte
		replace string
		member  string
	}{
		{
			name:    "windows dll",
			input:   distribution.Input{Platform: "windows", Name: "MyGame", WindowsArch: "x64"},
			runtime: func(t *testing.T) []byte { return testutil.WindowsRuntimeZip(t, "love-11.3-win64") },
			replace: "SDL2.dll",
			member:  "MyGame/SDL2.dll",
		},
		{
			name: "macos resource",
			input: distribution.Input{
				Platform:         "macos",
				Name:             "MyGame",
				BundleIdentifier: "com.example.mygame",
				Copyright:        "Example",
			},
			runtime: testutil.MacRuntimeZip,
			replace: "license.txt",
			member:  "MyGame.app/Contents/Resources/license.txt",
		},
		{
			name:    "linux runtime binary",
			input:   distribution.Input{Platform: "linux", Name: "MyGame"},
			runtime: func(*testing.T) []byte { return []byte("runtime") },
			replace: "usr/bin/love",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			const replaced = "replaced by extra files"

			in := setup(t, tt.input, tt.runtime(t),
				testutil.TarBytes(t, testutil.Entry{Name: tt.replace, Body: replaced}))
			in.HelperPath = filepath.Join(in.WorkDir, "appimagetool")

			artifact, err := New(&testutil.FakeRunner{Handler: testutil.AppImageTools()}).
				Assemble(context.Background(), in)
			require.NoError(t, err)

			if tt.member == "" {
				// The AppImage itself is simulated; inspect the tree it was built from.
				got, err := os.ReadFile(filepath.Join(in.WorkDir, "squashfs-root", filepath.FromSlash(tt.replace)))
				require.NoError(t, err)
				require.Equal(t, replaced, string(got))

				return
			}

			require.Equal(t, replaced, readZip(t, artifact)[tt.member].body)
		})
	}
}
