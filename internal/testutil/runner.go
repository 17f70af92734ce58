package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// Call records one FakeRunner invocation.
type Call struct {
	Command string
	Args    []string
	Dir     string
}

// FakeRunner is a tool.Runner that hands every invocation to Handler.
type FakeRunner struct {
	// Handler simulates the program. A nil Handler succeeds with no output.
	Handler func(call Call) (int, []byte, error)

	mu    sync.Mutex
	calls []Call
}

// Run implements tool.Runner.
func (r *FakeRunner) Run(_ context.Context, command string, args []string, workDir string) (int, []byte, error) {
	call := Call{
		Command: command,
		Args:    append([]string(nil), args...),
		Dir:     workDir,
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if r.Handler == nil {
		return 0, nil, nil
	}

	return r.Handler(call)
}

// Calls returns the invocations seen so far.
func (r *FakeRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Call(nil), r.calls...)
}

// AppImageFlag is the self-extract argument understood by AppImage runtimes.
const AppImageFlag = "--appimage-extract"

// AppImageTools simulates the LÖVE AppImage and appimagetool. Self-extraction
// creates squashfs-root with a stock runtime tree; bundling writes the output
// image as "appimage:" followed by the tree's game.love.
func AppImageTools() func(call Call) (int, []byte, error) {
	return func(call Call) (int, []byte, error) {
		switch {
		case len(call.Args) == 1 && call.Args[0] == AppImageFlag:
			root := filepath.Join(call.Dir, "squashfs-root")
			files := map[string]string{
				"AppRun":       "#!/bin/sh\n",
				"love.desktop": "[Desktop Entry]\nName=LÖVE\n",
				"usr/bin/love": "elf-love",
				"license.txt":  "runtime license",
			}

			for name, body := range files {
				path := filepath.Join(root, name)
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return 1, []byte(err.Error()), nil
				}

				if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
					return 1, []byte(err.Error()), nil
				}
			}

			return 0, []byte("squashfs-root/AppRun\n"), nil
		case len(call.Args) == 2:
			game, err := os.ReadFile(filepath.Join(call.Dir, call.Args[0], "game.love"))
			if err != nil {
				return 1, []byte(err.Error()), nil
			}

			out := filepath.Join(call.Dir, call.Args[1])
			if err = os.WriteFile(out, append([]byte("appimage:"), game...), 0o755); err != nil {
				return 1, []byte(err.Error()), nil
			}

			return 0, []byte("Success\n"), nil
		default:
			return 2, []byte("unexpected arguments"), nil
		}
	}
}
