package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/oshokin/love-distributor/internal/logger"
)

// Runner invokes external programs. Tests substitute a fake that records calls.
type Runner interface {
	// Run executes command with args inside workDir and returns its exit code
	// and combined output. A non-nil error means the program could not be run
	// to completion (not found, timed out, canceled); a non-zero exit code alone
	// is not an error.
	Run(ctx context.Context, command string, args []string, workDir string) (int, []byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	// timeout bounds every invocation; zero disables the bound.
	timeout time.Duration
}

// waitDelay bounds how long output is drained after the process is killed.
const waitDelay = 5 * time.Second

// ErrTimeout is returned when an invocation exceeds its timeout.
var ErrTimeout = errors.New("external tool timed out")

// NewExecRunner returns a Runner applying timeout to every invocation.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, command string, args []string, workDir string) (int, []byte, error) {
	runCtx := ctx

	if r.timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logger.DebugKV(ctx, "Running external tool", "command", command, "args", args, "dir", workDir)

	var output bytes.Buffer

	cmd := exec.CommandContext(runCtx, command, args...)
	cmd.Dir = workDir
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return -1, output.Bytes(), fmt.Errorf("%s after %s: %w", command, r.timeout, ErrTimeout)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, output.Bytes(), fmt.Errorf("%s: %w", command, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), output.Bytes(), nil
	}

	if err != nil {
		return -1, output.Bytes(), fmt.Errorf("run %s: %w", command, err)
	}

	return 0, output.Bytes(), nil
}
