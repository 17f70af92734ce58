package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// refreshInterval limits how often the progress line is redrawn.
const refreshInterval = 100 * time.Millisecond

// IsTerminalFunc reports whether a file descriptor is a terminal.
// Tests override it.
//
//nolint:gochecknoglobals // Swappable for tests.
var IsTerminalFunc = term.IsTerminal

// Enabled reports whether progress should be drawn on f.
func Enabled(f *os.File) bool {
	return f != nil && IsTerminalFunc(int(f.Fd())) //nolint:gosec // File descriptors fit in int.
}

// Writer counts bytes written through it and redraws a one-line status.
type Writer struct {
	mu        sync.Mutex
	writer    io.Writer
	output    io.Writer
	label     string
	total     int64
	written   int64
	lastPrint time.Time
}

// NewWriter wraps w. total may be <= 0 when the size is unknown.
func NewWriter(w io.Writer, total int64, output io.Writer, label string) *Writer {
	return &Writer{
		writer: w,
		output: output,
		label:  label,
		total:  total,
	}
}

// Write implements io.Writer.
func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	if n > 0 {
		pw.mu.Lock()
		pw.written += int64(n)
		pw.print(false)
		pw.mu.Unlock()
	}

	return n, err
}

// Written returns the number of bytes written so far.
func (pw *Writer) Written() int64 {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	return pw.written
}

// Finish draws the final state and ends the line.
func (pw *Writer) Finish() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.print(true)
	_, _ = fmt.Fprintln(pw.output)
}

func (pw *Writer) print(force bool) {
	now := time.Now()
	if !force && now.Sub(pw.lastPrint) < refreshInterval {
		return
	}

	pw.lastPrint = now

	line := pw.label + " " + formatBytes(pw.written)
	if pw.total > 0 {
		line = fmt.Sprintf("%s / %s (%3.0f%%)", line, formatBytes(pw.total), float64(pw.written)*100/float64(pw.total))
	}

	_, _ = fmt.Fprintf(pw.output, "\r%-80s", strings.TrimSpace(line))
}

// formatBytes renders n with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
