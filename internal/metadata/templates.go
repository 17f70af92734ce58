package metadata

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"mvdan.cc/sh/v3/syntax"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

const (
	// DesktopEntryFilename is written to the root of the AppImage tree.
	DesktopEntryFilename = "love.desktop"
	// LauncherPath is the launcher location relative to the AppImage tree.
	LauncherPath = "usr/bin/wrapper-love"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//nolint:gochecknoglobals // Parsed once from embedded, read-only data.
var templates = template.Must(template.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl"))

// templateData holds the substitution points of the Linux templates.
type templateData struct {
	Name string
}

// DesktopEntry renders the desktop entry for the named distribution.
func DesktopEntry(name string) (string, error) {
	return render("love.desktop.tmpl", templateData{Name: name})
}

// Launcher renders the wrapper-love launcher and checks that it parses as a
// POSIX shell script.
func Launcher() (string, error) {
	script, err := render("wrapper-love.sh.tmpl", templateData{})
	if err != nil {
		return "", err
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err = parser.Parse(strings.NewReader(script), "wrapper-love"); err != nil {
		return "", fmt.Errorf("%w: launcher script: %w", distribution.ErrAssembly, err)
	}

	return script, nil
}

func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer

	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("%w: render %s: %w", distribution.ErrAssembly, name, err)
	}

	return buf.String(), nil
}
