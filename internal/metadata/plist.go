package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/oshokin/love-distributor/internal/domain/distribution"
)

// Info.plist keys rewritten by PatchPlist.
const (
	KeyBundleIdentifier = "CFBundleIdentifier"
	KeyBundleName       = "CFBundleName"
	KeyCopyright        = "NSHumanReadableCopyright"
	KeyExportedTypes    = "UTExportedTypeDeclarations"
)

var (
	errKeyNotFound     = errors.New("key not found")
	errUnbalancedArray = errors.New("unbalanced array")

	arrayTagPattern = regexp.MustCompile(`<array>|</array>|<array\s*/>`)
)

// PatchOptions controls how PatchPlist treats absent keys.
type PatchOptions struct {
	// AllowMissingKeys skips absent keys instead of failing with ErrPatch.
	AllowMissingKeys bool
}

// PatchResult is the rewritten descriptor and the keys that were not found.
type PatchResult struct {
	// Text is the patched property list.
	Text string
	// Missing lists the string keys that were absent (only with AllowMissingKeys).
	Missing []string
}

// PatchPlist rewrites the values of CFBundleIdentifier, CFBundleName and
// NSHumanReadableCopyright and removes the UTExportedTypeDeclarations array.
// Only the value directly following each key is touched. A missing string key
// fails with distribution.ErrPatch unless opts.AllowMissingKeys is set; the
// exported type declarations are optional.
func PatchPlist(text string, identity distribution.Identity, opts PatchOptions) (*PatchResult, error) {
	result := &PatchResult{Text: text}

	values := []struct {
		key   string
		value string
	}{
		{KeyBundleIdentifier, identity.BundleIdentifier},
		{KeyBundleName, identity.Name},
		{KeyCopyright, identity.Copyright},
	}

	for _, kv := range values {
		patched, found := replaceStringValue(result.Text, kv.key, kv.value)
		if !found {
			if !opts.AllowMissingKeys {
				return nil, fmt.Errorf("%w: %s: %w", distribution.ErrPatch, kv.key, errKeyNotFound)
			}

			result.Missing = append(result.Missing, kv.key)

			continue
		}

		result.Text = patched
	}

	patched, err := removeArrayValue(result.Text, KeyExportedTypes)
	if err != nil {
		return nil, err
	}

	result.Text = patched

	return result, nil
}

// replaceStringValue swaps the <string> value directly following <key>key</key>.
// Values may span lines; markup inside a value is always escaped, so the
// match cannot run past its own closing tag.
func replaceStringValue(text, key, value string) (string, bool) {
	pattern := regexp.MustCompile(`(<key>` + regexp.QuoteMeta(key) + `</key>\s*)(?:<string>[^<]*</string>|<string\s*/>)`)

	matches := pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, false
	}

	replacement := "<string>" + escapeXML(value) + "</string>"

	var sb strings.Builder

	last := 0

	for _, m := range matches {
		sb.WriteString(text[last:m[3]])
		sb.WriteString(replacement)

		last = m[1]
	}

	sb.WriteString(text[last:])

	return sb.String(), true
}

// removeArrayValue deletes <key>key</key> and the <array> following it,
// including nested arrays, together with the lines they occupied.
func removeArrayValue(text, key string) (string, error) {
	pattern := regexp.MustCompile(`<key>` + regexp.QuoteMeta(key) + `</key>\s*<array>`)

	loc := pattern.FindStringIndex(text)
	if loc == nil {
		return text, nil
	}

	depth := 1
	end := -1

	for _, tag := range arrayTagPattern.FindAllStringIndex(text[loc[1]:], -1) {
		switch text[loc[1]+tag[0] : loc[1]+tag[1]] {
		case "<array>":
			depth++
		case "</array>":
			depth--
		}

		if depth == 0 {
			end = loc[1] + tag[1]

			break
		}
	}

	if end < 0 {
		return "", fmt.Errorf("%w: %s: %w", distribution.ErrPatch, key, errUnbalancedArray)
	}

	// Drop the indentation before the key and the line break after the array.
	start := loc[0]
	if lineStart := strings.LastIndexByte(text[:start], '\n') + 1; strings.TrimSpace(text[lineStart:start]) == "" {
		start = lineStart
	}

	if trimmed := strings.TrimLeft(text[end:], " \t"); strings.HasPrefix(trimmed, "\n") {
		end = len(text) - len(trimmed) + 1
	}

	return text[:start] + text[end:], nil
}

func escapeXML(s string) string {
	var buf bytes.Buffer

	_ = xml.EscapeText(&buf, []byte(s))

	return buf.String()
}
