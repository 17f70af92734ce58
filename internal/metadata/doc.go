// Package metadata produces and rewrites the platform descriptors of a bundle:
// the Linux desktop entry and launcher script (rendered from embedded
// templates) and the macOS Info.plist (patched in place, key by key).
package metadata
