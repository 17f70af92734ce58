// Package tool abstracts external programs (the AppImage runtime in
// self-extract mode, appimagetool) behind the Runner interface.
package tool
