// Package testutil builds synthetic LÖVE runtime archives, extra-files
// overlays and a scripted tool.Runner for tests.
package testutil
