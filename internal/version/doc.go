// Package version exposes build metadata for love-distributor.
//
// Version, Commit and BuildTime are injected via ldflags. UserAgent identifies
// the tool to release hosts.
package version
