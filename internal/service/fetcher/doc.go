// Package fetcher resolves a (runtime version, platform, arch) triple to the
// pinned LÖVE release and, for Linux, the appimagetool helper, and downloads
// them into the run's workspace.
//
// Downloads are HTTPS only, bounded by a timeout and checked against the
// announced Content-Length. Any failure wraps distribution.ErrDownload and is
// fatal; there are no retries and nothing is cached across runs.
package fetcher
