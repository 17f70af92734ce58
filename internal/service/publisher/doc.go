// Package publisher copies finished artifacts from the workspace into the
// caller's output directory.
package publisher
