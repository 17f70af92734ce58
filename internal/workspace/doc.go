// Package workspace provides the disposable scratch directory each run works in.
package workspace
