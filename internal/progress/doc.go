// Package progress draws a single-line download status on interactive terminals.
package progress
