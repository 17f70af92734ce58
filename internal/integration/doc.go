// Package integration holds end-to-end tests that run the distributor against
// a local TLS release server.
package integration
