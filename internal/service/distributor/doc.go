// Package distributor is the entry point of a run: it validates the request,
// then fetches the runtime, assembles the platform artifact and publishes it
// from a private workspace that is removed on every exit path.
package distributor
