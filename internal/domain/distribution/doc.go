// Package distribution contains core domain types for packaging a game.
//
// It defines Request (the immutable description of one run), the Platform and
// Arch selectors, artifact naming rules and the error taxonomy shared by every
// stage of the pipeline.
package distribution
