package distribution

import "errors"

// Error kinds. Stages wrap their causes with one of these so callers can
// classify failures with errors.Is.
var (
	// ErrValidation marks bad or missing input paths and arguments.
	ErrValidation = errors.New("validation error")
	// ErrDownload marks network failures, bad statuses and truncated transfers.
	ErrDownload = errors.New("download error")
	// ErrArchive marks corrupt archives, path traversal and unexpected layouts.
	ErrArchive = errors.New("archive error")
	// ErrAssembly marks external helpers that did not produce their documented output.
	ErrAssembly = errors.New("assembly error")
	// ErrPatch marks metadata keys that could not be found.
	ErrPatch = errors.New("patch error")
	// ErrIO marks failures to create or write the output directory.
	ErrIO = errors.New("io error")
)
