// Package archive implements the zip and tar primitives used by every
// platform assembler: guarded extraction, zip creation that keeps symbolic
// links verbatim, and plain file copies and concatenations.
//
// Extraction never writes outside the destination directory. Every write
// goes through an os.Root opened on it, so links already on disk cannot
// redirect a member. Entries whose path or link target would escape it fail
// with distribution.ErrArchive.
package archive
