package epubdoc

import "errors"

// Sentinel errors returned by the epubdoc package. Errors returned from
// parsing and lookup functions wrap one of these, so callers should test
// with errors.Is.
var (
	// ErrMalformedContainer indicates META-INF/container.xml is missing,
	// unparseable, or names no package document, and no package document
	// could be inferred from the archive.
	ErrMalformedContainer = errors.New("epubdoc: malformed container")

	// ErrMalformedPackage indicates the package document (OPF) is
	// structurally invalid or lacks a required section (manifest, spine).
	ErrMalformedPackage = errors.New("epubdoc: malformed package document")

	// ErrMalformedNavigation indicates the navigation source (nav document
	// or NCX) could not be parsed. It never escapes document construction;
	// navigation failures degrade to an empty table of contents.
	ErrMalformedNavigation = errors.New("epubdoc: malformed navigation")

	// ErrDanglingReference indicates a spine entry references a manifest
	// id that does not exist.
	ErrDanglingReference = errors.New("epubdoc: dangling manifest reference")

	// ErrResourceNotFound indicates a manifest id is unknown or the
	// resource's archive entry does not exist.
	ErrResourceNotFound = errors.New("epubdoc: resource not found")

	// ErrDecoding indicates a text resource could not be decoded: its
	// declared encoding label is unknown, or the bytes are not valid text
	// in the chosen encoding.
	ErrDecoding = errors.New("epubdoc: text decoding failed")

	// ErrOutOfBounds indicates a cursor move to a spine index outside
	// [0, len(spine)-1]. The cursor position is left unchanged.
	ErrOutOfBounds = errors.New("epubdoc: spine index out of bounds")

	// ErrNoCover indicates no cover image could be detected.
	ErrNoCover = errors.New("epubdoc: no cover image found")
)
