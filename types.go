package epubdoc

import "strings"

// Resource describes a single manifest entry: one file inside the archive.
type Resource struct {
	// ID is the manifest id, unique within the document.
	ID string

	// Path is the canonical archive path of the resource, resolved against
	// the package document's directory. Usable directly for archive lookup.
	Path string

	// MediaType is the declared MIME type (e.g., "application/xhtml+xml").
	MediaType string

	// Properties contains space-separated property tokens
	// (e.g., "nav", "cover-image"). Empty for most resources.
	Properties string
}

// HasProperty reports whether the resource declares the given property
// token (space-separated token matching).
func (r Resource) HasProperty(name string) bool {
	for _, p := range strings.Fields(r.Properties) {
		if p == name {
			return true
		}
	}
	return false
}

// SpineItem is one entry of the ordered reading sequence.
type SpineItem struct {
	// ID is the manifest id referenced by this spine entry.
	ID string

	// Path is the canonical archive path of the referenced resource.
	Path string

	// MediaType is the declared MIME type of the referenced resource.
	MediaType string

	// Linear reports whether the entry belongs to the primary reading
	// order. Entries with linear="no" in the package document are
	// auxiliary content (notes, answer keys).
	Linear bool
}

// NavPoint is a single entry in the table of contents. The TOC is a tree;
// each point owns its children exclusively.
type NavPoint struct {
	// Label is the display text. Never empty for a well-formed entry.
	Label string

	// Path is the canonical archive path of the target, or "" for a pure
	// grouping heading without a target.
	Path string

	// Fragment is the anchor inside the target document, without the "#".
	// Fragments are never part of archive entry names, so the field is
	// kept separate from Path.
	Fragment string

	// SpineIndex is the position of the target in the spine, or -1 when
	// the target is not a spine entry.
	SpineIndex int

	// Children contains nested entries in source order.
	Children []NavPoint
}

// GuideReference is one entry of the package document's <guide> section,
// pointing at a structural component such as the cover or the start of
// the text.
type GuideReference struct {
	// Type is the reference type (e.g., "cover", "toc", "text").
	Type string

	// Title is the optional human-readable label.
	Title string

	// Path is the canonical archive path of the target.
	Path string

	// Fragment is the anchor inside the target, without the "#".
	Fragment string
}

// Metadata holds the bibliographic fields extracted from the package
// document. Every field may carry zero, one, or many values; callers must
// not assume singularity. Unrecognized metadata tags are ignored during
// parsing.
type Metadata struct {
	// Titles contains all dc:title values in declared order.
	Titles []string

	// Creators contains all dc:creator entries (authors).
	Creators []Creator

	// Contributors contains all dc:contributor entries.
	Contributors []Creator

	// Languages contains all dc:language values (BCP 47 tags).
	Languages []string

	// Identifiers contains all dc:identifier entries (ISBN, UUID, URI).
	Identifiers []Identifier

	// Publishers contains all dc:publisher values.
	Publishers []string

	// Subjects contains all dc:subject values.
	Subjects []string

	// Descriptions contains all dc:description values.
	Descriptions []string

	// Dates contains all dc:date values as raw strings.
	Dates []string

	// Sources contains all dc:source values.
	Sources []string

	// Rights contains all dc:rights values.
	Rights []string

	// UniqueIdentifier is the value of the identifier element named by the
	// package unique-identifier attribute, or "" when unresolved.
	UniqueIdentifier string

	// Modified is the dcterms:modified timestamp (EPUB 3), or "".
	Modified string
}

// Title returns the primary (first) title, or "".
func (m Metadata) Title() string {
	if len(m.Titles) > 0 {
		return m.Titles[0]
	}
	return ""
}

// Creator returns the primary (first) creator name, or "".
func (m Metadata) Creator() string {
	if len(m.Creators) > 0 {
		return m.Creators[0].Name
	}
	return ""
}

// Creator represents a dc:creator or dc:contributor entry with optional
// normalization attributes.
type Creator struct {
	// Name is the display name (element text content).
	Name string

	// FileAs is the sorting form (e.g., "Dickens, Charles").
	FileAs string

	// Role is the MARC relator code (e.g., "aut", "edt", "trl").
	Role string
}

// Identifier represents a dc:identifier entry.
type Identifier struct {
	// Value is the identifier text content.
	Value string

	// Scheme is the identifier scheme (e.g., "ISBN", "UUID").
	Scheme string

	// ID is the xml id attribute of the identifier element, used to match
	// the package unique-identifier attribute.
	ID string
}

// CoverImage holds a detected cover image.
type CoverImage struct {
	// ID is the manifest id of the image resource.
	ID string

	// Path is the canonical archive path of the image.
	Path string

	// MediaType is the MIME type (e.g., "image/jpeg").
	MediaType string

	// Data is the raw image bytes.
	Data []byte
}
