package epubdoc

import (
	"archive/zip"
	"fmt"
	"io"
)

// expectedMimetype is the required content of the "mimetype" archive entry.
const expectedMimetype = "application/epub+zip"

// defaultLinkPrefix is prepended to rewritten internal links. See
// Document.SetLinkPrefix.
const defaultLinkPrefix = "epub://"

// Document is the assembled, queryable representation of an opened EPUB:
// metadata, manifest, spine, navigation tree, and lazy content access.
// Use Open or NewReader to construct one.
//
// After construction every field is immutable except the built-in cursor
// and the link-rewrite configuration, so concurrent read-only use is safe.
// Callers sharing a Document across goroutines must guard the built-in
// cursor externally or give each session its own cursor from NewCursor,
// and must finish configuring rewriting before sharing.
type Document struct {
	archive archiveReader
	closer  io.Closer // non-nil only when created via Open

	pkgPath     string
	baseDir     string
	version     string
	metadata    Metadata
	manifest    map[string]Resource
	order       []string // manifest ids in document order
	pathIndex   map[string]string
	spine       []SpineItem
	guide       []GuideReference
	toc         []NavPoint
	landmarks   []NavPoint
	navID       string
	ncxID       string
	coverMetaID string
	warnings    []string

	cursor   Cursor
	prefix   string
	extraCSS []string
}

// Open opens the EPUB file at the given path. The caller must call Close
// when done.
func Open(path string) (*Document, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("epubdoc: open %s: %w", path, err)
	}

	d, err := newDocument(&zrc.Reader, zrc)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	return d, nil
}

// NewReader constructs a Document from an io.ReaderAt with the given size.
// The caller owns the lifetime of r; Close only clears internal state.
func NewReader(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epubdoc: open archive: %w", err)
	}
	return newDocument(zr, nil)
}

// newDocument runs the construction pipeline: mimetype check, container
// location, package parse, navigation build. Structural failures return an
// error and no Document; a Document is never returned partially built.
func newDocument(zr *zip.Reader, closer io.Closer) (*Document, error) {
	d := &Document{
		archive: newZipArchive(zr),
		closer:  closer,
		prefix:  defaultLinkPrefix,
	}

	d.validateMimetype(zr)

	pkgPath, inferred, err := locatePackage(d.archive)
	if err != nil {
		return nil, fmt.Errorf("epubdoc: %w", err)
	}
	if inferred {
		d.warn(fmt.Sprintf("%s missing; package document inferred as %s", containerPath, pkgPath))
	}
	d.pkgPath = pkgPath

	data, err := d.archive.ReadEntry(pkgPath)
	if err != nil {
		return nil, fmt.Errorf("epubdoc: package document %s: %w", pkgPath, err)
	}

	pkg, err := parsePackage(data, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("epubdoc: %w", err)
	}

	d.baseDir = pkg.baseDir
	d.version = pkg.version
	d.metadata = pkg.metadata
	d.manifest = pkg.manifest
	d.order = pkg.order
	d.pathIndex = pkg.pathIndex
	d.spine = pkg.spine
	d.guide = pkg.guide
	d.navID = pkg.navID
	d.ncxID = pkg.ncxID
	d.coverMetaID = pkg.coverMetaID
	d.warnings = append(d.warnings, pkg.warnings...)

	d.buildNavigation()

	d.cursor = Cursor{spine: d.spine}
	return d, nil
}

// validateMimetype checks the "mimetype" entry: first in the archive, stored
// uncompressed, content "application/epub+zip". Deviations are warnings,
// never fatal; plenty of working files get this wrong.
func (d *Document) validateMimetype(zr *zip.Reader) {
	if len(zr.File) == 0 {
		d.warn("empty archive; mimetype entry missing")
		return
	}

	first := zr.File[0]
	if first.Name != "mimetype" {
		d.warn(`first archive entry is not "mimetype"`)
		return
	}
	if first.Method != zip.Store {
		d.warn("mimetype entry is compressed; it must be stored")
	}

	data, err := readZipEntry(first)
	if err != nil {
		d.warn(fmt.Sprintf("cannot read mimetype entry: %v", err))
		return
	}
	if string(data) != expectedMimetype {
		d.warn(fmt.Sprintf("unexpected mimetype: %q", string(data)))
	}
}

func (d *Document) warn(msg string) {
	d.warnings = append(d.warnings, msg)
}

// Close releases resources held by the Document. When created via Open it
// closes the underlying file. Close is idempotent.
func (d *Document) Close() error {
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}

// Metadata returns the document's bibliographic metadata.
func (d *Document) Metadata() Metadata {
	return copyMetadata(d.metadata)
}

// Version returns the declared package version ("2.0" when absent).
func (d *Document) Version() string { return d.version }

// BaseDir returns the archive directory containing the package document.
// Every package-relative reference resolves against it. "" for a root-level
// package document.
func (d *Document) BaseDir() string { return d.baseDir }

// PackagePath returns the archive path of the package document.
func (d *Document) PackagePath() string { return d.pkgPath }

// UniqueIdentifier returns the value of the identifier named by the package
// unique-identifier attribute, or "".
func (d *Document) UniqueIdentifier() string { return d.metadata.UniqueIdentifier }

// ReleaseIdentifier combines the unique identifier and the dcterms:modified
// timestamp ("id@timestamp"), identifying this exact release of the
// publication. "" when either part is unknown.
func (d *Document) ReleaseIdentifier() string {
	if d.metadata.UniqueIdentifier == "" || d.metadata.Modified == "" {
		return ""
	}
	return d.metadata.UniqueIdentifier + "@" + d.metadata.Modified
}

// Resource returns the manifest entry for the given id.
func (d *Document) Resource(id string) (Resource, bool) {
	r, ok := d.manifest[id]
	return r, ok
}

// ResourceByPath returns the manifest entry declaring the given canonical
// archive path. When several entries declare the same path, the first
// declaration wins.
func (d *Document) ResourceByPath(p string) (Resource, bool) {
	canonical, _ := resolveReference("", p)
	id, ok := d.pathIndex[canonical]
	if !ok {
		return Resource{}, false
	}
	return d.manifest[id], true
}

// Manifest returns all manifest entries in document order.
func (d *Document) Manifest() []Resource {
	out := make([]Resource, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.manifest[id])
	}
	return out
}

// Spine returns the ordered reading sequence.
func (d *Document) Spine() []SpineItem {
	return append([]SpineItem(nil), d.spine...)
}

// SpineIndexOfID returns the spine position of the given manifest id, or -1.
func (d *Document) SpineIndexOfID(id string) int {
	for i, si := range d.spine {
		if si.ID == id {
			return i
		}
	}
	return -1
}

// SpineIndexOfPath returns the spine position of the given archive path,
// or -1. The path is normalized before matching.
func (d *Document) SpineIndexOfPath(p string) int {
	canonical, _ := resolveReference("", p)
	for i, si := range d.spine {
		if si.Path == canonical {
			return i
		}
	}
	return -1
}

// TOC returns the table of contents as a tree of NavPoints. The slice is
// empty when the document declares no navigation.
func (d *Document) TOC() []NavPoint {
	return copyNavPoints(d.toc)
}

// HasTOC reports whether the document carries a table of contents.
func (d *Document) HasTOC() bool {
	return len(d.toc) > 0
}

// Landmarks returns the landmarks from an EPUB 3 nav document, or nil.
func (d *Document) Landmarks() []NavPoint {
	return copyNavPoints(d.landmarks)
}

// Guide returns the package document's guide references, or nil.
func (d *Document) Guide() []GuideReference {
	return append([]GuideReference(nil), d.guide...)
}

// Warnings returns the non-fatal deviations recorded during construction,
// in the order encountered.
func (d *Document) Warnings() []string {
	return append([]string(nil), d.warnings...)
}

func copyMetadata(in Metadata) Metadata {
	out := in
	out.Titles = append([]string(nil), in.Titles...)
	out.Creators = append([]Creator(nil), in.Creators...)
	out.Contributors = append([]Creator(nil), in.Contributors...)
	out.Languages = append([]string(nil), in.Languages...)
	out.Identifiers = append([]Identifier(nil), in.Identifiers...)
	out.Publishers = append([]string(nil), in.Publishers...)
	out.Subjects = append([]string(nil), in.Subjects...)
	out.Descriptions = append([]string(nil), in.Descriptions...)
	out.Dates = append([]string(nil), in.Dates...)
	out.Sources = append([]string(nil), in.Sources...)
	out.Rights = append([]string(nil), in.Rights...)
	return out
}

func copyNavPoints(in []NavPoint) []NavPoint {
	if in == nil {
		return nil
	}
	out := make([]NavPoint, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Children = copyNavPoints(in[i].Children)
	}
	return out
}
