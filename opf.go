package epubdoc

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// --- OPF XML decoding structs ---

// opfPackage represents the root <package> element of the package document.
type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         opfManifest `xml:"manifest"`
	Spine            opfSpine    `xml:"spine"`
	Guide            opfGuide    `xml:"guide"`
}

// opfMetadata holds the raw metadata elements. EPUB 2 expresses refinements
// as opf: attributes on the Dublin Core elements; EPUB 3 uses <meta
// refines="#id"> elements for the same information.
type opfMetadata struct {
	Titles       []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators     []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Contributors []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ contributor"`
	Languages    []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifiers  []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Publishers   []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Dates        []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ date"`
	Descriptions []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ description"`
	Subjects     []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Rights       []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ rights"`
	Sources      []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ source"`
	Metas        []opfMeta      `xml:"meta"`
}

// opfDCElement is a Dublin Core element with its optional OPF attributes.
type opfDCElement struct {
	Value  string `xml:",chardata"`
	ID     string `xml:"id,attr"`
	FileAs string `xml:"file-as,attr"`
	Role   string `xml:"role,attr"`
	Scheme string `xml:"scheme,attr"`
}

// opfMeta covers both meta forms:
// EPUB 2: <meta name="..." content="..."/>
// EPUB 3: <meta property="..." refines="#id" scheme="...">value</meta>
type opfMeta struct {
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"`
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`
	Scheme   string `xml:"scheme,attr"`
	Value    string `xml:",chardata"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc      string            `xml:"toc,attr"`
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

type opfSpineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

type opfGuide struct {
	References []opfGuideReference `xml:"reference"`
}

type opfGuideReference struct {
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

// ncxMediaType identifies the legacy navigation map in the manifest.
const ncxMediaType = "application/x-dtbncx+xml"

// packageDoc is the fully processed package document: every href resolved to
// a canonical archive path, every spine reference validated.
type packageDoc struct {
	version  string
	baseDir  string
	metadata Metadata
	manifest map[string]Resource
	// order holds manifest ids in document order; map iteration would lose it.
	order     []string
	pathIndex map[string]string
	spine     []SpineItem
	guide     []GuideReference
	navID     string
	ncxID     string
	// coverMetaID is the manifest id named by <meta name="cover">, if any.
	coverMetaID string
	warnings    []string
}

// parsePackage parses the package document at pkgPath. The document's own
// directory becomes the base directory every manifest href is resolved
// against. Structural failures (unparseable XML, missing or empty manifest
// or spine) return a wrapped ErrMalformedPackage; a spine itemref naming an
// unknown manifest id returns a wrapped ErrDanglingReference.
func parsePackage(data []byte, pkgPath string) (*packageDoc, error) {
	var pkg opfPackage
	if err := decodeXML(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package document %s: %v: %w", pkgPath, err, ErrMalformedPackage)
	}

	doc := &packageDoc{
		version: pkg.Version,
		baseDir: packageBaseDir(pkgPath),
	}
	if doc.version == "" {
		doc.version = "2.0"
	}

	if len(pkg.Manifest.Items) == 0 {
		return nil, fmt.Errorf("package document %s has no manifest items: %w", pkgPath, ErrMalformedPackage)
	}
	doc.buildManifest(pkg.Manifest)

	if len(pkg.Spine.ItemRefs) == 0 {
		return nil, fmt.Errorf("package document %s has an empty spine: %w", pkgPath, ErrMalformedPackage)
	}
	if err := doc.buildSpine(pkg.Spine); err != nil {
		return nil, err
	}

	doc.ncxID = findNCXID(pkg.Spine.Toc, doc)
	doc.buildGuide(pkg.Guide)
	doc.metadata = extractMetadata(&pkg)
	doc.coverMetaID = findCoverMetaID(pkg.Metadata.Metas)

	return doc, nil
}

// packageBaseDir returns the directory of the package document, normalised
// so that a root-level package yields "".
func packageBaseDir(pkgPath string) string {
	dir := path.Dir(pkgPath)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// buildManifest resolves every item href against the base directory and
// fills the id and path indexes. Items without an id or href are skipped
// with a warning; a duplicate id keeps the first declaration.
func (doc *packageDoc) buildManifest(manifest opfManifest) {
	doc.manifest = make(map[string]Resource, len(manifest.Items))
	doc.pathIndex = make(map[string]string, len(manifest.Items))
	doc.order = make([]string, 0, len(manifest.Items))

	for _, item := range manifest.Items {
		if item.ID == "" || item.Href == "" {
			doc.warnings = append(doc.warnings, fmt.Sprintf("manifest item skipped: missing id or href (id=%q href=%q)", item.ID, item.Href))
			continue
		}
		if _, exists := doc.manifest[item.ID]; exists {
			doc.warnings = append(doc.warnings, fmt.Sprintf("duplicate manifest id %q: first declaration kept", item.ID))
			continue
		}

		canonical, _ := resolveReference(doc.baseDir, item.Href)
		res := Resource{
			ID:         item.ID,
			Path:       canonical,
			MediaType:  strings.TrimSpace(item.MediaType),
			Properties: strings.TrimSpace(item.Properties),
		}
		doc.manifest[item.ID] = res
		doc.order = append(doc.order, item.ID)
		if _, exists := doc.pathIndex[canonical]; !exists {
			doc.pathIndex[canonical] = item.ID
		}

		if res.HasProperty("nav") && doc.navID == "" {
			doc.navID = item.ID
		}
	}
}

// buildSpine validates every itemref against the manifest and preserves the
// linear flag. An unknown idref is fatal.
func (doc *packageDoc) buildSpine(spine opfSpine) error {
	doc.spine = make([]SpineItem, 0, len(spine.ItemRefs))
	for _, ref := range spine.ItemRefs {
		res, ok := doc.manifest[ref.IDRef]
		if !ok {
			return fmt.Errorf("spine itemref %q not in manifest: %w", ref.IDRef, ErrDanglingReference)
		}
		doc.spine = append(doc.spine, SpineItem{
			ID:        res.ID,
			Path:      res.Path,
			MediaType: res.MediaType,
			Linear:    ref.Linear != "no",
		})
	}
	return nil
}

// buildGuide resolves guide reference hrefs, splitting off fragments.
func (doc *packageDoc) buildGuide(guide opfGuide) {
	if len(guide.References) == 0 {
		return
	}
	doc.guide = make([]GuideReference, 0, len(guide.References))
	for _, r := range guide.References {
		p, frag := resolveReference(doc.baseDir, r.Href)
		doc.guide = append(doc.guide, GuideReference{
			Type:     r.Type,
			Title:    r.Title,
			Path:     p,
			Fragment: frag,
		})
	}
}

// findNCXID resolves the legacy navigation map id: the spine toc attribute
// when it names a manifest item, otherwise the first manifest item with the
// NCX media type.
func findNCXID(tocAttr string, doc *packageDoc) string {
	if tocAttr != "" {
		if _, ok := doc.manifest[tocAttr]; ok {
			return tocAttr
		}
	}
	for _, id := range doc.order {
		if strings.EqualFold(doc.manifest[id].MediaType, ncxMediaType) {
			return id
		}
	}
	return ""
}

// findCoverMetaID returns the content of the EPUB 2 <meta name="cover">
// element, which names the cover image's manifest id.
func findCoverMetaID(metas []opfMeta) string {
	for _, m := range metas {
		if strings.EqualFold(m.Name, "cover") && m.Content != "" {
			return m.Content
		}
	}
	return ""
}
