package epubdoc

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// buildNavigation assembles the table of contents from whichever source the
// package declares, preferring the EPUB 3 nav document over the legacy NCX
// regardless of the declared package version. Navigation failures never fail
// document construction: they degrade to an empty TOC with a warning. Both
// sources produce the same NavPoint tree shape, so nothing downstream
// branches on the source format.
func (d *Document) buildNavigation() {
	if d.navID != "" {
		if ok := d.buildNavDocTOC(); ok {
			d.assignSpineIndices()
			return
		}
	}
	if d.ncxID != "" {
		if ok := d.buildNCXTOC(); ok {
			d.assignSpineIndices()
			return
		}
	}
	// No navigation source, or every source degraded. Valid documents may
	// omit navigation entirely.
	d.toc = nil
	d.landmarks = nil
}

// buildNavDocTOC parses the EPUB 3 nav document. Returns false when the
// resource is unreadable, unparseable, or carries no toc entries, so the
// caller can fall back to the NCX.
func (d *Document) buildNavDocTOC() bool {
	res, ok := d.manifest[d.navID]
	if !ok {
		return false
	}

	data, err := d.archive.ReadEntry(res.Path)
	if err != nil {
		d.warn(fmt.Sprintf("nav document %s unreadable: %v", res.Path, err))
		return false
	}

	toc, landmarks, err := parseNavDocument(data, dirOf(res.Path))
	if err != nil {
		d.warn(fmt.Sprintf("nav document %s: %v", res.Path, err))
		return false
	}
	if len(toc) == 0 {
		return false
	}

	d.toc = toc
	d.landmarks = landmarks
	return true
}

// buildNCXTOC parses the legacy NCX navigation map. Returns false when the
// resource is unreadable or unparseable.
func (d *Document) buildNCXTOC() bool {
	res, ok := d.manifest[d.ncxID]
	if !ok {
		return false
	}

	data, err := d.archive.ReadEntry(res.Path)
	if err != nil {
		d.warn(fmt.Sprintf("navigation map %s unreadable: %v", res.Path, err))
		return false
	}

	toc, err := parseNCX(data, dirOf(res.Path))
	if err != nil {
		d.warn(fmt.Sprintf("navigation map %s: %v", res.Path, err))
		return false
	}

	d.toc = toc
	return true
}

// assignSpineIndices matches every NavPoint target path against the spine
// and records the position, or -1 for targets outside the spine.
func (d *Document) assignSpineIndices() {
	spineIndex := make(map[string]int, len(d.spine))
	for i, si := range d.spine {
		if _, ok := spineIndex[si.Path]; !ok {
			spineIndex[si.Path] = i
		}
	}
	applySpineIndices(d.toc, spineIndex)
	applySpineIndices(d.landmarks, spineIndex)
}

func applySpineIndices(points []NavPoint, spineIndex map[string]int) {
	for i := range points {
		points[i].SpineIndex = -1
		if points[i].Path != "" {
			if idx, ok := spineIndex[points[i].Path]; ok {
				points[i].SpineIndex = idx
			}
		}
		applySpineIndices(points[i].Children, spineIndex)
	}
}

// dirOf returns the directory of an archive path, normalised so that a
// root-level path yields "".
func dirOf(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// --- EPUB 3 nav document ---

// parseNavDocument extracts the toc and landmarks trees from an XHTML nav
// document. Entries are resolved against the nav document's own directory,
// which may differ from the package base directory.
func parseNavDocument(data []byte, baseDir string) (toc, landmarks []NavPoint, err error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode nav document: %v: %w", err, ErrMalformedNavigation)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, nil, fmt.Errorf("parse nav document: %v: %w", err, ErrMalformedNavigation)
	}

	doc.Find("nav").Each(func(_ int, nav *goquery.Selection) {
		switch {
		case hasEpubType(nav, "toc"):
			if toc == nil {
				toc = parseNavList(nav.Find("ol").First(), baseDir)
			}
		case hasEpubType(nav, "landmarks"):
			if landmarks == nil {
				landmarks = parseNavList(nav.Find("ol").First(), baseDir)
			}
		}
	})

	return toc, landmarks, nil
}

// parseNavList converts the direct <li> children of an <ol> into NavPoints.
// Sibling order in the source is preserved.
func parseNavList(ol *goquery.Selection, baseDir string) []NavPoint {
	var points []NavPoint
	ol.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		points = append(points, parseNavEntry(li, baseDir))
	})
	return points
}

// parseNavEntry converts a single <li>: an <a> carries the label and target,
// a <span> carries a label without a target (pure grouping heading), and a
// nested <ol> carries the children.
func parseNavEntry(li *goquery.Selection, baseDir string) NavPoint {
	np := NavPoint{SpineIndex: -1}

	if a := li.ChildrenFiltered("a").First(); a.Length() > 0 {
		np.Label = strings.TrimSpace(a.Text())
		if href, ok := a.Attr("href"); ok {
			np.Path, np.Fragment = resolveReference(baseDir, href)
		}
	} else if span := li.ChildrenFiltered("span").First(); span.Length() > 0 {
		np.Label = strings.TrimSpace(span.Text())
	}

	if ol := li.ChildrenFiltered("ol").First(); ol.Length() > 0 {
		np.Children = parseNavList(ol, baseDir)
	}

	return np
}

// hasEpubType reports whether the selection's epub:type attribute contains
// the given token (space-separated token matching).
func hasEpubType(s *goquery.Selection, name string) bool {
	for _, t := range strings.Fields(s.AttrOr("epub:type", "")) {
		if t == name {
			return true
		}
	}
	return false
}

// --- legacy NCX navigation map ---

type ncxDocument struct {
	XMLName xml.Name  `xml:"ncx"`
	NavMap  ncxNavMap `xml:"navMap"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	PlayOrder string        `xml:"playOrder,attr"`
	Label     ncxNavLabel   `xml:"navLabel"`
	Content   ncxContent    `xml:"content"`
	Children  []ncxNavPoint `xml:"navPoint"`
}

type ncxNavLabel struct {
	Text string `xml:"text"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// parseNCX parses an NCX navigation map into a NavPoint tree. Sibling
// navPoints carrying playOrder attributes are stably sorted by it; siblings
// without keep their document position.
func parseNCX(data []byte, baseDir string) ([]NavPoint, error) {
	var doc ncxDocument
	if err := decodeXML(data, &doc); err != nil {
		return nil, fmt.Errorf("parse navigation map: %v: %w", err, ErrMalformedNavigation)
	}
	return convertNavPoints(doc.NavMap.NavPoints, baseDir), nil
}

func convertNavPoints(points []ncxNavPoint, baseDir string) []NavPoint {
	if len(points) == 0 {
		return nil
	}

	sortByPlayOrder(points)

	out := make([]NavPoint, 0, len(points))
	for _, np := range points {
		p := NavPoint{
			Label:      strings.TrimSpace(np.Label.Text),
			SpineIndex: -1,
		}
		if src := strings.TrimSpace(np.Content.Src); src != "" {
			p.Path, p.Fragment = resolveReference(baseDir, src)
		}
		p.Children = convertNavPoints(np.Children, baseDir)
		out = append(out, p)
	}
	return out
}

// sortByPlayOrder stably sorts sibling navPoints by their playOrder
// attribute when at least one carries it. Points without playOrder sort
// after those with one, keeping their relative document order.
func sortByPlayOrder(points []ncxNavPoint) {
	parsed := make([]int, len(points))
	hasOrder := false
	for i, np := range points {
		parsed[i] = -1
		if np.PlayOrder != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(np.PlayOrder)); err == nil {
				parsed[i] = n
				hasOrder = true
			}
		}
	}
	if !hasOrder {
		return
	}

	type indexed struct {
		point ncxNavPoint
		order int
	}
	tmp := make([]indexed, len(points))
	for i := range points {
		tmp[i] = indexed{point: points[i], order: parsed[i]}
	}
	sort.SliceStable(tmp, func(i, j int) bool {
		oi, oj := tmp[i].order, tmp[j].order
		if oi < 0 || oj < 0 {
			return oj < 0 && oi >= 0
		}
		return oi < oj
	})
	for i := range tmp {
		points[i] = tmp[i].point
	}
}
