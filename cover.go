package epubdoc

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CoverID returns the manifest id of the cover image. Strategies, in
// priority order:
//  1. EPUB 2 <meta name="cover" content="id"/>; a non-image target is
//     treated as a cover page and scanned for its first image.
//  2. EPUB 3 manifest item carrying the "cover-image" property.
//  3. guide reference with type="cover", scanned for its first image.
//
// Fails with ErrNoCover when no strategy yields an image resource.
func (d *Document) CoverID() (string, error) {
	if d.coverMetaID != "" {
		if res, ok := d.manifest[d.coverMetaID]; ok {
			if isImageMediaType(res.MediaType) {
				return res.ID, nil
			}
			if id := d.imageIDFromPage(res.Path); id != "" {
				return id, nil
			}
		}
	}

	for _, id := range d.order {
		if d.manifest[id].HasProperty("cover-image") {
			return id, nil
		}
	}

	for _, ref := range d.guide {
		if !strings.EqualFold(ref.Type, "cover") {
			continue
		}
		if id := d.imageIDFromPage(ref.Path); id != "" {
			return id, nil
		}
	}

	return "", ErrNoCover
}

// Cover fetches the detected cover image's bytes together with its manifest
// id, path, and media type.
func (d *Document) Cover() (CoverImage, error) {
	id, err := d.CoverID()
	if err != nil {
		return CoverImage{}, err
	}
	res := d.manifest[id]
	data, err := d.archive.ReadEntry(res.Path)
	if err != nil {
		return CoverImage{}, err
	}
	return CoverImage{
		ID:        res.ID,
		Path:      res.Path,
		MediaType: res.MediaType,
		Data:      data,
	}, nil
}

// imageIDFromPage reads the page at pagePath, finds its first image
// reference, and maps the resolved path back to an image manifest id.
// Returns "" when the page is unreadable or carries no resolvable image.
func (d *Document) imageIDFromPage(pagePath string) string {
	if pagePath == "" {
		return ""
	}
	data, err := d.archive.ReadEntry(pagePath)
	if err != nil {
		return ""
	}
	text, err := decodeText(data)
	if err != nil {
		return ""
	}

	imgPath := firstImageReference(text, dirOf(pagePath))
	if imgPath == "" {
		return ""
	}

	id, ok := d.pathIndex[imgPath]
	if !ok || !isImageMediaType(d.manifest[id].MediaType) {
		return ""
	}
	return id
}

// firstImageReference tokenizes HTML and returns the canonical path of the
// first <img src> or SVG <image href>/<image xlink:href>, resolved against
// baseDir. "" when none is found.
func firstImageReference(text, baseDir string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			a := atom.Lookup(name)
			if (a != atom.Img && a != atom.Image) || !hasAttr {
				continue
			}
			want := "src"
			if a == atom.Image {
				want = "href"
			}
			for {
				key, val, more := tokenizer.TagAttr()
				k := string(key)
				if (k == want || k == "xlink:"+want) && len(val) > 0 {
					p, _ := resolveReference(baseDir, string(val))
					return p
				}
				if !more {
					break
				}
			}
		}
	}
}

// isImageMediaType reports whether the media type declares an image.
func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}
