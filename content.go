package epubdoc

import (
	"fmt"
	"strings"
)

// Content returns the raw bytes of the resource with the given manifest id.
// Fails with a wrapped ErrResourceNotFound when the id is absent from the
// manifest or the manifest's declared path is absent from the archive. A
// declared-but-missing archive path is detected here, on first access, not
// at construction: construction validates id references only.
func (d *Document) Content(id string) ([]byte, error) {
	res, ok := d.manifest[id]
	if !ok {
		return nil, fmt.Errorf("manifest id %q: %w", id, ErrResourceNotFound)
	}
	return d.archive.ReadEntry(res.Path)
}

// ContentByPath returns the raw bytes of the archive entry at the given
// path, bypassing the manifest. Used where only a path is known, such as
// dereferencing a rewritten link. The path is normalized first.
func (d *Document) ContentByPath(p string) ([]byte, error) {
	canonical, _ := resolveReference("", p)
	if canonical == "" {
		return nil, fmt.Errorf("empty path: %w", ErrResourceNotFound)
	}
	return d.archive.ReadEntry(canonical)
}

// Text returns the resource decoded to a string using the ordered encoding
// policy: a declared encoding inside the resource wins, else a byte-order
// mark, else UTF-8. Fails with a wrapped ErrDecoding when no valid text can
// be produced.
func (d *Document) Text(id string) (string, error) {
	data, err := d.Content(id)
	if err != nil {
		return "", err
	}
	text, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("resource %q: %w", id, err)
	}
	return text, nil
}

// PlainText returns the resource's prose with markup stripped: block-level
// elements break lines, script and style content is dropped. Intended for
// search and indexing callers.
func (d *Document) PlainText(id string) (string, error) {
	text, err := d.Text(id)
	if err != nil {
		return "", err
	}
	return extractText(text)
}

// RewrittenHTML returns the resource decoded and streamed through the link
// rewriter: internal relative references in a[href], link[href], img[src],
// and SVG image[href]/[xlink:href] are resolved against the resource's own
// directory and prefixed with the configured link prefix. External links
// pass through untouched, as does all non-link content. Registered extra
// CSS is injected before </head>.
func (d *Document) RewrittenHTML(id string) (string, error) {
	res, ok := d.manifest[id]
	if !ok {
		return "", fmt.Errorf("manifest id %q: %w", id, ErrResourceNotFound)
	}

	text, err := d.Text(id)
	if err != nil {
		return "", err
	}
	return rewriteHTML(text, dirOf(res.Path), d.prefix, d.extraCSS)
}

// SetLinkPrefix configures the prefix prepended to rewritten internal links
// (default "epub://"). Resource paths produced by the rewriter can be fed
// back through ContentByPath after trimming the prefix.
func (d *Document) SetLinkPrefix(prefix string) {
	d.prefix = prefix
}

// LinkPrefix returns the configured rewrite prefix.
func (d *Document) LinkPrefix() string {
	return d.prefix
}

// AddExtraCSS registers a stylesheet injected as a <style> element into
// every subsequently rewritten HTML resource.
func (d *Document) AddExtraCSS(css string) {
	if strings.TrimSpace(css) == "" {
		return
	}
	d.extraCSS = append(d.extraCSS, css)
}

// CurrentContent returns the raw bytes of the built-in cursor's current
// spine entry.
func (d *Document) CurrentContent() ([]byte, error) {
	return d.Content(d.Current().ID)
}

// CurrentText returns the decoded text of the built-in cursor's current
// spine entry.
func (d *Document) CurrentText() (string, error) {
	return d.Text(d.Current().ID)
}

// CurrentHTML returns the rewritten HTML of the built-in cursor's current
// spine entry.
func (d *Document) CurrentHTML() (string, error) {
	return d.RewrittenHTML(d.Current().ID)
}
