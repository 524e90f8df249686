package epubdoc

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rewriteTargets maps element tags to the attribute keys whose values are
// internal references: stylesheet links, images (HTML and SVG), and
// hyperlinks.
var rewriteTargets = map[atom.Atom][]string{
	atom.A:     {"href"},
	atom.Link:  {"href"},
	atom.Img:   {"src"},
	atom.Image: {"href", "xlink:href"},
}

// rewriteHTML streams decoded HTML through a tokenizer pass that resolves
// every internal relative reference against baseDir and prefixes it for the
// caller's serving layer. Tokens without a rewritten attribute are emitted
// from the tokenizer's raw bytes, so untouched content stays byte-identical.
// Each entry of extraCSS is injected as a <style> element before </head>.
func rewriteHTML(text, baseDir, prefix string, extraCSS []string) (string, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	var buf bytes.Buffer

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			err := tokenizer.Err()
			if errors.Is(err, io.EOF) {
				return buf.String(), nil
			}
			return "", err

		case html.StartTagToken, html.SelfClosingTagToken:
			raw := tokenizer.Raw()
			tok := tokenizer.Token()
			if rewriteToken(&tok, baseDir, prefix) {
				buf.WriteString(tok.String())
			} else {
				buf.Write(raw)
			}

		case html.EndTagToken:
			raw := tokenizer.Raw()
			if len(extraCSS) > 0 {
				if name, _ := tagNameOf(raw); name == "head" {
					for _, css := range extraCSS {
						buf.WriteString("<style>")
						buf.WriteString(css)
						buf.WriteString("</style>")
					}
					extraCSS = nil
				}
			}
			buf.Write(raw)

		default:
			buf.Write(tokenizer.Raw())
		}
	}
}

// rewriteToken rewrites the reference attributes of a single tag token in
// place and reports whether anything changed.
func rewriteToken(tok *html.Token, baseDir, prefix string) bool {
	keys, ok := rewriteTargets[tok.DataAtom]
	if !ok {
		return false
	}

	changed := false
	for i, attr := range tok.Attr {
		key := attr.Key
		if attr.Namespace != "" {
			key = attr.Namespace + ":" + attr.Key
		}
		for _, want := range keys {
			if key != want {
				continue
			}
			if rewritten, ok := rewriteLinkValue(attr.Val, baseDir, prefix); ok {
				tok.Attr[i].Val = rewritten
				changed = true
			}
		}
	}
	return changed
}

// rewriteLinkValue resolves an internal relative reference and prepends the
// link prefix. External (scheme-qualified) references, pure fragments, and
// empty values are left untouched.
func rewriteLinkValue(val, baseDir, prefix string) (string, bool) {
	v := strings.TrimSpace(val)
	if v == "" || strings.HasPrefix(v, "#") || hasURIScheme(v) {
		return "", false
	}

	p, frag := resolveReference(baseDir, v)
	if p == "" {
		return "", false
	}
	out := prefix + p
	if frag != "" {
		out += "#" + frag
	}
	return out, true
}

// hasURIScheme reports whether s starts with a URI scheme ("http:",
// "mailto:", "data:"). Per RFC 3986 a scheme starts with a letter; the
// one-letter case is excluded so Windows-style "c:" paths in broken files
// are still treated as relative.
func hasURIScheme(s string) bool {
	if s == "" || !isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == ':' {
			return i > 1
		}
		if !isAlpha(c) && !isDigit(c) && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return false
}

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tagNameOf extracts the lowercase tag name from a raw token like "</head>"
// or "<img src=...>".
func tagNameOf(raw []byte) (string, bool) {
	i := 1
	if i < len(raw) && raw[i] == '/' {
		i++
	}
	start := i
	for i < len(raw) {
		c := raw[i]
		if c == '>' || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '/' {
			break
		}
		i++
	}
	if i == start {
		return "", false
	}
	return strings.ToLower(string(raw[start:i])), true
}
