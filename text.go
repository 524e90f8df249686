package epubdoc

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags insert a line break during text extraction.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Br:         true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.Blockquote: true,
	atom.Hr:         true,
}

// skipTags contain no prose; their content is dropped entirely.
var skipTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

// The tokenizer treats a self-closed <script/> as an opening tag and
// swallows the rest of the file looking for </script>; normalise the XHTML
// self-closing form first.
var selfClosingSkipTagPattern = regexp.MustCompile(`(?is)<(script|style)\b([^>]*)/>`)

func normalizeSelfClosingSkipTags(text string) string {
	if !selfClosingSkipTagPattern.MatchString(text) {
		return text
	}
	return selfClosingSkipTagPattern.ReplaceAllString(text, `<$1$2></$1>`)
}

// extractText strips markup from decoded HTML, inserting line breaks at
// block-level elements and skipping script and style content. Whitespace
// runs collapse to single spaces.
func extractText(text string) (string, error) {
	text = normalizeSelfClosingSkipTags(text)
	tokenizer := html.NewTokenizer(strings.NewReader(text))

	var buf strings.Builder
	skipDepth := 0
	atLineStart := true
	lastWasSpace := true

	breakLine := func() {
		if buf.Len() > 0 && !atLineStart {
			buf.WriteByte('\n')
			atLineStart = true
			lastWasSpace = true
		}
	}

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			err := tokenizer.Err()
			if errors.Is(err, io.EOF) {
				return strings.TrimSpace(buf.String()), nil
			}
			return "", err

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			a := atom.Lookup(name)
			if skipTags[a] {
				skipDepth++
				continue
			}
			if skipDepth == 0 && blockTags[a] {
				breakLine()
			}

		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if skipDepth == 0 && blockTags[atom.Lookup(name)] {
				breakLine()
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			a := atom.Lookup(name)
			if skipTags[a] && skipDepth > 0 {
				skipDepth--
				continue
			}
			if skipDepth == 0 && blockTags[a] {
				breakLine()
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			raw := tokenizer.Text()
			t := collapseWhitespace(string(raw))
			if t == "" {
				// Whitespace-only node between inline elements: keep one
				// separating space.
				if len(raw) > 0 && !atLineStart && !lastWasSpace {
					buf.WriteByte(' ')
					lastWasSpace = true
				}
				continue
			}
			buf.WriteString(t)
			atLineStart = false
			lastWasSpace = strings.HasSuffix(t, " ")
		}
	}
}

// collapseWhitespace reduces whitespace runs to single spaces. Leading and
// trailing whitespace survive as one space each so that spacing between
// inline elements is kept; an all-whitespace input yields "".
func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	out := strings.Join(fields, " ")
	if isSpaceByte(s[0]) {
		out = " " + out
	}
	if isSpaceByte(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
