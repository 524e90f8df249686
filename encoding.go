package epubdoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Byte-order marks recognised by the decode policy.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// Declared-encoding sniffing is limited to the first kilobyte; both the XML
// declaration and an HTML meta charset must appear near the top of the file.
const sniffLimit = 1024

var (
	xmlEncodingPattern = regexp.MustCompile(`(?i)<\?xml[^>]*\bencoding=["']([^"']+)["']`)
	// Matches both <meta charset="..."> and the legacy http-equiv form with
	// content="text/html; charset=...".
	metaCharsetPattern = regexp.MustCompile(`(?i)<meta[^>]*\bcharset=["']?([a-zA-Z0-9._-]+)`)
)

// decodeText converts resource bytes to a string using the ordered policy:
// a declared encoding inside the resource (XML declaration or HTML meta
// charset) wins, else a byte-order-mark sniff, else UTF-8. The result never
// carries a BOM. Decoding fails with a wrapped ErrDecoding when the declared
// label is unknown or the default UTF-8 path meets invalid bytes; a known
// non-UTF-8 encoding substitutes replacement characters per its own rules
// rather than failing.
func decodeText(data []byte) (string, error) {
	if label := declaredEncoding(data); label != "" {
		return decodeDeclared(data, label)
	}

	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid UTF-8 after BOM: %w", ErrDecoding)
		}
		return string(data), nil
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data)
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid UTF-8 and no declared encoding: %w", ErrDecoding)
	}
	return string(data), nil
}

// declaredEncoding extracts the encoding label declared inside the resource,
// or "" when none is declared. The XML declaration is checked first, then an
// HTML5 meta charset, then the legacy http-equiv content-type form.
func declaredEncoding(data []byte) string {
	head := data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	head = trimBOM(head)

	if m := xmlEncodingPattern.FindSubmatch(head); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	if m := metaCharsetPattern.FindSubmatch(head); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

// decodeDeclared decodes data using the declared label. Unknown labels fail
// with ErrDecoding. A declared UTF-8 takes the strict validation path.
func decodeDeclared(data []byte, label string) (string, error) {
	norm := strings.ToLower(strings.TrimSpace(label))
	if norm == "utf-8" || norm == "utf8" {
		data = trimBOM(data)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("declared utf-8 but invalid bytes: %w", ErrDecoding)
		}
		return string(data), nil
	}

	enc, err := htmlindex.Get(norm)
	if err != nil {
		return "", fmt.Errorf("unknown declared encoding %q: %w", label, ErrDecoding)
	}
	return decodeWith(enc, data)
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode: %v: %w", err, ErrDecoding)
	}
	return string(trimBOM(out)), nil
}

// trimBOM removes a leading UTF-8 byte-order mark, if present.
func trimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, bomUTF8)
}

// entityNameToNumeric maps lowercase HTML entity names to XML numeric
// character references. encoding/xml does not recognise HTML named entities,
// so OPF and NCX bytes are rewritten before parsing.
var entityNameToNumeric = map[string]string{
	"nbsp": "&#160;", "mdash": "&#8212;", "ndash": "&#8211;",
	"hellip": "&#8230;",
	"lsquo": "&#8216;", "rsquo": "&#8217;",
	"ldquo": "&#8220;", "rdquo": "&#8221;",
	"copy": "&#169;", "reg": "&#174;", "trade": "&#8482;",
	"bull": "&#8226;", "middot": "&#183;",
	"eacute": "&#233;", "egrave": "&#232;",
	"ecirc": "&#234;", "euml": "&#235;",
	"aacute": "&#225;", "agrave": "&#224;",
	"acirc": "&#226;", "auml": "&#228;",
	"iacute": "&#237;", "igrave": "&#236;",
	"icirc": "&#238;", "iuml": "&#239;",
	"oacute": "&#243;", "ograve": "&#242;",
	"ocirc": "&#244;", "ouml": "&#246;",
	"uacute": "&#250;", "ugrave": "&#249;",
	"ucirc": "&#251;", "uuml": "&#252;",
	"ntilde": "&#241;", "ccedil": "&#231;",
	"times": "&#215;", "divide": "&#247;",
	"deg": "&#176;", "para": "&#182;", "sect": "&#167;",
	"laquo": "&#171;", "raquo": "&#187;",
	"iexcl": "&#161;", "iquest": "&#191;",
}

var htmlEntityPattern = regexp.MustCompile(
	`(?i)&(nbsp|mdash|ndash|hellip|lsquo|rsquo|ldquo|rdquo|copy|reg|trade|bull|middot|` +
		`eacute|egrave|ecirc|euml|aacute|agrave|acirc|auml|iacute|igrave|icirc|iuml|` +
		`oacute|ograve|ocirc|ouml|uacute|ugrave|ucirc|uuml|ntilde|ccedil|` +
		`times|divide|deg|para|sect|laquo|raquo|iexcl|iquest);`)

// preprocessHTMLEntities replaces common HTML named entities with numeric
// references, case-insensitively, so that encoding/xml accepts the input.
func preprocessHTMLEntities(s string) string {
	return htmlEntityPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.ToLower(match[1 : len(match)-1])
		if replacement, ok := entityNameToNumeric[name]; ok {
			return replacement
		}
		return match
	})
}

// decodeXML runs raw archive bytes through the decode policy and entity
// preprocessing, then unmarshals into v. The charset reader is an identity
// pass-through: the bytes have already been converted to UTF-8, but the XML
// declaration may still name the original encoding.
func decodeXML(data []byte, v any) error {
	text, err := decodeText(data)
	if err != nil {
		return err
	}
	text = preprocessHTMLEntities(text)

	dec := xml.NewDecoder(strings.NewReader(text))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return dec.Decode(v)
}
