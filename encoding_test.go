package epubdoc

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeText_UTF8Default(t *testing.T) {
	in := "plain UTF-8 with ümlauts and 漢字"
	got, err := decodeText([]byte(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != in {
		t.Errorf("decodeText = %q; want input unchanged", got)
	}
}

func TestDecodeText_UTF8BOM(t *testing.T) {
	got, err := decodeText([]byte("\xEF\xBB\xBFhello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("decodeText = %q; want BOM stripped", got)
	}
}

func TestDecodeText_UTF16BOM(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"big endian", []byte{0xFE, 0xFF, 0x00, 'h', 0x00, 'i'}},
		{"little endian", []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "hi" {
				t.Errorf("decodeText = %q; want %q", got, "hi")
			}
		})
	}
}

func TestDecodeText_DeclaredEncoding(t *testing.T) {
	// "café" in ISO-8859-1: é is 0xE9, invalid as UTF-8.
	data := []byte(`<?xml version="1.0" encoding="ISO-8859-1"?><p>caf` + "\xE9" + `</p>`)
	got, err := decodeText(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "café") {
		t.Errorf("decodeText = %q; want %q decoded from Latin-1", got, "café")
	}
}

func TestDecodeText_MetaCharset(t *testing.T) {
	data := []byte(`<html><head><meta charset="windows-1252"></head><body>` + "\x93quoted\x94" + `</body></html>`)
	got, err := decodeText(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "“quoted”") {
		t.Errorf("decodeText = %q; want curly quotes decoded from cp1252", got)
	}
}

func TestDecodeText_MetaHTTPEquiv(t *testing.T) {
	data := []byte(`<html><head><meta http-equiv="Content-Type" content="text/html; charset=iso-8859-1"></head><body>caf` + "\xE9" + `</body></html>`)
	got, err := decodeText(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "café") {
		t.Errorf("decodeText = %q; want Latin-1 decoded via http-equiv charset", got)
	}
}

func TestDecodeText_DeclaredBeatsBOM(t *testing.T) {
	// Declared UTF-8 with a BOM: decoded strictly, BOM stripped.
	data := []byte("\xEF\xBB\xBF" + `<?xml version="1.0" encoding="UTF-8"?><p>x</p>`)
	got, err := decodeText(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.HasPrefix(got, "\uFEFF") {
		t.Error("decoded text still carries a BOM")
	}
}

func TestDecodeText_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"unknown declared label", []byte(`<?xml version="1.0" encoding="x-no-such-charset"?><p/>`)},
		{"invalid utf-8 no declaration", []byte{'a', 0xFF, 0xFE, 0xFD, 'b'}},
		{"declared utf-8 invalid bytes", []byte(`<?xml version="1.0" encoding="UTF-8"?><p>` + "\xC3\x28" + `</p>`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeText(tt.data)
			if !errors.Is(err, ErrDecoding) {
				t.Errorf("error = %v, want wrapped ErrDecoding", err)
			}
		})
	}
}

func TestDeclaredEncoding(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"xml declaration", `<?xml version="1.0" encoding="ISO-8859-1"?>`, "ISO-8859-1"},
		{"meta charset", `<meta charset="utf-8">`, "utf-8"},
		{"meta charset unquoted", `<meta charset=windows-1251>`, "windows-1251"},
		{"http-equiv content", `<meta http-equiv="Content-Type" content="text/html; charset=gbk">`, "gbk"},
		{"none", `<html><body>text</body></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := declaredEncoding([]byte(tt.data)); got != tt.want {
				t.Errorf("declaredEncoding = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestPreprocessHTMLEntities(t *testing.T) {
	in := `A&nbsp;B &mdash; C &NBSP; &unknown; &amp;`
	got := preprocessHTMLEntities(in)
	want := `A&#160;B &#8212; C &#160; &unknown; &amp;`
	if got != want {
		t.Errorf("preprocessHTMLEntities = %q; want %q", got, want)
	}
}

func TestDecodeXML_NonUTF8Declaration(t *testing.T) {
	// encoding/xml rejects non-UTF-8 declarations without a CharsetReader;
	// decodeXML must pre-convert and pass the declaration through.
	data := []byte(`<?xml version="1.0" encoding="ISO-8859-1"?><root attr="caf` + "\xE9" + `"/>`)
	var v struct {
		Attr string `xml:"attr,attr"`
	}
	if err := decodeXML(data, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Attr != "café" {
		t.Errorf("attr = %q; want %q", v.Attr, "café")
	}
}
