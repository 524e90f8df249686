package epubdoc

import (
	"errors"
	"strings"
	"testing"
)

func TestContent_ByID(t *testing.T) {
	doc := buildTestDocument(t, minimalBookFiles())
	defer doc.Close()

	data, err := doc.Content("ch1")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if string(data) != testChapterOne {
		t.Errorf("Content returned %d bytes; want the archive entry at OEBPS/text/ch1.xhtml", len(data))
	}
}

func TestContent_UnknownID(t *testing.T) {
	doc := buildTestDocument(t, minimalBookFiles())
	defer doc.Close()

	_, err := doc.Content("ghost")
	if !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("error = %v, want wrapped ErrResourceNotFound", err)
	}
}

func TestContent_DeclaredButMissingPathFailsAtAccess(t *testing.T) {
	// The manifest declares a path the archive lacks. Construction must
	// succeed (it validates id references only); the first access fails.
	files := minimalBookFiles()
	files["OEBPS/content.opf"] = strings.Replace(testPackageXML,
		`href="images/cover.jpg"`, `href="images/missing.jpg"`, 1)
	delete(files, "OEBPS/images/cover.jpg")

	doc := buildTestDocument(t, files)
	defer doc.Close()

	_, err := doc.Content("cover-img")
	if !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("error = %v, want wrapped ErrResourceNotFound on first access", err)
	}
}

func TestContentByPath(t *testing.T) {
	doc := buildTestDocument(t, minimalBookFiles())
	defer doc.Close()

	data, err := doc.ContentByPath("OEBPS/text/ch2.xhtml")
	if err != nil {
		t.Fatalf("ContentByPath: %v", err)
	}
	if string(data) != testChapterTwo {
		t.Error("ContentByPath returned wrong bytes")
	}

	// Un-normalized input is resolved first.
	if _, err := doc.ContentByPath("OEBPS/text/../text/ch2.xhtml"); err != nil {
		t.Errorf("ContentByPath with dot segments: %v", err)
	}

	if _, err := doc.ContentByPath("nope.xhtml"); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("error = %v, want wrapped ErrResourceNotFound", err)
	}
}

func TestText_UTF8RoundTrip(t *testing.T) {
	// Valid UTF-8 with no declared encoding comes back byte-identical.
	files := minimalBookFiles()
	const body = "<html><body><p>exact bytes — ümlauts 漢字</p></body></html>"
	files["OEBPS/text/ch2.xhtml"] = body

	doc := buildTestDocument(t, files)
	defer doc.Close()

	got, err := doc.Text("ch2")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != body {
		t.Errorf("Text = %q; want input byte-identical", got)
	}
}

func TestText_DecodingError(t *testing.T) {
	files := minimalBookFiles()
	files["OEBPS/text/ch2.xhtml"] = "broken \xFF\xFE\xFD bytes"

	doc := buildTestDocument(t, files)
	defer doc.Close()

	_, err := doc.Text("ch2")
	if !errors.Is(err, ErrDecoding) {
		t.Errorf("error = %v, want wrapped ErrDecoding", err)
	}
}

func TestPlainText(t *testing.T) {
	doc := buildTestDocument(t, minimalBookFiles())
	defer doc.Close()

	got, err := doc.PlainText("ch2")
	if err != nil {
		t.Fatalf("PlainText: %v", err)
	}
	if got != "Second chapter." {
		t.Errorf("PlainText = %q; want %q", got, "Second chapter.")
	}
}

func TestRewrittenHTML(t *testing.T) {
	doc := buildTestDocument(t, minimalBookFiles())
	defer doc.Close()

	got, err := doc.RewrittenHTML("ch1")
	if err != nil {
		t.Fatalf("RewrittenHTML: %v", err)
	}

	wants := []string{
		`href="epub://OEBPS/styles/main.css"`,
		`href="epub://OEBPS/text/ch2.xhtml#note"`,
		`src="epub://OEBPS/images/cover.jpg"`,
		`href="https://example.com/x"`, // external link untouched
	}
	for _, w := range wants {
		if !strings.Contains(got, w) {
			t.Errorf("RewrittenHTML missing %q", w)
		}
	}
}

func TestRewrittenHTML_PrefixAndCSS(t *testing.T) {
	doc := buildTestDocument(t, minimalBookFiles())
	defer doc.Close()

	doc.SetLinkPrefix("/shelf/")
	doc.AddExtraCSS("p { line-height: 1.5 }")
	doc.AddExtraCSS("   ") // blank css is ignored

	got, err := doc.RewrittenHTML("ch1")
	if err != nil {
		t.Fatalf("RewrittenHTML: %v", err)
	}
	if !strings.Contains(got, `src="/shelf/OEBPS/images/cover.jpg"`) {
		t.Error("RewrittenHTML did not use the configured prefix")
	}
	if strings.Count(got, "<style>") != 1 {
		t.Errorf("RewrittenHTML injected %d styles; want 1", strings.Count(got, "<style>"))
	}
}

func TestCurrentConveniences(t *testing.T) {
	doc := buildTestDocument(t, minimalBookFiles())
	defer doc.Close()

	data, err := doc.CurrentContent()
	if err != nil {
		t.Fatalf("CurrentContent: %v", err)
	}
	if string(data) != testChapterOne {
		t.Error("CurrentContent returned wrong bytes for spine index 0")
	}

	doc.Next()
	text, err := doc.CurrentText()
	if err != nil {
		t.Fatalf("CurrentText: %v", err)
	}
	if !strings.Contains(text, "Second chapter.") {
		t.Errorf("CurrentText = %q; want chapter two's content", text)
	}

	htmlOut, err := doc.CurrentHTML()
	if err != nil {
		t.Fatalf("CurrentHTML: %v", err)
	}
	if !strings.Contains(htmlOut, "Second chapter.") {
		t.Errorf("CurrentHTML = %q; want chapter two's content", htmlOut)
	}
}
