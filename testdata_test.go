package epubdoc

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// buildTestArchive creates an in-memory zip from the files map (path ->
// content) and returns an archiveReader over it. The "mimetype" entry, when
// present, is written first and stored uncompressed, as the format requires.
func buildTestArchive(t *testing.T, files map[string]string) *zipArchive {
	t.Helper()
	return newZipArchive(buildZipReader(t, files))
}

func buildZipReader(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	data := buildZipBytes(t, files)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildZipReader: open reader: %v", err)
	}
	return zr
}

func buildZipBytes(t testing.TB, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	if mt, ok := files["mimetype"]; ok {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			t.Fatalf("buildZipBytes: create mimetype: %v", err)
		}
		if _, err := io.WriteString(fw, mt); err != nil {
			t.Fatalf("buildZipBytes: write mimetype: %v", err)
		}
	}
	for name, content := range files {
		if name == "mimetype" {
			continue
		}
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildZipBytes: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("buildZipBytes: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildZipBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestDocument assembles a Document from in-memory archive contents.
func buildTestDocument(t *testing.T, files map[string]string) *Document {
	t.Helper()
	data := buildZipBytes(t, files)
	doc, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestDocument: %v", err)
	}
	return doc
}

// buildTestFile writes the archive to a temporary file and returns its path,
// for tests exercising Open.
func buildTestFile(t *testing.T, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildZipBytes(t, files), 0o644); err != nil {
		t.Fatalf("buildTestFile: write file: %v", err)
	}
	return fp
}

// minimalBookFiles returns the archive contents of a small but complete
// two-chapter EPUB 2 book with an NCX table of contents.
func minimalBookFiles() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testPackageXML,
		"OEBPS/toc.ncx":          testNCX,
		"OEBPS/text/ch1.xhtml":   testChapterOne,
		"OEBPS/text/ch2.xhtml":   testChapterTwo,
		"OEBPS/images/cover.jpg": "\xFF\xD8jpegbytes",
	}
}

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testPackageXML = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0" unique-identifier="bookid">
  <metadata xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>The Test Book</dc:title>
    <dc:creator opf:file-as="Author, Test" opf:role="aut">Test Author</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:uuid:1234</dc:identifier>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="cover-img" href="images/cover.jpg" media-type="image/jpeg"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2" linear="no"/>
  </spine>
  <guide>
    <reference type="text" title="Start" href="text/ch1.xhtml"/>
  </guide>
</package>`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="n1" playOrder="1">
      <navLabel><text>Chapter 1</text></navLabel>
      <content src="text/ch1.xhtml#top"/>
      <navPoint id="n1a" playOrder="2">
        <navLabel><text>Section 1.1</text></navLabel>
        <content src="text/ch1.xhtml#s11"/>
      </navPoint>
    </navPoint>
    <navPoint id="n2" playOrder="3">
      <navLabel><text>Chapter 2</text></navLabel>
      <content src="text/ch2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

const testChapterOne = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter 1</title><link rel="stylesheet" href="../styles/main.css"/></head>
<body>
<h1 id="top">Chapter 1</h1>
<p>First paragraph with an <a href="ch2.xhtml#note">internal link</a>
and an <a href="https://example.com/x">external link</a>.</p>
<p id="s11"><img src="../images/cover.jpg" alt="cover"/></p>
</body>
</html>`

const testChapterTwo = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter 2</title></head>
<body><p id="note">Second chapter.</p></body>
</html>`
