// Package epubdoc reads EPUB 2 and EPUB 3 container files into a queryable
// document model: Dublin Core metadata, the manifest, the spine-ordered
// reading sequence, and the table of contents, with every internal
// reference resolved to a canonical archive path.
//
// # Opening a document
//
// Use [Open] for a file path, or [NewReader] for an [io.ReaderAt]:
//
//	doc, err := epubdoc.Open("book.epub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
// Construction locates the package document through META-INF/container.xml,
// parses metadata, manifest, and spine, and builds the navigation tree from
// the EPUB 3 nav document or the legacy NCX map. Structural problems fail
// construction; auxiliary problems (a broken table of contents, a wrong
// mimetype entry) are recorded in [Document.Warnings] instead.
//
// # Reading content
//
// Resource bytes are fetched lazily from the archive. [Document.Content]
// fetches by manifest id, [Document.ContentByPath] by archive path.
// [Document.Text] decodes text resources using the declared encoding, a
// byte-order mark, or UTF-8, in that order. [Document.RewrittenHTML]
// additionally rewrites internal links to a configurable prefix (default
// "epub://") so content can be served outside its archive context:
//
//	html, err := doc.RewrittenHTML("ch1")
//
// # Navigating the spine
//
// The Document carries a cursor over the reading order: [Document.Next],
// [Document.Prev], [Document.GoTo], [Document.Current]. Independent reading
// sessions get their own cursor from [Document.NewCursor]:
//
//	for {
//	    text, _ := doc.CurrentText()
//	    process(text)
//	    if doc.Position() == len(doc.Spine())-1 {
//	        break
//	    }
//	    doc.Next()
//	}
//
// # Errors
//
// Failures wrap sentinel errors ([ErrMalformedContainer],
// [ErrMalformedPackage], [ErrDanglingReference], [ErrResourceNotFound],
// [ErrDecoding], [ErrOutOfBounds], [ErrNoCover]); test with [errors.Is].
//
// A fully built Document is safe for concurrent read-only use; the built-in
// cursor and the rewrite configuration are the only mutable state.
package epubdoc
