package epubdoc_test

import (
	"fmt"
	"log"

	"github.com/lectorium/epubdoc"
)

func ExampleOpen() {
	doc, err := epubdoc.Open("testdata/book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Close()

	md := doc.Metadata()
	fmt.Println(md.Title())
}

func ExampleNewReader() {
	// NewReader works with any io.ReaderAt, such as an *os.File or bytes.Reader.
	// f, _ := os.Open("book.epub")
	// info, _ := f.Stat()
	// doc, err := epubdoc.NewReader(f, info.Size())

	_ = epubdoc.NewReader // placeholder — see Open example for full usage
}

func ExampleDocument_Metadata() {
	doc, err := epubdoc.Open("testdata/book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Close()

	md := doc.Metadata()

	fmt.Printf("Title:    %s\n", md.Title())
	for _, lang := range md.Languages {
		fmt.Printf("Language: %s\n", lang)
	}

	for _, c := range md.Creators {
		fmt.Printf("Creator:  %s (%s)\n", c.Name, c.Role)
	}
}

func ExampleDocument_TOC() {
	doc, err := epubdoc.Open("testdata/book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Close()

	var walk func(points []epubdoc.NavPoint, depth int)
	walk = func(points []epubdoc.NavPoint, depth int) {
		for _, p := range points {
			fmt.Printf("%*s%s → %s\n", depth*2, "", p.Label, p.Path)
			walk(p.Children, depth+1)
		}
	}
	walk(doc.TOC(), 0)
}

func ExampleDocument_Next() {
	doc, err := epubdoc.Open("testdata/book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Close()

	// Walk the spine front to back, printing the plain text of each
	// document. Next clamps at the last entry.
	for {
		text, err := doc.CurrentText()
		if err == nil {
			fmt.Printf("%-30s %d chars\n", doc.Current().Path, len(text))
		}
		if doc.Position() == len(doc.Spine())-1 {
			break
		}
		doc.Next()
	}
}

func ExampleDocument_RewrittenHTML() {
	doc, err := epubdoc.Open("testdata/book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Close()

	// Internal links come back prefixed so a viewer can intercept them.
	doc.SetLinkPrefix("book://")
	doc.AddExtraCSS("body { max-width: 40em; margin: auto }")

	html, err := doc.RewrittenHTML(doc.Current().ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(html))
}

func ExampleDocument_Cover() {
	doc, err := epubdoc.Open("testdata/book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Close()

	cover, err := doc.Cover()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s (%s, %d bytes)\n", cover.Path, cover.MediaType, len(cover.Data))
}
