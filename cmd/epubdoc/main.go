// Command epubdoc inspects EPUB files: metadata, spine, table of contents,
// and resource extraction. All parsing lives in the epubdoc library; this
// binary only formats output.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lectorium/epubdoc"
)

var showWarnings bool

var rootCmd = &cobra.Command{
	Use:           "epubdoc",
	Short:         "Inspect EPUB files",
	Long:          "epubdoc reads an EPUB container and prints its metadata, reading order,\ntable of contents, or the content of individual resources.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Print metadata and document summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(args[0], func(doc *epubdoc.Document) error {
			md := doc.Metadata()
			printField("Title", md.Titles)
			for _, c := range md.Creators {
				fmt.Printf("Creator:    %s\n", c.Name)
			}
			printField("Language", md.Languages)
			printField("Publisher", md.Publishers)
			printField("Date", md.Dates)
			for _, id := range md.Identifiers {
				fmt.Printf("Identifier: %s\n", id.Value)
			}
			fmt.Printf("Version:    %s\n", doc.Version())
			if rid := doc.ReleaseIdentifier(); rid != "" {
				fmt.Printf("Release:    %s\n", rid)
			}
			fmt.Printf("Resources:  %d\n", len(doc.Manifest()))
			fmt.Printf("Spine:      %d entries\n", len(doc.Spine()))
			return nil
		})
	},
}

var tocCmd = &cobra.Command{
	Use:   "toc FILE",
	Short: "Print the table of contents as an indented tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(args[0], func(doc *epubdoc.Document) error {
			if !doc.HasTOC() {
				fmt.Println("(no table of contents)")
				return nil
			}
			printTOC(doc.TOC(), 0)
			return nil
		})
	},
}

var spineCmd = &cobra.Command{
	Use:   "spine FILE",
	Short: "Print the reading order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(args[0], func(doc *epubdoc.Document) error {
			for i, si := range doc.Spine() {
				marker := " "
				if !si.Linear {
					marker = "*"
				}
				fmt.Printf("%3d%s %-20s %s\n", i, marker, si.ID, si.Path)
			}
			return nil
		})
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract FILE ID",
	Short: "Write a resource's raw bytes to stdout or a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		return withDocument(args[0], func(doc *epubdoc.Document) error {
			data, err := doc.Content(args[1])
			if err != nil {
				return err
			}
			if out == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		})
	},
}

var textCmd = &cobra.Command{
	Use:   "text FILE ID",
	Short: "Print a resource's plain text",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(args[0], func(doc *epubdoc.Document) error {
			text, err := doc.PlainText(args[1])
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		})
	},
}

// withDocument opens the file, reports warnings to stderr when requested,
// runs fn, and closes the document.
func withDocument(path string, fn func(*epubdoc.Document) error) error {
	doc, err := epubdoc.Open(path)
	if err != nil {
		return err
	}
	defer doc.Close()

	if showWarnings {
		for _, w := range doc.Warnings() {
			log.Printf("warning: %s", w)
		}
	}
	return fn(doc)
}

func printField(name string, vals []string) {
	for _, v := range vals {
		fmt.Printf("%-11s %s\n", name+":", v)
	}
}

func printTOC(points []epubdoc.NavPoint, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, p := range points {
		target := p.Path
		if p.Fragment != "" {
			target += "#" + p.Fragment
		}
		if target != "" {
			fmt.Printf("%s%s  (%s)\n", indent, p.Label, target)
		} else {
			fmt.Printf("%s%s\n", indent, p.Label)
		}
		printTOC(p.Children, depth+1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&showWarnings, "warnings", "w", false, "print parser warnings to stderr")
	extractCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(infoCmd, tocCmd, spineCmd, extractCmd, textCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
