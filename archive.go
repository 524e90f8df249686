package epubdoc

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// maxDecompressSize is the maximum allowed decompressed size for a single
// archive entry, guarding against zip bombs. 256 MB.
const maxDecompressSize int64 = 256 * 1024 * 1024

// archiveReader is the capability interface the document model consumes for
// container access. ReadEntry returns the full bytes of the named entry or a
// wrapped ErrResourceNotFound; Entries lists all entry names and is used only
// for the bootstrap-missing fallback and diagnostics.
type archiveReader interface {
	ReadEntry(path string) ([]byte, error)
	Entries() []string
}

// zipArchive implements archiveReader over a *zip.Reader with pre-built
// lookup indexes.
type zipArchive struct {
	zr    *zip.Reader
	exact map[string]*zip.File
	lower map[string]*zip.File
}

func newZipArchive(zr *zip.Reader) *zipArchive {
	a := &zipArchive{
		zr:    zr,
		exact: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if _, ok := a.exact[f.Name]; !ok {
			a.exact[f.Name] = f // first declaration wins
		}
		low := strings.ToLower(f.Name)
		if _, ok := a.lower[low]; !ok {
			a.lower[low] = f
		}
	}
	return a
}

// ReadEntry reads the full contents of an archive entry. The lookup tries the
// exact name first, then the percent-decoded name, then a case-insensitive
// match; some producers store percent-encoded hrefs verbatim as entry names.
func (a *zipArchive) ReadEntry(name string) ([]byte, error) {
	f := a.find(name)
	if f == nil {
		return nil, fmt.Errorf("archive entry %q: %w", name, ErrResourceNotFound)
	}
	return readZipEntry(f)
}

func (a *zipArchive) find(name string) *zip.File {
	if f, ok := a.exact[name]; ok {
		return f
	}
	if decoded, err := url.PathUnescape(name); err == nil && decoded != name {
		if f, ok := a.exact[decoded]; ok {
			return f
		}
	}
	if f, ok := a.lower[strings.ToLower(name)]; ok {
		return f
	}
	return nil
}

// Entries returns all entry names in archive order.
func (a *zipArchive) Entries() []string {
	names := make([]string, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// readZipEntry decompresses a single entry, enforcing maxDecompressSize.
func readZipEntry(f *zip.File) ([]byte, error) {
	return readZipEntryWithLimit(f, maxDecompressSize)
}

// readZipEntryWithLimit is separated from readZipEntry so tests can use a
// smaller limit. The declared size is checked first, then the actual
// decompressed stream is capped at limit+1 bytes in case the declared size
// is forged.
func readZipEntryWithLimit(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("epubdoc: archive entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epubdoc: open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("epubdoc: read archive entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("epubdoc: archive entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}
	return data, nil
}
