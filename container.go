package epubdoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// containerPath is the well-known location of the bootstrap file.
const containerPath = "META-INF/container.xml"

// packageMediaType is the rootfile media-type identifying a package document.
const packageMediaType = "application/oebps-package+xml"

// containerXML models META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// locatePackage finds the package document's archive path. It reads
// META-INF/container.xml and takes the rootfile declaring the package
// media-type, or the first rootfile with a non-empty full-path. When the
// bootstrap entry is absent entirely, it falls back to scanning the archive
// for the first ".opf" entry; inferred reports whether that fallback was
// taken so the caller can record a warning.
//
// A bootstrap entry that exists but is unparseable or names no usable path
// fails with a wrapped ErrMalformedContainer; the scan fallback applies only
// to a missing entry.
func locatePackage(ar archiveReader) (pkgPath string, inferred bool, err error) {
	data, err := ar.ReadEntry(containerPath)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			p, err := inferPackagePath(ar)
			return p, err == nil, err
		}
		return "", false, fmt.Errorf("read %s: %w", containerPath, err)
	}

	p, err := parseContainer(data)
	return p, false, err
}

// parseContainer extracts the package document path from container.xml bytes.
func parseContainer(data []byte) (string, error) {
	var c containerXML
	if err := decodeXML(data, &c); err != nil {
		return "", fmt.Errorf("parse %s: %v: %w", containerPath, err, ErrMalformedContainer)
	}

	if len(c.RootFiles) == 0 {
		return "", fmt.Errorf("%s has no rootfile entries: %w", containerPath, ErrMalformedContainer)
	}

	var fallback string
	for _, rf := range c.RootFiles {
		full := strings.TrimSpace(rf.FullPath)
		if full == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), packageMediaType) {
			return full, nil
		}
		if fallback == "" {
			fallback = full
		}
	}

	if fallback == "" {
		return "", fmt.Errorf("%s rootfile has empty full-path: %w", containerPath, ErrMalformedContainer)
	}
	return fallback, nil
}

// inferPackagePath scans the archive for the first ".opf" entry
// (case-insensitive). Used only when the bootstrap entry is missing.
func inferPackagePath(ar archiveReader) (string, error) {
	for _, name := range ar.Entries() {
		if strings.HasSuffix(strings.ToLower(name), ".opf") {
			return name, nil
		}
	}
	return "", fmt.Errorf("no %s and no package document in archive: %w", containerPath, ErrMalformedContainer)
}
