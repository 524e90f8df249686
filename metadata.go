package epubdoc

import (
	"sort"
	"strconv"
	"strings"
)

// extractMetadata converts the raw OPF metadata into the public Metadata
// struct. Every Dublin Core field keeps all of its values in declared order;
// unrecognized metadata elements never appear here and never fail the parse.
func extractMetadata(pkg *opfPackage) Metadata {
	om := &pkg.Metadata
	refines := buildRefinesMap(om.Metas)

	md := Metadata{
		Titles:       extractTitles(om.Titles, refines),
		Creators:     extractCreators(om.Creators, refines),
		Contributors: extractCreators(om.Contributors, refines),
		Languages:    values(om.Languages),
		Publishers:   values(om.Publishers),
		Subjects:     values(om.Subjects),
		Descriptions: values(om.Descriptions),
		Dates:        values(om.Dates),
		Sources:      values(om.Sources),
		Rights:       values(om.Rights),
	}

	for _, id := range om.Identifiers {
		v := strings.TrimSpace(id.Value)
		if v == "" {
			continue
		}
		ident := Identifier{Value: v, Scheme: id.Scheme, ID: id.ID}
		if ident.Scheme == "" && id.ID != "" {
			if s, ok := findRefine(refines, id.ID, "identifier-type"); ok {
				ident.Scheme = s
			}
		}
		md.Identifiers = append(md.Identifiers, ident)
	}

	md.UniqueIdentifier = resolveUniqueIdentifier(pkg.UniqueIdentifier, md.Identifiers)
	md.Modified = findModified(om.Metas)

	return md
}

// resolveUniqueIdentifier matches the package unique-identifier attribute
// against the identifier element ids. When nothing matches, the first
// identifier stands in so that callers still get a stable value.
func resolveUniqueIdentifier(idRef string, identifiers []Identifier) string {
	if idRef != "" {
		for _, id := range identifiers {
			if id.ID == idRef {
				return id.Value
			}
		}
	}
	if len(identifiers) > 0 {
		return identifiers[0].Value
	}
	return ""
}

// findModified returns the dcterms:modified timestamp (EPUB 3), or "".
func findModified(metas []opfMeta) string {
	for _, m := range metas {
		if m.Property == "dcterms:modified" && m.Refines == "" {
			if v := strings.TrimSpace(m.Value); v != "" {
				return v
			}
		}
	}
	return ""
}

// values collects the non-empty trimmed text of a Dublin Core element list.
func values(elems []opfDCElement) []string {
	var out []string
	for _, e := range elems {
		if v := strings.TrimSpace(e.Value); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// buildRefinesMap maps element id (without "#") to the <meta refines="#id">
// elements that refine it.
func buildRefinesMap(metas []opfMeta) map[string][]opfMeta {
	m := make(map[string][]opfMeta)
	for _, meta := range metas {
		if !strings.HasPrefix(meta.Refines, "#") {
			continue
		}
		id := meta.Refines[1:]
		m[id] = append(m[id], meta)
	}
	return m
}

// findRefine looks up a single refining property value for an element id.
func findRefine(refines map[string][]opfMeta, id, property string) (string, bool) {
	for _, m := range refines[id] {
		if m.Property == property {
			if v := strings.TrimSpace(m.Value); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// extractTitles returns the title values, ordered by display-seq refinements
// when any title carries one, otherwise in declared order.
func extractTitles(titles []opfDCElement, refines map[string][]opfMeta) []string {
	if len(titles) == 0 {
		return nil
	}

	type entry struct {
		value string
		seq   int
		index int
	}

	entries := make([]entry, 0, len(titles))
	hasSeq := false
	for i, t := range titles {
		v := strings.TrimSpace(t.Value)
		if v == "" {
			continue
		}
		e := entry{value: v, index: i}
		if t.ID != "" {
			if s, ok := findRefine(refines, t.ID, "display-seq"); ok {
				if n, err := strconv.Atoi(s); err == nil {
					e.seq = n
					hasSeq = true
				}
			}
		}
		entries = append(entries, e)
	}

	if hasSeq {
		sort.SliceStable(entries, func(i, j int) bool {
			si, sj := entries[i].seq, entries[j].seq
			// Titles without a sequence sort after those with one.
			if si == 0 || sj == 0 {
				return sj == 0 && si != 0
			}
			return si < sj
		})
	}

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

// extractCreators converts dc:creator or dc:contributor elements, merging
// EPUB 2 attribute refinements with EPUB 3 refines metadata.
func extractCreators(elems []opfDCElement, refines map[string][]opfMeta) []Creator {
	if len(elems) == 0 {
		return nil
	}
	out := make([]Creator, 0, len(elems))
	for _, e := range elems {
		name := strings.TrimSpace(e.Value)
		if name == "" {
			continue
		}
		c := Creator{Name: name, FileAs: e.FileAs, Role: e.Role}
		if e.ID != "" {
			if c.FileAs == "" {
				if v, ok := findRefine(refines, e.ID, "file-as"); ok {
					c.FileAs = v
				}
			}
			if c.Role == "" {
				if v, ok := findRefine(refines, e.ID, "role"); ok {
					c.Role = v
				}
			}
		}
		out = append(out, c)
	}
	return out
}
