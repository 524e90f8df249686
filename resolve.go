package epubdoc

import (
	"net/url"
	"strings"
)

// resolveReference resolves a stored href against a base directory and
// returns the canonical archive path together with the fragment anchor
// (without "#"), which is kept separate because fragments are never part
// of archive entry names.
//
// Steps, in order: the reference is trimmed and percent-decoded (input
// that does not decode is used raw), the fragment is split off, a path
// with a leading "/" is taken as archive-absolute while any other path is
// joined to baseDir, and "."/".." segments are collapsed POSIX-style.
// ".." runs that would climb above the archive root are clamped at the
// root rather than rejected; producers emitting such references are
// common enough that this is a defined tolerance.
//
// The function is pure and knows nothing about the manifest. A reference
// consisting only of a fragment ("#top") yields an empty path.
func resolveReference(baseDir, ref string) (string, string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ""
	}

	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}

	p, fragment := splitFragment(ref)
	if p == "" {
		return "", fragment
	}

	if strings.HasPrefix(p, "/") {
		return collapsePath(strings.TrimPrefix(p, "/")), fragment
	}
	if baseDir == "" || baseDir == "." {
		return collapsePath(p), fragment
	}
	return collapsePath(baseDir + "/" + p), fragment
}

// splitFragment splits a reference into its path and fragment parts at the
// first "#". The fragment is returned without the "#".
func splitFragment(ref string) (string, string) {
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

// collapsePath normalizes a slash-separated archive path: empty and "."
// segments are dropped, ".." consumes the previous segment, and ".." at
// the root is discarded (clamped) instead of escaping the archive.
func collapsePath(p string) string {
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			// skip
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			// clamped at root otherwise
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/")
}
