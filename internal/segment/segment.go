// Package segment resolves manifest segment references to fetchable locations.
package segment

import (
	"net/url"
	"strings"
)

// Segment is one media segment to fetch.
type Segment struct {
	// Ref is the reference exactly as it appeared in the manifest
	Ref string

	// URL is the location the segment is fetched from
	URL string

	// Sequence is the position in the manifest, starting at 0
	Sequence int
}

// Resolve joins base and ref as "{base}/{ref}". Absolute http(s) references
// are returned unchanged instead of being joined, which is the one case
// where the result is not the literal join.
func Resolve(base, ref string) string {
	if isAbsolute(ref) {
		return ref
	}
	return base + "/" + ref
}

// ResolveKey returns the location of the key resource, base immediately
// followed by uri. Absolute http(s) URIs are returned unchanged rather
// than appended to base.
func ResolveKey(base, uri string) string {
	if isAbsolute(uri) {
		return uri
	}
	return base + uri
}

// ResolveAll resolves refs in order.
func ResolveAll(base string, refs []string) []Segment {
	segments := make([]Segment, 0, len(refs))
	for i, ref := range refs {
		segments = append(segments, Segment{
			Ref:      ref,
			URL:      Resolve(base, ref),
			Sequence: i,
		})
	}
	return segments
}

func isAbsolute(ref string) bool {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return false
	}
	u, err := url.Parse(ref)
	return err == nil && u.Host != ""
}
