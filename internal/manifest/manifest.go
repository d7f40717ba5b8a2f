// Package manifest parses HLS media playlists into a directive set.
package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agleyzer/hlsfetch/internal/apperror"
)

// Directive prefixes recognized by Parse. Matching is case-sensitive.
const (
	TagVersion        = "#EXT-X-VERSION:"
	TagTargetDuration = "#EXT-X-TARGETDURATION:"
	TagPlaylistType   = "#EXT-X-PLAYLIST-TYPE:"
	TagMediaSequence  = "#EXT-X-MEDIA-SEQUENCE:"
	TagKey            = "#EXT-X-KEY:"

	attrMethod = "METHOD="
	attrURI    = "URI="
)

// Key describes how segments are encrypted.
type Key struct {
	// Method is the METHOD attribute value, e.g. "AES-128". Empty if absent.
	Method string
	// URI is the URI attribute value with surrounding quotes removed. Empty if absent.
	URI string
}

// Directives is the result of parsing a manifest. It is not modified after Parse returns.
type Directives struct {
	Version        *uint32
	TargetDuration *uint32
	PlaylistType   *string
	MediaSequence  *uint32

	// Key holds the last #EXT-X-KEY line seen; earlier ones are overwritten.
	Key *Key

	// Segments are the segment references in manifest order.
	Segments []string
}

// ActiveKey returns the key when segments must be decrypted. A missing key,
// or one with an empty METHOD or URI, means the segments are stored as-is.
func (d *Directives) ActiveKey() (Key, bool) {
	if d.Key == nil || d.Key.Method == "" || d.Key.URI == "" {
		return Key{}, false
	}
	return *d.Key, true
}

// Parse processes text line by line. Each line is classified by directive
// prefix, and independently recorded as a segment reference when it contains
// suffix. A directive or comment line containing suffix is therefore also
// recorded as a segment.
//
// Parse fails on the first malformed numeric directive.
func Parse(text, suffix string) (*Directives, error) {
	d := &Directives{Segments: []string{}}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		dir := Classify(line)
		switch dir.Kind {
		case KindVersion, KindTargetDuration, KindMediaSequence:
			n, err := parseUint(dir.Value)
			if err != nil {
				return nil, apperror.Parse(fmt.Sprintf("line %d: invalid %s value %q", i+1, dir.Kind, dir.Value), err)
			}
			switch dir.Kind {
			case KindVersion:
				d.Version = &n
			case KindTargetDuration:
				d.TargetDuration = &n
			case KindMediaSequence:
				d.MediaSequence = &n
			}
		case KindPlaylistType:
			v := dir.Value
			d.PlaylistType = &v
		case KindKey:
			key := parseKey(dir.Value)
			d.Key = &key
		}

		if strings.Contains(line, suffix) {
			d.Segments = append(d.Segments, line)
		}
	}

	return d, nil
}

// parseUint accepts an optional leading '+'.
func parseUint(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// parseKey extracts METHOD and URI from the comma-separated attribute list.
// Other attributes are ignored.
func parseKey(attrs string) Key {
	var key Key
	for _, field := range strings.Split(attrs, ",") {
		switch {
		case strings.HasPrefix(field, attrMethod):
			key.Method = strings.TrimPrefix(field, attrMethod)
		case strings.HasPrefix(field, attrURI):
			key.URI = strings.Trim(strings.TrimPrefix(field, attrURI), `"`)
		}
	}
	return key
}
