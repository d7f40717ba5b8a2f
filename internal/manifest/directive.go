package manifest

import "strings"

// Kind identifies a directive line.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindVersion
	KindTargetDuration
	KindPlaylistType
	KindMediaSequence
	KindKey
)

func (k Kind) String() string {
	switch k {
	case KindVersion:
		return "EXT-X-VERSION"
	case KindTargetDuration:
		return "EXT-X-TARGETDURATION"
	case KindPlaylistType:
		return "EXT-X-PLAYLIST-TYPE"
	case KindMediaSequence:
		return "EXT-X-MEDIA-SEQUENCE"
	case KindKey:
		return "EXT-X-KEY"
	default:
		return "unrecognized"
	}
}

// Directive is a classified manifest line. Value is the text after the prefix.
type Directive struct {
	Kind  Kind
	Value string
}

var prefixes = []struct {
	prefix string
	kind   Kind
}{
	{TagVersion, KindVersion},
	{TagTargetDuration, KindTargetDuration},
	{TagPlaylistType, KindPlaylistType},
	{TagMediaSequence, KindMediaSequence},
	{TagKey, KindKey},
}

// Classify returns the directive a line starts with. The first matching prefix wins.
func Classify(line string) Directive {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return Directive{Kind: p.kind, Value: rest}
		}
	}
	return Directive{Kind: KindUnrecognized}
}
