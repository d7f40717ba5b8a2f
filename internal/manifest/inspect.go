package manifest

import (
	"fmt"
	"strings"

	"github.com/grafov/m3u8"
)

// Inspection summarizes what a full HLS decoder sees in a manifest.
// It is used to reject unsupported playlists and to flag attributes
// Parse does not model.
type Inspection struct {
	// IsMaster is true for a multi-variant (master) playlist.
	IsMaster bool

	// Variants is the number of variant streams of a master playlist.
	Variants int

	// Segments is the number of media segments the decoder found.
	Segments int

	// KeyIVs lists explicit IV attributes of EXT-X-KEY tags, in order.
	KeyIVs []string

	// Live is true when the media playlist has no EXT-X-ENDLIST tag.
	Live bool
}

// Inspect decodes text with a general-purpose HLS decoder. Manifests the
// decoder cannot handle yield an error, never a panic: m3u8 dereferences a
// nil segment when EXT-X-KEY precedes a URI line with no EXTINF.
func Inspect(text string) (info *Inspection, err error) {
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("playlist decoder failed: %v", r)
		}
	}()

	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}

	if listType == m3u8.MASTER {
		masterPlaylist, ok := playlist.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, fmt.Errorf("unexpected playlist type")
		}
		return &Inspection{
			IsMaster: true,
			Variants: len(masterPlaylist.Variants),
		}, nil
	}

	mediaPlaylist, ok := playlist.(*m3u8.MediaPlaylist)
	if !ok {
		return nil, fmt.Errorf("unexpected playlist type")
	}

	info = &Inspection{
		Live: !mediaPlaylist.Closed,
	}

	seen := map[m3u8.Key]bool{}
	addKey := func(k *m3u8.Key) {
		if k == nil || seen[*k] {
			return
		}
		seen[*k] = true
		if k.IV != "" {
			info.KeyIVs = append(info.KeyIVs, k.IV)
		}
	}

	addKey(mediaPlaylist.Key)
	for _, seg := range mediaPlaylist.Segments {
		if seg == nil {
			break
		}
		info.Segments++
		addKey(seg.Key)
	}

	return info, nil
}
