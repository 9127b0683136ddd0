// Package codec provides a unified codec registry for video and audio codecs.
// It consolidates canonical codec names and their known aliases (container
// fourccs, RFC 6381 prefixes, ffprobe names) used throughout resolvarr when
// matching probed media against playback capability profiles.
package codec

import "strings"

// Video represents a video codec.
type Video string

// Video codec constants.
const (
	VideoH264   Video = "h264" // H.264/AVC
	VideoH265   Video = "h265" // H.265/HEVC
	VideoVP8    Video = "vp8"
	VideoVP9    Video = "vp9"
	VideoAV1    Video = "av1"
	VideoMPEG4  Video = "mpeg4"
	VideoTheora Video = "theora"
)

// Audio represents an audio codec.
type Audio string

// Audio codec constants.
const (
	AudioAAC    Audio = "aac"
	AudioMP3    Audio = "mp3"
	AudioAC3    Audio = "ac3"  // Dolby Digital
	AudioEAC3   Audio = "eac3" // Dolby Digital Plus
	AudioOpus   Audio = "opus"
	AudioVorbis Audio = "vorbis"
	AudioFLAC   Audio = "flac"
	AudioDTS    Audio = "dts"
	AudioPCM    Audio = "pcm"
)

// String returns the string representation of the video codec.
func (v Video) String() string {
	return string(v)
}

// String returns the string representation of the audio codec.
func (a Audio) String() string {
	return string(a)
}

// videoInfo contains metadata about a video codec.
type videoInfo struct {
	// Canonical name (h264, h265, etc.)
	Name Video
	// All known aliases that map to this codec
	Aliases []string
}

// audioInfo contains metadata about an audio codec.
type audioInfo struct {
	// Canonical name (aac, mp3, etc.)
	Name Audio
	// All known aliases that map to this codec
	Aliases []string
}

// videoRegistry contains all video codec definitions.
var videoRegistry = map[Video]*videoInfo{
	VideoH264: {
		Name:    VideoH264,
		Aliases: []string{"h264", "avc", "avc1", "h.264"},
	},
	VideoH265: {
		Name:    VideoH265,
		Aliases: []string{"h265", "hevc", "hev1", "hvc1", "h.265"},
	},
	VideoVP8: {
		Name:    VideoVP8,
		Aliases: []string{"vp8"},
	},
	VideoVP9: {
		Name:    VideoVP9,
		Aliases: []string{"vp9", "vp09"},
	},
	VideoAV1: {
		Name:    VideoAV1,
		Aliases: []string{"av1", "av01"},
	},
	VideoMPEG4: {
		Name:    VideoMPEG4,
		Aliases: []string{"mpeg4", "mp4v", "xvid", "divx"},
	},
	VideoTheora: {
		Name:    VideoTheora,
		Aliases: []string{"theora"},
	},
}

// audioRegistry contains all audio codec definitions.
var audioRegistry = map[Audio]*audioInfo{
	AudioAAC: {
		Name:    AudioAAC,
		Aliases: []string{"aac", "mp4a"},
	},
	AudioMP3: {
		Name:    AudioMP3,
		Aliases: []string{"mp3", "mp3float"},
	},
	AudioAC3: {
		Name:    AudioAC3,
		Aliases: []string{"ac3", "ac-3", "a52"},
	},
	AudioEAC3: {
		Name:    AudioEAC3,
		Aliases: []string{"eac3", "ec-3"},
	},
	AudioOpus: {
		Name:    AudioOpus,
		Aliases: []string{"opus"},
	},
	AudioVorbis: {
		Name:    AudioVorbis,
		Aliases: []string{"vorbis"},
	},
	AudioFLAC: {
		Name:    AudioFLAC,
		Aliases: []string{"flac"},
	},
	AudioDTS: {
		Name:    AudioDTS,
		Aliases: []string{"dts", "dca"},
	},
	AudioPCM: {
		Name:    AudioPCM,
		Aliases: []string{"pcm", "pcm_s16le", "pcm_s24le", "pcm_s32le"},
	},
}

// videoAliasIndex maps all aliases to their canonical codec.
var videoAliasIndex map[string]Video

// audioAliasIndex maps all aliases to their canonical codec.
var audioAliasIndex map[string]Audio

func init() {
	videoAliasIndex = make(map[string]Video)
	for codec, info := range videoRegistry {
		for _, alias := range info.Aliases {
			videoAliasIndex[strings.ToLower(alias)] = codec
		}
	}

	audioAliasIndex = make(map[string]Audio)
	for codec, info := range audioRegistry {
		for _, alias := range info.Aliases {
			audioAliasIndex[strings.ToLower(alias)] = codec
		}
	}
}

// ParseVideo parses a string (codec name or alias) to a Video codec.
// Returns the canonical codec and whether the parse was successful.
func ParseVideo(s string) (Video, bool) {
	if s == "" {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	codec, ok := videoAliasIndex[s]
	return codec, ok
}

// ParseAudio parses a string (codec name or alias) to an Audio codec.
// Returns the canonical codec and whether the parse was successful.
func ParseAudio(s string) (Audio, bool) {
	if s == "" {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	codec, ok := audioAliasIndex[s]
	return codec, ok
}

// Normalize converts any codec string (alias, fourcc) to its canonical form.
// Returns the input unchanged if not recognized.
func Normalize(name string) string {
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)

	if codec, ok := videoAliasIndex[lower]; ok {
		return string(codec)
	}
	if codec, ok := audioAliasIndex[lower]; ok {
		return string(codec)
	}

	return name
}

// Match returns true if two codec strings represent the same codec.
// Handles aliases and case differences. Strings outside any alias family
// match only on direct case-insensitive equality.
func Match(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(Normalize(a), Normalize(b))
}

// IsSupported reports whether the named codec is covered by a list of
// supported codec names. A codec is supported if it appears directly in the
// list (case-insensitively), or if it belongs to the same alias family as
// any list entry. For codecs outside every alias family, direct membership
// is the only path to a match.
func IsSupported(name string, supported []string) bool {
	if name == "" {
		return false
	}
	for _, s := range supported {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	canonical := Normalize(name)
	if canonical == name && !isKnown(name) {
		return false
	}
	for _, s := range supported {
		if strings.EqualFold(Normalize(s), canonical) {
			return true
		}
	}
	return false
}

// isKnown reports whether the name belongs to any alias family.
func isKnown(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := videoAliasIndex[lower]; ok {
		return true
	}
	_, ok := audioAliasIndex[lower]
	return ok
}

// NormalizeRFC6381 normalizes codec strings carrying version/profile info as
// found in HLS/DASH manifests (e.g. "avc1.64001f", "mp4a.40.2") to canonical
// form. Falls back to plain Normalize for simple names.
func NormalizeRFC6381(name string) string {
	if name == "" {
		return name
	}

	lower := strings.ToLower(name)
	if codec, ok := videoAliasIndex[lower]; ok {
		return string(codec)
	}
	if codec, ok := audioAliasIndex[lower]; ok {
		return string(codec)
	}

	if len(lower) >= 4 {
		switch lower[:4] {
		case "avc1", "avc3":
			return string(VideoH264)
		case "hev1", "hvc1":
			return string(VideoH265)
		case "mp4a":
			return string(AudioAAC)
		case "vp09":
			return string(VideoVP9)
		case "av01":
			return string(VideoAV1)
		case "ac-3":
			return string(AudioAC3)
		case "ec-3":
			return string(AudioEAC3)
		}
	}

	return name
}
