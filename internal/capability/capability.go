// Package capability defines playback capability profiles for the platforms
// resolvarr serves. Each profile is a static table of supported video codecs,
// audio codecs, maximum simultaneous audio channels, and acceptable container
// formats, empirically derived from the media framework each platform ships
// (AVFoundation, ExoPlayer, MSE). Profiles are configuration data, not logic.
package capability

import (
	"strings"

	"github.com/resolvarr/resolvarr/internal/codec"
)

// Platform identifies a playback target.
type Platform string

// Platform constants.
const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// String returns the string representation of the platform.
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform maps a platform identifier to a known Platform. Unknown
// identifiers fall back to the conservative web profile.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ios", "ipados", "tvos":
		return PlatformIOS
	case "android", "androidtv", "firetv":
		return PlatformAndroid
	default:
		return PlatformWeb
	}
}

// MediaCapabilities is the set of codecs and containers a playback target
// supports without server assistance.
type MediaCapabilities struct {
	// VideoCodecs lists supported video codec names (canonical or alias).
	VideoCodecs []string `json:"video_codecs"`
	// AudioCodecs lists supported audio codec names (canonical or alias).
	AudioCodecs []string `json:"audio_codecs"`
	// MaxAudioChannels is the maximum simultaneous audio channel count.
	// Must be a positive integer.
	MaxAudioChannels int `json:"max_audio_channels"`
	// Formats lists acceptable container format tokens. A probed format name
	// is accepted when any token is a substring of the lower-cased name.
	Formats []string `json:"formats"`
}

// profiles holds the per-platform playback capability tables.
var profiles = map[Platform]MediaCapabilities{
	PlatformIOS: {
		VideoCodecs:      []string{"h264", "h265"},
		AudioCodecs:      []string{"aac", "mp3", "ac3", "eac3"},
		MaxAudioChannels: 6,
		Formats:          []string{"mp4", "mov", "m4v"},
	},
	PlatformAndroid: {
		VideoCodecs:      []string{"h264", "h265", "vp8", "vp9", "av1"},
		AudioCodecs:      []string{"aac", "mp3", "ac3", "eac3", "opus", "flac", "vorbis"},
		MaxAudioChannels: 8,
		Formats:          []string{"mp4", "webm", "matroska", "mov"},
	},
	PlatformWeb: {
		VideoCodecs:      []string{"h264", "vp8", "vp9", "av1"},
		AudioCodecs:      []string{"aac", "mp3", "opus", "flac", "vorbis"},
		MaxAudioChannels: 2,
		Formats:          []string{"mp4", "webm"},
	},
}

// ProfileFor returns the playback capability profile for a platform.
// The returned value is a copy; mutating it does not affect the table.
func ProfileFor(p Platform) MediaCapabilities {
	caps, ok := profiles[p]
	if !ok {
		caps = profiles[PlatformWeb]
	}
	return caps.Clone()
}

// TranscodeProfileFor returns the capability set the server-side transcoder
// is asked to produce for a platform. This models what the remote transcoding
// service can emit, not what the client decodes natively, so it is narrower
// than the playback profiles above. The channel limit follows the platform:
// web clients get stereo, everything else up to 7.1.
func TranscodeProfileFor(p Platform) MediaCapabilities {
	maxChannels := 8
	if p == PlatformWeb {
		maxChannels = 2
	}
	return MediaCapabilities{
		VideoCodecs:      []string{"h264"},
		AudioCodecs:      []string{"aac"},
		MaxAudioChannels: maxChannels,
		Formats:          []string{"mp4"},
	}
}

// Clone returns a deep copy of the capability set.
func (c MediaCapabilities) Clone() MediaCapabilities {
	clone := MediaCapabilities{
		MaxAudioChannels: c.MaxAudioChannels,
	}
	clone.VideoCodecs = append([]string(nil), c.VideoCodecs...)
	clone.AudioCodecs = append([]string(nil), c.AudioCodecs...)
	clone.Formats = append([]string(nil), c.Formats...)
	return clone
}

// SupportsFormat reports whether the probed container format name is
// acceptable. Tokens are matched as substrings of the lower-cased format
// name, mirroring how probe format names like "mov,mp4,m4a,3gp" bundle
// several tokens. A token that happens to occur inside an unrelated name
// will false-positive; that fragility is part of the observed contract.
func (c MediaCapabilities) SupportsFormat(formatName string) bool {
	lower := strings.ToLower(formatName)
	for _, f := range c.Formats {
		if strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// SupportsVideoCodec reports whether the named video codec is playable,
// resolving aliases through the codec registry.
func (c MediaCapabilities) SupportsVideoCodec(name string) bool {
	return codec.IsSupported(name, c.VideoCodecs)
}

// SupportsAudioCodec reports whether the named audio codec is playable,
// resolving aliases through the codec registry.
func (c MediaCapabilities) SupportsAudioCodec(name string) bool {
	return codec.IsSupported(name, c.AudioCodecs)
}

// Validate checks the capability set for structural problems.
func (c MediaCapabilities) Validate() error {
	if c.MaxAudioChannels < 1 {
		return ErrInvalidMaxChannels
	}
	return nil
}
