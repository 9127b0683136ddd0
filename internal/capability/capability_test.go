package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		input    string
		expected Platform
	}{
		{"ios", PlatformIOS},
		{"iOS", PlatformIOS},
		{"tvos", PlatformIOS},
		{"android", PlatformAndroid},
		{"androidtv", PlatformAndroid},
		{"web", PlatformWeb},
		{"windows", PlatformWeb},
		{"", PlatformWeb},
		{"something-else", PlatformWeb},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePlatform(tt.input))
		})
	}
}

func TestProfileFor(t *testing.T) {
	ios := ProfileFor(PlatformIOS)
	assert.Contains(t, ios.VideoCodecs, "h264")
	assert.Contains(t, ios.AudioCodecs, "aac")
	assert.Equal(t, 6, ios.MaxAudioChannels)

	web := ProfileFor(PlatformWeb)
	assert.Equal(t, 2, web.MaxAudioChannels)
	assert.NotContains(t, web.VideoCodecs, "h265")

	// Unknown platforms fall back to the web profile
	other := ProfileFor(Platform("kaios"))
	assert.Equal(t, web, other)
}

func TestProfileForReturnsCopy(t *testing.T) {
	caps := ProfileFor(PlatformIOS)
	caps.VideoCodecs[0] = "mutated"
	caps.MaxAudioChannels = 99

	fresh := ProfileFor(PlatformIOS)
	assert.Equal(t, "h264", fresh.VideoCodecs[0])
	assert.Equal(t, 6, fresh.MaxAudioChannels)
}

func TestTranscodeProfileFor(t *testing.T) {
	web := TranscodeProfileFor(PlatformWeb)
	assert.Equal(t, 2, web.MaxAudioChannels)

	ios := TranscodeProfileFor(PlatformIOS)
	assert.Equal(t, 8, ios.MaxAudioChannels)

	android := TranscodeProfileFor(PlatformAndroid)
	assert.Equal(t, 8, android.MaxAudioChannels)

	// The transcode target set is fixed regardless of platform
	for _, p := range []Platform{PlatformIOS, PlatformAndroid, PlatformWeb} {
		caps := TranscodeProfileFor(p)
		assert.NotEmpty(t, caps.VideoCodecs)
		assert.NotEmpty(t, caps.AudioCodecs)
	}
}

func TestSupportsFormat(t *testing.T) {
	caps := MediaCapabilities{Formats: []string{"mp4", "mov"}}

	tests := []struct {
		format   string
		expected bool
	}{
		{"mp4", true},
		{"mov,mp4,m4a,3gp,3g2,mj2", true}, // bundled demuxer name
		{"MP4", true},
		{"matroska", false},
		{"matroska,webm", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.expected, caps.SupportsFormat(tt.format))
		})
	}
}

func TestSupportsCodecs(t *testing.T) {
	caps := ProfileFor(PlatformIOS)

	assert.True(t, caps.SupportsVideoCodec("h264"))
	assert.True(t, caps.SupportsVideoCodec("avc1"))
	assert.True(t, caps.SupportsVideoCodec("hev1"))
	assert.False(t, caps.SupportsVideoCodec("vp9"))

	assert.True(t, caps.SupportsAudioCodec("aac"))
	assert.True(t, caps.SupportsAudioCodec("mp4a"))
	assert.True(t, caps.SupportsAudioCodec("ec-3"))
	assert.False(t, caps.SupportsAudioCodec("opus"))
}

func TestValidate(t *testing.T) {
	caps := ProfileFor(PlatformAndroid)
	require.NoError(t, caps.Validate())

	caps.MaxAudioChannels = 0
	assert.ErrorIs(t, caps.Validate(), ErrInvalidMaxChannels)
}

// Growing any capability field can only widen the set of media classified
// playable, never shrink it.
func TestCapabilityGrowthIsMonotonic(t *testing.T) {
	base := MediaCapabilities{
		VideoCodecs:      []string{"h264"},
		AudioCodecs:      []string{"aac"},
		MaxAudioChannels: 2,
		Formats:          []string{"mp4"},
	}
	wider := MediaCapabilities{
		VideoCodecs:      append(base.Clone().VideoCodecs, "h265", "vp9"),
		AudioCodecs:      append(base.Clone().AudioCodecs, "opus"),
		MaxAudioChannels: 8,
		Formats:          append(base.Clone().Formats, "webm"),
	}

	for _, v := range []string{"h264", "avc1", "avc"} {
		if base.SupportsVideoCodec(v) {
			assert.True(t, wider.SupportsVideoCodec(v), "video codec %q lost", v)
		}
	}
	for _, a := range []string{"aac", "mp4a"} {
		if base.SupportsAudioCodec(a) {
			assert.True(t, wider.SupportsAudioCodec(a), "audio codec %q lost", a)
		}
	}
	for _, f := range []string{"mp4", "mov,mp4,m4a"} {
		if base.SupportsFormat(f) {
			assert.True(t, wider.SupportsFormat(f), "format %q lost", f)
		}
	}
}
