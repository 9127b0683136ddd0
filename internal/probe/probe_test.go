package probe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	body := `{
		"format": {"name": "mov,mp4,m4a,3gp", "duration": 5400.5},
		"streams": [
			{"track": "video", "codec": "avc1"},
			{"track": "audio", "codec": "mp4a", "channels": 2},
			{"track": "subtitle", "codec": "mov_text"}
		]
	}`

	result, err := Decode(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "mov,mp4,m4a,3gp", result.Format.Name)
	assert.InDelta(t, 5400.5, result.Format.Duration, 0.001)
	require.Len(t, result.Streams, 3)

	video := result.VideoStreams()
	require.Len(t, video, 1)
	assert.Equal(t, "avc1", video[0].Codec)

	audio := result.AudioStreams()
	require.Len(t, audio, 1)
	assert.Equal(t, 2, audio[0].Channels)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"format": `))
	assert.Error(t, err)
}
