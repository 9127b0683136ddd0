// Package probe defines the wire types returned by a streaming server's
// media probe endpoint and helpers for decoding them.
package probe

import (
	"encoding/json"
	"fmt"
	"io"
)

// Track identifies the kind of elementary stream a probe reported.
type Track string

// Track constants.
const (
	TrackVideo    Track = "video"
	TrackAudio    Track = "audio"
	TrackSubtitle Track = "subtitle"
)

// Result is the server-reported description of a media file's actual
// contents. It is created per playback attempt and never persisted.
type Result struct {
	Format  Format   `json:"format"`
	Streams []Stream `json:"streams"`
}

// Format describes the media container.
type Format struct {
	// Name is the container format name, e.g. "mov,mp4,m4a,3gp" or "matroska".
	Name string `json:"name"`
	// Duration is the media duration in seconds.
	Duration float64 `json:"duration"`
}

// Stream describes a single elementary stream inside the container.
// Streams are reported in container order; evaluation order matters because
// the first unsupported stream determines the reported incompatibility.
type Stream struct {
	Track Track  `json:"track"`
	Codec string `json:"codec"`
	// Channels is the audio channel count; zero for non-audio streams.
	Channels int `json:"channels,omitempty"`
}

// Decode reads and decodes a probe response body.
func Decode(r io.Reader) (*Result, error) {
	var result Result
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding probe response: %w", err)
	}
	return &result, nil
}

// VideoStreams returns the video streams in container order.
func (r *Result) VideoStreams() []Stream {
	return r.streamsOf(TrackVideo)
}

// AudioStreams returns the audio streams in container order.
func (r *Result) AudioStreams() []Stream {
	return r.streamsOf(TrackAudio)
}

func (r *Result) streamsOf(track Track) []Stream {
	var out []Stream
	for _, s := range r.Streams {
		if s.Track == track {
			out = append(out, s)
		}
	}
	return out
}
