package resolver

// ServerType identifies which kind of streaming server produced a stream URL.
type ServerType string

// Server type constants.
const (
	// ServerTypeLocal is a streaming server on the local host. Local servers
	// are trusted and network-unconstrained; compatibility probing is skipped.
	ServerTypeLocal ServerType = "local"
	// ServerTypeRemote is a streaming server reached over the network.
	ServerTypeRemote ServerType = "remote"
)

// Incompatibility reason prefixes. The probe failure reasons are fixed
// strings so callers can distinguish transport failures from bad payloads.
const (
	ReasonProbeRequestFailed = "Probe request failed"
	ReasonProbeParseError    = "Probe parse error"
)

// CompatibilityResult is the outcome of matching a probed media description
// against a playback capability profile.
type CompatibilityResult struct {
	// Compatible is true when every probed stream is directly playable.
	Compatible bool `json:"compatible"`
	// Reason explains the first failing check when incompatible.
	Reason string `json:"reason,omitempty"`
}

// StreamResult is the final resolved playback instruction.
type StreamResult struct {
	// URL is the playback URL: either the direct stream or an HLS
	// master playlist served by the transcoding endpoint.
	URL string `json:"url"`
	// NeedsTranscoding is true when URL points at the transcoder.
	NeedsTranscoding bool `json:"needs_transcoding"`
	// Reason carries the incompatibility explanation when transcoding.
	Reason string `json:"reason,omitempty"`
	// ServerType records whether the base URL was local or remote.
	ServerType ServerType `json:"server_type,omitempty"`
}
