package models

import "strings"

// Resolution records a single stream resolution: which torrent file was
// requested, what the resolver decided, and how long the probe took.
// History rows power the recent-resolutions API and debugging.
type Resolution struct {
	BaseModel

	// InfoHash is the torrent info hash, lower-case hex.
	InfoHash string `json:"info_hash" gorm:"not null;size:64;index"`
	// FileIdx is the file index inside the torrent; -1 means the
	// server's default selection.
	FileIdx int `json:"file_idx" gorm:"default:-1"`

	MediaURL  string `json:"media_url" gorm:"size:2048"`
	StreamURL string `json:"stream_url" gorm:"not null;size:2048"`

	NeedsTranscoding bool   `json:"needs_transcoding" gorm:"default:false"`
	Reason           string `json:"reason,omitempty" gorm:"size:500"`

	// ServerType is "local" or "remote".
	ServerType string `json:"server_type" gorm:"size:10"`

	// Platform the resolution was evaluated for.
	Platform string `json:"platform" gorm:"size:20"`

	// ProbeDurationMs is the wall time of the probe round trip; zero
	// when the probe was skipped.
	ProbeDurationMs int64 `json:"probe_duration_ms"`
}

// TableName returns the table name for GORM.
func (Resolution) TableName() string {
	return "resolutions"
}

// Validate checks the resolution fields.
func (r *Resolution) Validate() error {
	if strings.TrimSpace(r.InfoHash) == "" {
		return ErrInfoHashRequired
	}
	if strings.TrimSpace(r.StreamURL) == "" {
		return ErrURLRequired
	}
	switch r.ServerType {
	case "local", "remote", "":
	default:
		return ErrInvalidServerType
	}
	return nil
}
