package models

import (
	"strings"

	"github.com/resolvarr/resolvarr/internal/capability"
)

// CapabilityProfile is a stored, named set of playback capabilities for a
// platform. Profiles let operators override the built-in platform defaults
// without redeploying, e.g. for a set-top box with unusual codec support.
type CapabilityProfile struct {
	BaseModel

	Name        string `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Description string `json:"description,omitempty" gorm:"size:500"`

	// Platform this profile applies to: ios, android or web.
	Platform string `json:"platform" gorm:"not null;size:20;index"`

	VideoCodecs StringArray `json:"video_codecs" gorm:"type:text;serializer:json"`
	AudioCodecs StringArray `json:"audio_codecs" gorm:"type:text;serializer:json"`
	Formats     StringArray `json:"formats" gorm:"type:text;serializer:json"`

	MaxAudioChannels int `json:"max_audio_channels" gorm:"default:2"`

	// IsDefault marks the profile used when a request names the platform
	// but no explicit profile. At most one default per platform.
	IsDefault bool `json:"is_default" gorm:"default:false"`

	// IsSystem marks seeded profiles that cannot be deleted.
	IsSystem bool `json:"is_system" gorm:"default:false"`
}

// TableName returns the table name for GORM.
func (CapabilityProfile) TableName() string {
	return "capability_profiles"
}

// Validate checks the profile fields.
func (p *CapabilityProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	switch p.Platform {
	case string(capability.PlatformIOS), string(capability.PlatformAndroid), string(capability.PlatformWeb):
	default:
		return ErrInvalidPlatform
	}
	if p.MaxAudioChannels <= 0 {
		return ErrInvalidMaxAudioChannels
	}
	return nil
}

// Capabilities converts the stored profile into the value type the
// resolver evaluates against.
func (p *CapabilityProfile) Capabilities() capability.MediaCapabilities {
	return capability.MediaCapabilities{
		VideoCodecs:      append([]string(nil), p.VideoCodecs...),
		AudioCodecs:      append([]string(nil), p.AudioCodecs...),
		Formats:          append([]string(nil), p.Formats...),
		MaxAudioChannels: p.MaxAudioChannels,
	}
}

// NewCapabilityProfile builds a profile row from a capability value.
func NewCapabilityProfile(name string, platform capability.Platform, caps capability.MediaCapabilities) *CapabilityProfile {
	return &CapabilityProfile{
		Name:             name,
		Platform:         string(platform),
		VideoCodecs:      append(StringArray(nil), caps.VideoCodecs...),
		AudioCodecs:      append(StringArray(nil), caps.AudioCodecs...),
		Formats:          append(StringArray(nil), caps.Formats...),
		MaxAudioChannels: caps.MaxAudioChannels,
	}
}
