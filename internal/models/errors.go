package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrInfoHashRequired indicates a required info hash field is empty.
	ErrInfoHashRequired = errors.New("info hash is required")

	// ErrURLRequired indicates a required URL field is empty.
	ErrURLRequired = errors.New("url is required")

	// ErrInvalidPlatform indicates an unknown playback platform.
	ErrInvalidPlatform = errors.New("invalid platform: must be 'ios', 'android' or 'web'")

	// ErrInvalidMaxAudioChannels indicates a non-positive channel limit.
	ErrInvalidMaxAudioChannels = errors.New("max audio channels must be positive")

	// ErrInvalidServerType indicates an unknown server type.
	ErrInvalidServerType = errors.New("invalid server type: must be 'local' or 'remote'")
)
