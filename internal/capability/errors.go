package capability

import "errors"

// ErrInvalidMaxChannels is returned when a capability set declares a
// non-positive audio channel limit.
var ErrInvalidMaxChannels = errors.New("max_audio_channels must be a positive integer")
