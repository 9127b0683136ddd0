// Package resolver decides how a media file reaches a player: directly from
// the streaming server when the client can play it natively, or through the
// server's HLS transcoding endpoint when it cannot.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/resolvarr/resolvarr/internal/capability"
	"github.com/resolvarr/resolvarr/internal/httpclient"
	"github.com/resolvarr/resolvarr/internal/observability"
	"github.com/resolvarr/resolvarr/internal/probe"
	"github.com/resolvarr/resolvarr/internal/urlutil"
)

// DefaultFileIndex requests the server's default file selection (the
// largest file in the torrent) instead of an explicit index.
const DefaultFileIndex = -1

// Resolver resolves playback URLs against a single streaming server.
// It is safe for concurrent use; capability updates take effect for
// resolutions that start after the update.
type Resolver struct {
	baseURL  string
	platform capability.Platform
	http     *httpclient.Client
	logger   *slog.Logger

	mu        sync.RWMutex
	caps      capability.MediaCapabilities
	transcode capability.MediaCapabilities
}

// New creates a Resolver for the streaming server at baseURL, with
// capabilities defaulting to the platform profile for the web.
func New(baseURL string) *Resolver {
	r := &Resolver{
		baseURL:  urlutil.NormalizeBaseURL(baseURL),
		platform: capability.PlatformWeb,
		http:     httpclient.NewWithDefaults(),
		logger:   slog.Default(),
	}
	r.caps = capability.ProfileFor(r.platform)
	r.transcode = capability.TranscodeProfileFor(r.platform)
	return r
}

// WithPlatform sets the playback platform and resets the capability and
// transcode profiles to that platform's defaults.
func (r *Resolver) WithPlatform(p capability.Platform) *Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platform = p
	r.caps = capability.ProfileFor(p)
	r.transcode = capability.TranscodeProfileFor(p)
	return r
}

// WithHTTPClient sets the HTTP client used for probe, stats and health
// requests.
func (r *Resolver) WithHTTPClient(client *httpclient.Client) *Resolver {
	if client != nil {
		r.http = client
	}
	return r
}

// WithLogger sets the logger.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	if logger != nil {
		r.logger = observability.WithComponent(logger, "resolver")
	}
	return r
}

// Clone returns a resolver sharing the base URL, HTTP client and logger,
// with its own capability state. Use it for per-request capability
// overrides without disturbing the shared resolver.
func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Resolver{
		baseURL:   r.baseURL,
		platform:  r.platform,
		http:      r.http,
		logger:    r.logger,
		caps:      r.caps.Clone(),
		transcode: r.transcode.Clone(),
	}
}

// BaseURL returns the normalized streaming server base URL.
func (r *Resolver) BaseURL() string {
	return r.baseURL
}

// Platform returns the playback platform the resolver was configured for.
func (r *Resolver) Platform() capability.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.platform
}

// Capabilities returns a copy of the active playback capabilities.
func (r *Resolver) Capabilities() capability.MediaCapabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caps.Clone()
}

// SetCapabilities replaces the playback capabilities. In-flight resolutions
// keep the capabilities they started with.
func (r *Resolver) SetCapabilities(caps capability.MediaCapabilities) error {
	if err := caps.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps = caps.Clone()
	return nil
}

// StreamURL builds the direct playback URL for a file inside a torrent.
// A fileIdx of DefaultFileIndex asks the server to pick the largest file.
func (r *Resolver) StreamURL(infoHash string, fileIdx int) string {
	return fmt.Sprintf("%s/%s/%d", r.baseURL, url.PathEscape(infoHash), fileIdx)
}

// CheckCompatibility probes mediaURL on the streaming server and matches
// the reported container and streams against the active capabilities.
// It never fails: any probe error degrades to an incompatible result so
// playback can fall back to transcoding.
func (r *Resolver) CheckCompatibility(ctx context.Context, mediaURL string) CompatibilityResult {
	probeURL := r.baseURL + "/hlsv2/probe?mediaURL=" + url.QueryEscape(mediaURL)

	resp, err := r.http.Get(ctx, probeURL)
	if err != nil {
		observability.WithError(r.logger, err).WarnContext(ctx, "probe request failed", "media_url", mediaURL)
		return CompatibilityResult{Compatible: false, Reason: ReasonProbeRequestFailed}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		r.logger.WarnContext(ctx, "probe returned non-success status",
			"media_url", mediaURL, "status", resp.StatusCode)
		return CompatibilityResult{Compatible: false, Reason: ReasonProbeRequestFailed}
	}

	result, err := probe.Decode(resp.Body)
	if err != nil {
		observability.WithError(r.logger, err).WarnContext(ctx, "probe response unparseable", "media_url", mediaURL)
		return CompatibilityResult{Compatible: false, Reason: ReasonProbeParseError}
	}

	caps := r.Capabilities()
	return evaluate(result, caps)
}

// CanPlayDirectly is a convenience wrapper over CheckCompatibility.
func (r *Resolver) CanPlayDirectly(ctx context.Context, mediaURL string) bool {
	return r.CheckCompatibility(ctx, mediaURL).Compatible
}

// evaluate matches a probe result against capabilities. The container is
// checked first, then streams in container order; the first failure wins.
func evaluate(result *probe.Result, caps capability.MediaCapabilities) CompatibilityResult {
	if !caps.SupportsFormat(result.Format.Name) {
		return CompatibilityResult{
			Compatible: false,
			Reason:     fmt.Sprintf("Unsupported container format: %s", result.Format.Name),
		}
	}

	for _, s := range result.Streams {
		switch s.Track {
		case probe.TrackVideo:
			if !caps.SupportsVideoCodec(s.Codec) {
				return CompatibilityResult{
					Compatible: false,
					Reason:     fmt.Sprintf("Unsupported video codec: %s", s.Codec),
				}
			}
		case probe.TrackAudio:
			if !caps.SupportsAudioCodec(s.Codec) {
				return CompatibilityResult{
					Compatible: false,
					Reason:     fmt.Sprintf("Unsupported audio codec: %s", s.Codec),
				}
			}
			if s.Channels > caps.MaxAudioChannels {
				return CompatibilityResult{
					Compatible: false,
					Reason: fmt.Sprintf("Audio channel count %d exceeds maximum %d",
						s.Channels, caps.MaxAudioChannels),
				}
			}
		}
	}

	return CompatibilityResult{Compatible: true}
}

// GetStream resolves the playback URL for a file inside a torrent.
//
// Local servers are trusted: the direct URL is returned without probing.
// For remote servers the file is probed and, when any stream is not
// directly playable, the returned URL points at the server's HLS
// transcoding endpoint instead.
func (r *Resolver) GetStream(ctx context.Context, infoHash string, fileIdx int) StreamResult {
	direct := r.StreamURL(infoHash, fileIdx)

	if urlutil.IsLocalURL(r.baseURL) {
		r.logger.DebugContext(ctx, "local server, skipping probe", "info_hash", infoHash)
		return StreamResult{URL: direct, ServerType: ServerTypeLocal}
	}

	compat := r.CheckCompatibility(ctx, direct)
	if compat.Compatible {
		return StreamResult{URL: direct, ServerType: ServerTypeRemote}
	}

	r.logger.InfoContext(ctx, "falling back to transcoding",
		"info_hash", infoHash, "file_idx", fileIdx, "reason", compat.Reason)

	return StreamResult{
		URL:              r.GenerateHLSURL(direct),
		NeedsTranscoding: true,
		Reason:           compat.Reason,
		ServerType:       ServerTypeRemote,
	}
}

// GetStreamingURL resolves the playback URL for mediaURL, probing remote
// servers and falling back to HLS transcoding when needed.
func (r *Resolver) GetStreamingURL(ctx context.Context, mediaURL string) StreamResult {
	if urlutil.IsLocalURL(r.baseURL) {
		return StreamResult{URL: mediaURL, ServerType: ServerTypeLocal}
	}

	compat := r.CheckCompatibility(ctx, mediaURL)
	if compat.Compatible {
		return StreamResult{URL: mediaURL, ServerType: ServerTypeRemote}
	}

	return StreamResult{
		URL:              r.GenerateHLSURL(mediaURL),
		NeedsTranscoding: true,
		Reason:           compat.Reason,
		ServerType:       ServerTypeRemote,
	}
}

// GenerateHLSURL builds a transcoding playlist URL for mediaURL. The
// embedded codec and channel parameters come from the transcode profile,
// not the client capabilities: they describe what the transcoder should
// produce, which every client of the platform can play.
func (r *Resolver) GenerateHLSURL(mediaURL string) string {
	r.mu.RLock()
	transcode := r.transcode
	r.mu.RUnlock()

	sessionID := strings.ReplaceAll(uuid.NewString(), "-", "")

	params := url.Values{}
	params.Set("mediaURL", mediaURL)
	for _, c := range transcode.VideoCodecs {
		params.Add("videoCodecs", c)
	}
	for _, c := range transcode.AudioCodecs {
		params.Add("audioCodecs", c)
	}
	params.Set("maxAudioChannels", strconv.Itoa(transcode.MaxAudioChannels))

	return fmt.Sprintf("%s/hlsv2/%s/master.m3u8?%s", r.baseURL, sessionID, params.Encode())
}

// GetStats fetches live download statistics for a file. It returns nil on
// any failure; stats are advisory and never block playback.
func (r *Resolver) GetStats(ctx context.Context, infoHash string, fileIdx int) map[string]any {
	statsURL := fmt.Sprintf("%s/%s/%d/stats.json", r.baseURL, url.PathEscape(infoHash), fileIdx)

	resp, err := r.http.Get(ctx, statsURL)
	if err != nil {
		observability.WithError(r.logger, err).DebugContext(ctx, "stats request failed", "info_hash", infoHash)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil
	}

	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		observability.WithError(r.logger, err).DebugContext(ctx, "stats response unparseable", "info_hash", infoHash)
		return nil
	}
	return stats
}

// Healthy reports whether the streaming server answers a HEAD request to
// its base URL.
func (r *Resolver) Healthy(ctx context.Context) bool {
	resp, err := r.http.Head(ctx, r.baseURL+"/")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
