// Package handlers provides HTTP API handlers for resolvarr.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/resolvarr/resolvarr/internal/models"
	"github.com/resolvarr/resolvarr/internal/repository"
	"github.com/resolvarr/resolvarr/internal/resolver"
)

// StreamHandler handles stream resolution API endpoints.
type StreamHandler struct {
	resolver    *resolver.Resolver
	resolutions repository.ResolutionRepository
	profiles    repository.CapabilityProfileRepository
	logger      *slog.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(r *resolver.Resolver) *StreamHandler {
	return &StreamHandler{
		resolver: r,
		logger:   slog.Default(),
	}
}

// WithResolutionRepository enables resolution history recording.
func (h *StreamHandler) WithResolutionRepository(repo repository.ResolutionRepository) *StreamHandler {
	h.resolutions = repo
	return h
}

// WithProfileRepository enables per-request capability profile overrides.
func (h *StreamHandler) WithProfileRepository(repo repository.CapabilityProfileRepository) *StreamHandler {
	h.profiles = repo
	return h
}

// WithLogger sets the logger.
func (h *StreamHandler) WithLogger(logger *slog.Logger) *StreamHandler {
	h.logger = logger
	return h
}

// Register registers the stream routes with the API.
func (h *StreamHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "resolveStream",
		Method:      "POST",
		Path:        "/api/v1/streams/resolve",
		Summary:     "Resolve a stream",
		Description: "Resolves the playback URL for a torrent file, falling back to HLS transcoding when the client cannot play it directly",
		Tags:        []string{"Streams"},
	}, h.Resolve)

	huma.Register(api, huma.Operation{
		OperationID: "checkCompatibility",
		Method:      "GET",
		Path:        "/api/v1/compatibility",
		Summary:     "Check media compatibility",
		Description: "Probes a media URL on the upstream server and reports whether the configured client can play it directly",
		Tags:        []string{"Streams"},
	}, h.CheckCompatibility)

	huma.Register(api, huma.Operation{
		OperationID: "generateHLSURL",
		Method:      "GET",
		Path:        "/api/v1/streams/hls-url",
		Summary:     "Generate an HLS transcoding URL",
		Description: "Builds a transcoding playlist URL for a media URL without probing it",
		Tags:        []string{"Streams"},
	}, h.GenerateHLSURL)

	huma.Register(api, huma.Operation{
		OperationID: "getStreamStats",
		Method:      "GET",
		Path:        "/api/v1/streams/{infoHash}/{fileIdx}/stats",
		Summary:     "Get stream download statistics",
		Description: "Fetches live download statistics for a torrent file from the upstream server",
		Tags:        []string{"Streams"},
	}, h.GetStats)
}

// ResolveStreamInput is the input for resolving a stream.
type ResolveStreamInput struct {
	Body struct {
		InfoHash string `json:"info_hash" minLength:"1" doc:"Torrent info hash"`
		FileIdx  *int   `json:"file_idx,omitempty" doc:"File index inside the torrent; omit for the server's default selection"`
		Profile  string `json:"profile,omitempty" doc:"Capability profile name overriding the configured platform profile"`
	}
}

// ResolveStreamOutput is the output for resolving a stream.
type ResolveStreamOutput struct {
	Body resolver.StreamResult
}

// Resolve resolves the playback URL for a torrent file.
func (h *StreamHandler) Resolve(ctx context.Context, input *ResolveStreamInput) (*ResolveStreamOutput, error) {
	fileIdx := resolver.DefaultFileIndex
	if input.Body.FileIdx != nil {
		fileIdx = *input.Body.FileIdx
	}

	res := h.resolver
	if input.Body.Profile != "" {
		override, err := h.profileResolver(ctx, input.Body.Profile)
		if err != nil {
			return nil, err
		}
		res = override
	}

	start := time.Now()
	result := res.GetStream(ctx, input.Body.InfoHash, fileIdx)
	elapsed := time.Since(start)

	h.record(ctx, input.Body.InfoHash, fileIdx, result, elapsed)

	return &ResolveStreamOutput{Body: result}, nil
}

// profileResolver returns a resolver scoped to the named capability profile.
func (h *StreamHandler) profileResolver(ctx context.Context, name string) (*resolver.Resolver, error) {
	if h.profiles == nil {
		return nil, huma.Error400BadRequest("capability profiles are not enabled")
	}

	profile, err := h.profiles.GetByName(ctx, name)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load capability profile", err)
	}
	if profile == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("capability profile %q not found", name))
	}

	scoped := h.resolver.Clone()
	if err := scoped.SetCapabilities(profile.Capabilities()); err != nil {
		return nil, huma.Error422UnprocessableEntity("capability profile is invalid", err)
	}
	return scoped, nil
}

// record persists the resolution outcome. Failures are logged, never
// surfaced; history must not break playback.
func (h *StreamHandler) record(ctx context.Context, infoHash string, fileIdx int, result resolver.StreamResult, elapsed time.Duration) {
	if h.resolutions == nil {
		return
	}

	row := &models.Resolution{
		InfoHash:         infoHash,
		FileIdx:          fileIdx,
		StreamURL:        result.URL,
		NeedsTranscoding: result.NeedsTranscoding,
		Reason:           result.Reason,
		ServerType:       string(result.ServerType),
		Platform:         string(h.resolver.Platform()),
	}
	if result.ServerType == resolver.ServerTypeRemote {
		row.ProbeDurationMs = elapsed.Milliseconds()
	}

	if err := h.resolutions.Create(ctx, row); err != nil {
		h.logger.WarnContext(ctx, "recording resolution failed",
			slog.String("info_hash", infoHash),
			slog.String("error", err.Error()),
		)
	}
}

// CheckCompatibilityInput is the input for a compatibility check.
type CheckCompatibilityInput struct {
	MediaURL string `query:"media_url" required:"true" doc:"Media URL to probe on the upstream server"`
	Profile  string `query:"profile" doc:"Capability profile name overriding the configured platform profile"`
}

// CheckCompatibilityOutput is the output for a compatibility check.
type CheckCompatibilityOutput struct {
	Body resolver.CompatibilityResult
}

// CheckCompatibility probes a media URL and reports direct-play compatibility.
func (h *StreamHandler) CheckCompatibility(ctx context.Context, input *CheckCompatibilityInput) (*CheckCompatibilityOutput, error) {
	res := h.resolver
	if input.Profile != "" {
		override, err := h.profileResolver(ctx, input.Profile)
		if err != nil {
			return nil, err
		}
		res = override
	}

	return &CheckCompatibilityOutput{
		Body: res.CheckCompatibility(ctx, input.MediaURL),
	}, nil
}

// GenerateHLSURLInput is the input for generating an HLS URL.
type GenerateHLSURLInput struct {
	MediaURL string `query:"media_url" required:"true" doc:"Media URL to transcode"`
}

// GenerateHLSURLOutput is the output for generating an HLS URL.
type GenerateHLSURLOutput struct {
	Body struct {
		URL string `json:"url"`
	}
}

// GenerateHLSURL builds a transcoding playlist URL.
func (h *StreamHandler) GenerateHLSURL(ctx context.Context, input *GenerateHLSURLInput) (*GenerateHLSURLOutput, error) {
	out := &GenerateHLSURLOutput{}
	out.Body.URL = h.resolver.GenerateHLSURL(input.MediaURL)
	return out, nil
}

// GetStreamStatsInput is the input for fetching stream statistics.
type GetStreamStatsInput struct {
	InfoHash string `path:"infoHash" doc:"Torrent info hash"`
	FileIdx  int    `path:"fileIdx" doc:"File index inside the torrent"`
}

// GetStreamStatsOutput is the output for fetching stream statistics.
type GetStreamStatsOutput struct {
	Body map[string]any
}

// GetStats fetches download statistics from the upstream server.
func (h *StreamHandler) GetStats(ctx context.Context, input *GetStreamStatsInput) (*GetStreamStatsOutput, error) {
	stats := h.resolver.GetStats(ctx, input.InfoHash, input.FileIdx)
	if stats == nil {
		return nil, huma.Error404NotFound("stats unavailable")
	}
	return &GetStreamStatsOutput{Body: stats}, nil
}
