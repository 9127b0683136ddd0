package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/resolvarr/resolvarr/internal/models"
	"github.com/resolvarr/resolvarr/internal/repository"
)

// ResolutionHandler handles resolution history API endpoints.
type ResolutionHandler struct {
	resolutions repository.ResolutionRepository
}

// NewResolutionHandler creates a new resolution handler.
func NewResolutionHandler(resolutions repository.ResolutionRepository) *ResolutionHandler {
	return &ResolutionHandler{resolutions: resolutions}
}

// Register registers the resolution routes with the API.
func (h *ResolutionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listResolutions",
		Method:      "GET",
		Path:        "/api/v1/resolutions",
		Summary:     "List recent resolutions",
		Description: "Returns recent stream resolutions, newest first",
		Tags:        []string{"Resolutions"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getResolutionsByInfoHash",
		Method:      "GET",
		Path:        "/api/v1/resolutions/torrent/{infoHash}",
		Summary:     "List resolutions for a torrent",
		Description: "Returns the resolution history for a single torrent",
		Tags:        []string{"Resolutions"},
	}, h.GetByInfoHash)
}

// ResolutionResponse represents a resolution in API responses.
type ResolutionResponse struct {
	ID               string `json:"id"`
	InfoHash         string `json:"info_hash"`
	FileIdx          int    `json:"file_idx"`
	StreamURL        string `json:"stream_url"`
	NeedsTranscoding bool   `json:"needs_transcoding"`
	Reason           string `json:"reason,omitempty"`
	ServerType       string `json:"server_type"`
	Platform         string `json:"platform"`
	ProbeDurationMs  int64  `json:"probe_duration_ms"`
	CreatedAt        string `json:"created_at"`
}

// ResolutionFromModel converts a model to a response.
func ResolutionFromModel(r *models.Resolution) ResolutionResponse {
	return ResolutionResponse{
		ID:               r.ID.String(),
		InfoHash:         r.InfoHash,
		FileIdx:          r.FileIdx,
		StreamURL:        r.StreamURL,
		NeedsTranscoding: r.NeedsTranscoding,
		Reason:           r.Reason,
		ServerType:       r.ServerType,
		Platform:         r.Platform,
		ProbeDurationMs:  r.ProbeDurationMs,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}

// ListResolutionsInput is the input for listing resolutions.
type ListResolutionsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"500" doc:"Maximum rows to return; 0 uses the server default"`
}

// ListResolutionsOutput is the output for listing resolutions.
type ListResolutionsOutput struct {
	Body struct {
		Resolutions []ResolutionResponse `json:"resolutions"`
	}
}

// List returns recent resolutions.
func (h *ResolutionHandler) List(ctx context.Context, input *ListResolutionsInput) (*ListResolutionsOutput, error) {
	resolutions, err := h.resolutions.GetRecent(ctx, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list resolutions", err)
	}

	resp := &ListResolutionsOutput{}
	resp.Body.Resolutions = make([]ResolutionResponse, 0, len(resolutions))
	for _, r := range resolutions {
		resp.Body.Resolutions = append(resp.Body.Resolutions, ResolutionFromModel(r))
	}
	return resp, nil
}

// GetResolutionsByInfoHashInput is the input for listing a torrent's resolutions.
type GetResolutionsByInfoHashInput struct {
	InfoHash string `path:"infoHash" doc:"Torrent info hash"`
}

// GetResolutionsByInfoHashOutput is the output for listing a torrent's resolutions.
type GetResolutionsByInfoHashOutput struct {
	Body struct {
		Resolutions []ResolutionResponse `json:"resolutions"`
	}
}

// GetByInfoHash returns the resolution history for a torrent.
func (h *ResolutionHandler) GetByInfoHash(ctx context.Context, input *GetResolutionsByInfoHashInput) (*GetResolutionsByInfoHashOutput, error) {
	resolutions, err := h.resolutions.GetByInfoHash(ctx, input.InfoHash)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list resolutions", err)
	}

	resp := &GetResolutionsByInfoHashOutput{}
	resp.Body.Resolutions = make([]ResolutionResponse, 0, len(resolutions))
	for _, r := range resolutions {
		resp.Body.Resolutions = append(resp.Body.Resolutions, ResolutionFromModel(r))
	}
	return resp, nil
}
