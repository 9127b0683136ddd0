package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/resolvarr/resolvarr/internal/models"
	"github.com/resolvarr/resolvarr/internal/repository"
)

// CapabilityProfileHandler handles capability profile API endpoints.
type CapabilityProfileHandler struct {
	profiles repository.CapabilityProfileRepository
}

// NewCapabilityProfileHandler creates a new capability profile handler.
func NewCapabilityProfileHandler(profiles repository.CapabilityProfileRepository) *CapabilityProfileHandler {
	return &CapabilityProfileHandler{profiles: profiles}
}

// Register registers the capability profile routes with the API.
func (h *CapabilityProfileHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listCapabilityProfiles",
		Method:      "GET",
		Path:        "/api/v1/capability-profiles",
		Summary:     "List capability profiles",
		Description: "Returns all capability profiles, optionally filtered by platform",
		Tags:        []string{"Capability Profiles"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getCapabilityProfile",
		Method:      "GET",
		Path:        "/api/v1/capability-profiles/{id}",
		Summary:     "Get capability profile",
		Description: "Returns a capability profile by ID",
		Tags:        []string{"Capability Profiles"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "createCapabilityProfile",
		Method:      "POST",
		Path:        "/api/v1/capability-profiles",
		Summary:     "Create capability profile",
		Description: "Creates a new capability profile",
		Tags:        []string{"Capability Profiles"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "updateCapabilityProfile",
		Method:      "PUT",
		Path:        "/api/v1/capability-profiles/{id}",
		Summary:     "Update capability profile",
		Description: "Updates an existing capability profile",
		Tags:        []string{"Capability Profiles"},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID: "deleteCapabilityProfile",
		Method:      "DELETE",
		Path:        "/api/v1/capability-profiles/{id}",
		Summary:     "Delete capability profile",
		Description: "Deletes a capability profile; system profiles cannot be deleted",
		Tags:        []string{"Capability Profiles"},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "setDefaultCapabilityProfile",
		Method:      "POST",
		Path:        "/api/v1/capability-profiles/{id}/set-default",
		Summary:     "Set default capability profile",
		Description: "Marks a capability profile as its platform's default",
		Tags:        []string{"Capability Profiles"},
	}, h.SetDefault)
}

// CapabilityProfileResponse represents a capability profile in API responses.
type CapabilityProfileResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Platform         string   `json:"platform"`
	VideoCodecs      []string `json:"video_codecs"`
	AudioCodecs      []string `json:"audio_codecs"`
	Formats          []string `json:"formats"`
	MaxAudioChannels int      `json:"max_audio_channels"`
	IsDefault        bool     `json:"is_default"`
	IsSystem         bool     `json:"is_system"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

// CapabilityProfileFromModel converts a model to a response.
func CapabilityProfileFromModel(p *models.CapabilityProfile) CapabilityProfileResponse {
	return CapabilityProfileResponse{
		ID:               p.ID.String(),
		Name:             p.Name,
		Description:      p.Description,
		Platform:         p.Platform,
		VideoCodecs:      p.VideoCodecs,
		AudioCodecs:      p.AudioCodecs,
		Formats:          p.Formats,
		MaxAudioChannels: p.MaxAudioChannels,
		IsDefault:        p.IsDefault,
		IsSystem:         p.IsSystem,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
}

// CapabilityProfileBody is the writable subset of a capability profile.
type CapabilityProfileBody struct {
	Name             string   `json:"name" minLength:"1" maxLength:"100"`
	Description      string   `json:"description,omitempty" maxLength:"500"`
	Platform         string   `json:"platform" enum:"ios,android,web"`
	VideoCodecs      []string `json:"video_codecs"`
	AudioCodecs      []string `json:"audio_codecs"`
	Formats          []string `json:"formats"`
	MaxAudioChannels int      `json:"max_audio_channels" minimum:"1"`
}

func (b CapabilityProfileBody) apply(p *models.CapabilityProfile) {
	p.Name = b.Name
	p.Description = b.Description
	p.Platform = b.Platform
	p.VideoCodecs = b.VideoCodecs
	p.AudioCodecs = b.AudioCodecs
	p.Formats = b.Formats
	p.MaxAudioChannels = b.MaxAudioChannels
}

// ListCapabilityProfilesInput is the input for listing capability profiles.
type ListCapabilityProfilesInput struct {
	Platform string `query:"platform" enum:",ios,android,web" doc:"Filter by platform"`
}

// ListCapabilityProfilesOutput is the output for listing capability profiles.
type ListCapabilityProfilesOutput struct {
	Body struct {
		Profiles []CapabilityProfileResponse `json:"profiles"`
	}
}

// List returns all capability profiles.
func (h *CapabilityProfileHandler) List(ctx context.Context, input *ListCapabilityProfilesInput) (*ListCapabilityProfilesOutput, error) {
	var (
		profiles []*models.CapabilityProfile
		err      error
	)
	if input.Platform != "" {
		profiles, err = h.profiles.GetByPlatform(ctx, input.Platform)
	} else {
		profiles, err = h.profiles.GetAll(ctx)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list capability profiles", err)
	}

	resp := &ListCapabilityProfilesOutput{}
	resp.Body.Profiles = make([]CapabilityProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp.Body.Profiles = append(resp.Body.Profiles, CapabilityProfileFromModel(p))
	}
	return resp, nil
}

// GetCapabilityProfileInput is the input for getting a capability profile.
type GetCapabilityProfileInput struct {
	ID string `path:"id" doc:"Capability profile ID (ULID)"`
}

// GetCapabilityProfileOutput is the output for getting a capability profile.
type GetCapabilityProfileOutput struct {
	Body CapabilityProfileResponse
}

// GetByID returns a capability profile by ID.
func (h *CapabilityProfileHandler) GetByID(ctx context.Context, input *GetCapabilityProfileInput) (*GetCapabilityProfileOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	profile, err := h.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get capability profile", err)
	}
	if profile == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("capability profile %s not found", input.ID))
	}

	return &GetCapabilityProfileOutput{Body: CapabilityProfileFromModel(profile)}, nil
}

// CreateCapabilityProfileInput is the input for creating a capability profile.
type CreateCapabilityProfileInput struct {
	Body CapabilityProfileBody
}

// CreateCapabilityProfileOutput is the output for creating a capability profile.
type CreateCapabilityProfileOutput struct {
	Body CapabilityProfileResponse
}

// Create creates a new capability profile.
func (h *CapabilityProfileHandler) Create(ctx context.Context, input *CreateCapabilityProfileInput) (*CreateCapabilityProfileOutput, error) {
	existing, err := h.profiles.GetByName(ctx, input.Body.Name)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to check profile name", err)
	}
	if existing != nil {
		return nil, huma.Error409Conflict(fmt.Sprintf("capability profile %q already exists", input.Body.Name))
	}

	profile := &models.CapabilityProfile{}
	input.Body.apply(profile)

	if err := h.profiles.Create(ctx, profile); err != nil {
		var validationErr models.ErrValidation
		if errors.As(err, &validationErr) {
			return nil, huma.Error422UnprocessableEntity(validationErr.Error())
		}
		return nil, huma.Error500InternalServerError("failed to create capability profile", err)
	}

	return &CreateCapabilityProfileOutput{Body: CapabilityProfileFromModel(profile)}, nil
}

// UpdateCapabilityProfileInput is the input for updating a capability profile.
type UpdateCapabilityProfileInput struct {
	ID   string `path:"id" doc:"Capability profile ID (ULID)"`
	Body CapabilityProfileBody
}

// UpdateCapabilityProfileOutput is the output for updating a capability profile.
type UpdateCapabilityProfileOutput struct {
	Body CapabilityProfileResponse
}

// Update updates an existing capability profile.
func (h *CapabilityProfileHandler) Update(ctx context.Context, input *UpdateCapabilityProfileInput) (*UpdateCapabilityProfileOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	profile, err := h.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get capability profile", err)
	}
	if profile == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("capability profile %s not found", input.ID))
	}

	input.Body.apply(profile)

	if err := h.profiles.Update(ctx, profile); err != nil {
		return nil, huma.Error500InternalServerError("failed to update capability profile", err)
	}

	return &UpdateCapabilityProfileOutput{Body: CapabilityProfileFromModel(profile)}, nil
}

// DeleteCapabilityProfileInput is the input for deleting a capability profile.
type DeleteCapabilityProfileInput struct {
	ID string `path:"id" doc:"Capability profile ID (ULID)"`
}

// DeleteCapabilityProfileOutput is the output for deleting a capability profile.
type DeleteCapabilityProfileOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// Delete deletes a capability profile.
func (h *CapabilityProfileHandler) Delete(ctx context.Context, input *DeleteCapabilityProfileInput) (*DeleteCapabilityProfileOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	if err := h.profiles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrSystemProfile) {
			return nil, huma.Error403Forbidden("system profiles cannot be deleted")
		}
		return nil, huma.Error500InternalServerError("failed to delete capability profile", err)
	}

	out := &DeleteCapabilityProfileOutput{}
	out.Body.Deleted = true
	return out, nil
}

// SetDefaultCapabilityProfileInput is the input for setting the default profile.
type SetDefaultCapabilityProfileInput struct {
	ID string `path:"id" doc:"Capability profile ID (ULID)"`
}

// SetDefaultCapabilityProfileOutput is the output for setting the default profile.
type SetDefaultCapabilityProfileOutput struct {
	Body CapabilityProfileResponse
}

// SetDefault marks a profile as its platform's default.
func (h *CapabilityProfileHandler) SetDefault(ctx context.Context, input *SetDefaultCapabilityProfileInput) (*SetDefaultCapabilityProfileOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	if err := h.profiles.SetDefault(ctx, id); err != nil {
		return nil, huma.Error500InternalServerError("failed to set default capability profile", err)
	}

	profile, err := h.profiles.GetByID(ctx, id)
	if err != nil || profile == nil {
		return nil, huma.Error500InternalServerError("failed to reload capability profile", err)
	}

	return &SetDefaultCapabilityProfileOutput{Body: CapabilityProfileFromModel(profile)}, nil
}
