package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/resolvarr/resolvarr/internal/version"
)

// VersionHandler handles the version endpoint.
type VersionHandler struct{}

// NewVersionHandler creates a new version handler.
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// VersionInput is the input for the version endpoint.
type VersionInput struct{}

// VersionOutput is the output for the version endpoint.
type VersionOutput struct {
	Body version.Info
}

// Register registers the version route with the API.
func (h *VersionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getVersion",
		Method:      "GET",
		Path:        "/api/v1/version",
		Summary:     "Get version",
		Description: "Returns build version information",
		Tags:        []string{"System"},
	}, h.GetVersion)
}

// GetVersion returns build version information.
func (h *VersionHandler) GetVersion(ctx context.Context, input *VersionInput) (*VersionOutput, error) {
	return &VersionOutput{Body: version.GetInfo()}, nil
}
