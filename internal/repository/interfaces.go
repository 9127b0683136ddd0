// Package repository defines data access interfaces for resolvarr entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"
	"time"

	"github.com/resolvarr/resolvarr/internal/models"
)

// CapabilityProfileRepository defines operations for capability profile persistence.
type CapabilityProfileRepository interface {
	// Create creates a new capability profile.
	Create(ctx context.Context, profile *models.CapabilityProfile) error
	// GetByID retrieves a capability profile by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.CapabilityProfile, error)
	// GetByName retrieves a capability profile by name.
	GetByName(ctx context.Context, name string) (*models.CapabilityProfile, error)
	// GetAll retrieves all capability profiles.
	GetAll(ctx context.Context) ([]*models.CapabilityProfile, error)
	// GetByPlatform retrieves all profiles for a platform.
	GetByPlatform(ctx context.Context, platform string) ([]*models.CapabilityProfile, error)
	// GetDefaultForPlatform retrieves the default profile for a platform.
	GetDefaultForPlatform(ctx context.Context, platform string) (*models.CapabilityProfile, error)
	// Update updates an existing capability profile.
	Update(ctx context.Context, profile *models.CapabilityProfile) error
	// Delete deletes a capability profile by ID. System profiles cannot be deleted.
	Delete(ctx context.Context, id models.ULID) error
	// SetDefault marks a profile as its platform's default (unsets the previous one).
	SetDefault(ctx context.Context, id models.ULID) error
	// Count returns the total number of capability profiles.
	Count(ctx context.Context) (int64, error)
}

// ResolutionRepository defines operations for resolution history persistence.
type ResolutionRepository interface {
	// Create records a resolution.
	Create(ctx context.Context, resolution *models.Resolution) error
	// GetByID retrieves a resolution by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Resolution, error)
	// GetRecent retrieves the most recent resolutions, newest first.
	GetRecent(ctx context.Context, limit int) ([]*models.Resolution, error)
	// GetByInfoHash retrieves resolutions for a torrent, newest first.
	GetByInfoHash(ctx context.Context, infoHash string) ([]*models.Resolution, error)
	// DeleteOlderThan removes resolutions created before the cutoff and
	// returns the number deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// Count returns the total number of recorded resolutions.
	Count(ctx context.Context) (int64, error)
}
