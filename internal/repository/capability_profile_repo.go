package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/resolvarr/resolvarr/internal/models"
)

// ErrSystemProfile is returned when deleting a seeded profile.
var ErrSystemProfile = errors.New("system profiles cannot be deleted")

// capabilityProfileRepository implements CapabilityProfileRepository using GORM.
type capabilityProfileRepository struct {
	db *gorm.DB
}

// NewCapabilityProfileRepository creates a new CapabilityProfileRepository.
func NewCapabilityProfileRepository(db *gorm.DB) CapabilityProfileRepository {
	return &capabilityProfileRepository{db: db}
}

// Create creates a new capability profile.
func (r *capabilityProfileRepository) Create(ctx context.Context, profile *models.CapabilityProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validating capability profile: %w", err)
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

// GetByID retrieves a capability profile by ID.
func (r *capabilityProfileRepository) GetByID(ctx context.Context, id models.ULID) (*models.CapabilityProfile, error) {
	var profile models.CapabilityProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByName retrieves a capability profile by name.
func (r *capabilityProfileRepository) GetByName(ctx context.Context, name string) (*models.CapabilityProfile, error) {
	var profile models.CapabilityProfile
	if err := r.db.WithContext(ctx).First(&profile, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetAll retrieves all capability profiles.
func (r *capabilityProfileRepository) GetAll(ctx context.Context) ([]*models.CapabilityProfile, error) {
	var profiles []*models.CapabilityProfile
	if err := r.db.WithContext(ctx).Order("platform ASC, is_default DESC, name ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// GetByPlatform retrieves all profiles for a platform.
func (r *capabilityProfileRepository) GetByPlatform(ctx context.Context, platform string) ([]*models.CapabilityProfile, error) {
	var profiles []*models.CapabilityProfile
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Order("is_default DESC, name ASC").
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// GetDefaultForPlatform retrieves the default profile for a platform.
func (r *capabilityProfileRepository) GetDefaultForPlatform(ctx context.Context, platform string) (*models.CapabilityProfile, error) {
	var profile models.CapabilityProfile
	if err := r.db.WithContext(ctx).
		First(&profile, "platform = ? AND is_default = ?", platform, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Update updates an existing capability profile.
func (r *capabilityProfileRepository) Update(ctx context.Context, profile *models.CapabilityProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validating capability profile: %w", err)
	}
	return r.db.WithContext(ctx).Save(profile).Error
}

// Delete deletes a capability profile by ID. System profiles cannot be deleted.
func (r *capabilityProfileRepository) Delete(ctx context.Context, id models.ULID) error {
	var profile models.CapabilityProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if profile.IsSystem {
		return ErrSystemProfile
	}
	return r.db.WithContext(ctx).Delete(&models.CapabilityProfile{}, "id = ?", id).Error
}

// SetDefault marks a profile as its platform's default (unsets the previous one).
func (r *capabilityProfileRepository) SetDefault(ctx context.Context, id models.ULID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.CapabilityProfile
		if err := tx.First(&profile, "id = ?", id).Error; err != nil {
			return err
		}
		// Use UpdateColumn to skip hooks
		if err := tx.Model(&models.CapabilityProfile{}).
			Where("platform = ? AND is_default = ?", profile.Platform, true).
			UpdateColumn("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.CapabilityProfile{}).
			Where("id = ?", id).
			UpdateColumn("is_default", true).Error
	})
}

// Count returns the total number of capability profiles.
func (r *capabilityProfileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CapabilityProfile{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure capabilityProfileRepository implements CapabilityProfileRepository.
var _ CapabilityProfileRepository = (*capabilityProfileRepository)(nil)
