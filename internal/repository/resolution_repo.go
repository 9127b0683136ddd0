package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/resolvarr/resolvarr/internal/models"
)

// DefaultRecentLimit bounds GetRecent when the caller passes no limit.
const DefaultRecentLimit = 50

// resolutionRepository implements ResolutionRepository using GORM.
type resolutionRepository struct {
	db *gorm.DB
}

// NewResolutionRepository creates a new ResolutionRepository.
func NewResolutionRepository(db *gorm.DB) ResolutionRepository {
	return &resolutionRepository{db: db}
}

// Create records a resolution.
func (r *resolutionRepository) Create(ctx context.Context, resolution *models.Resolution) error {
	if err := resolution.Validate(); err != nil {
		return fmt.Errorf("validating resolution: %w", err)
	}
	return r.db.WithContext(ctx).Create(resolution).Error
}

// GetByID retrieves a resolution by ID.
func (r *resolutionRepository) GetByID(ctx context.Context, id models.ULID) (*models.Resolution, error) {
	var resolution models.Resolution
	if err := r.db.WithContext(ctx).First(&resolution, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resolution, nil
}

// GetRecent retrieves the most recent resolutions, newest first.
func (r *resolutionRepository) GetRecent(ctx context.Context, limit int) ([]*models.Resolution, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	var resolutions []*models.Resolution
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&resolutions).Error; err != nil {
		return nil, err
	}
	return resolutions, nil
}

// GetByInfoHash retrieves resolutions for a torrent, newest first.
func (r *resolutionRepository) GetByInfoHash(ctx context.Context, infoHash string) ([]*models.Resolution, error) {
	var resolutions []*models.Resolution
	if err := r.db.WithContext(ctx).
		Where("info_hash = ?", infoHash).
		Order("created_at DESC").
		Find(&resolutions).Error; err != nil {
		return nil, err
	}
	return resolutions, nil
}

// DeleteOlderThan removes resolutions created before the cutoff.
func (r *resolutionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.Resolution{})
	return result.RowsAffected, result.Error
}

// Count returns the total number of recorded resolutions.
func (r *resolutionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Resolution{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure resolutionRepository implements ResolutionRepository.
var _ ResolutionRepository = (*resolutionRepository)(nil)
