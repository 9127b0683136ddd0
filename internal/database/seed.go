package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resolvarr/resolvarr/internal/capability"
	"github.com/resolvarr/resolvarr/internal/models"
)

// SeedDefaultProfiles inserts the built-in platform capability profiles as
// system rows. Existing rows are left alone so operator edits survive
// restarts.
func (db *DB) SeedDefaultProfiles(ctx context.Context) error {
	platforms := []capability.Platform{
		capability.PlatformIOS,
		capability.PlatformAndroid,
		capability.PlatformWeb,
	}

	for _, platform := range platforms {
		name := fmt.Sprintf("%s-defaults", platform)

		var count int64
		if err := db.DB.WithContext(ctx).
			Model(&models.CapabilityProfile{}).
			Where("name = ?", name).
			Count(&count).Error; err != nil {
			return fmt.Errorf("checking profile %q: %w", name, err)
		}
		if count > 0 {
			continue
		}

		profile := models.NewCapabilityProfile(name, platform, capability.ProfileFor(platform))
		profile.Description = fmt.Sprintf("Built-in %s playback capabilities", platform)
		profile.IsDefault = true
		profile.IsSystem = true

		if err := db.DB.WithContext(ctx).Create(profile).Error; err != nil {
			return fmt.Errorf("seeding profile %q: %w", name, err)
		}
		db.logger.Info("seeded capability profile",
			slog.String("name", name),
			slog.String("platform", string(platform)),
		)
	}

	return nil
}
