package service

import (
	"context"

	"github.com/rs/zerolog"

	"mensa/internal/schedule"
)

// SettingsService reads and writes a tenant's ordering time config.
// Its update path is the only producer of the config the window and
// cutoff checks consume.
type SettingsService struct {
	repo   Repository
	logger zerolog.Logger
}

func NewSettingsService(repo Repository, logger *zerolog.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		logger: logger.With().Str("component", "settings").Logger(),
	}
}

// Get returns the tenant's current time config.
func (s *SettingsService) Get(ctx context.Context, universityID int64) (schedule.TimeConfig, error) {
	return s.repo.GetTimeConfig(ctx, universityID)
}

// Update validates and persists new time settings.
func (s *SettingsService) Update(ctx context.Context, universityID int64, cfg schedule.TimeConfig) error {
	if err := cfg.Validate(); err != nil {
		return validation(err.Error())
	}
	if err := s.repo.UpdateTimeConfig(ctx, universityID, cfg); err != nil {
		return err
	}
	s.logger.Info().
		Int64("university_id", universityID).
		Str("timezone", cfg.Timezone).
		Str("cutoff", cfg.CutoffTime).
		Int("max_advance_days", cfg.MaxAdvanceDays).
		Msg("time settings updated")
	return nil
}
