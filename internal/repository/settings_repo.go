package repository

import (
	"fmt"
	"time"

	"clickstart/internal/database"
	"clickstart/internal/models"
)

// SettingsRepository handles database operations for per-child settings
type SettingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetOrCreate returns the child's settings, inserting the defaults first if
// no record exists yet. The insert-if-absent is a single dialect-specific
// statement so concurrent first reads cannot create two rows.
func (r *SettingsRepository) GetOrCreate(childID string) (*models.Settings, error) {
	defaults := models.DefaultSettings(childID)

	query := r.db.Dialect.InsertSettingsIfAbsent()
	_, err := r.db.Exec(query,
		defaults.ChildID, defaults.AudioEnabled, defaults.TextSize,
		defaults.Difficulty, defaults.ScreenTimeLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}

	return r.get(childID)
}

// Update applies a partial update and returns the stored settings
func (r *SettingsRepository) Update(childID string, update models.SettingsUpdate) (*models.Settings, error) {
	settings, err := r.GetOrCreate(childID)
	if err != nil {
		return nil, err
	}

	if update.AudioEnabled != nil {
		settings.AudioEnabled = *update.AudioEnabled
	}
	if update.TextSize != nil {
		settings.TextSize = *update.TextSize
	}
	if update.Difficulty != nil {
		settings.Difficulty = *update.Difficulty
	}
	if update.ScreenTimeLimit != nil {
		settings.ScreenTimeLimit = *update.ScreenTimeLimit
	}
	settings.UpdatedAt = time.Now()

	query := `
		UPDATE settings
		SET audio_enabled = ?, text_size = ?, difficulty = ?, screen_time_limit = ?, updated_at = ?
		WHERE child_id = ?
	`
	_, err = r.db.Exec(query,
		settings.AudioEnabled, settings.TextSize, settings.Difficulty,
		settings.ScreenTimeLimit, settings.UpdatedAt, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	return settings, nil
}

func (r *SettingsRepository) get(childID string) (*models.Settings, error) {
	query := `
		SELECT child_id, audio_enabled, text_size, difficulty, screen_time_limit, updated_at
		FROM settings
		WHERE child_id = ?
	`

	settings := &models.Settings{}
	err := r.db.QueryRow(query, childID).Scan(
		&settings.ChildID,
		&settings.AudioEnabled,
		&settings.TextSize,
		&settings.Difficulty,
		&settings.ScreenTimeLimit,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return settings, nil
}
