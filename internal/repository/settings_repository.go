package repository

import (
	"context"
	"database/sql"
	"fmt"

	"sneuz/internal/model"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// CreateDefaults seeds the settings row at registration time.
func (r *SettingsRepository) CreateDefaults(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO user_settings (user_id, target_bedtime, target_wake_time, timezone)
		 VALUES (?, ?, ?, ?)`,
		userID,
		model.DefaultTargetBedtime,
		model.DefaultTargetWakeTime,
		model.DefaultTimezone,
	)
	if err != nil {
		return fmt.Errorf("create default settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, target_bedtime, target_wake_time, timezone
		 FROM user_settings
		 WHERE user_id = ?`,
		userID,
	)

	var settings model.UserSettings
	if err := row.Scan(&settings.UserID, &settings.TargetBedtime, &settings.TargetWakeTime, &settings.Timezone); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Update(ctx context.Context, settings *model.UserSettings) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE user_settings
		 SET target_bedtime = ?,
		     target_wake_time = ?,
		     timezone = ?
		 WHERE user_id = ?`,
		settings.TargetBedtime,
		settings.TargetWakeTime,
		settings.Timezone,
		settings.UserID,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
