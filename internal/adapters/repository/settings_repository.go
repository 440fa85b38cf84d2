package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/ports"
)

const (
	settingNotificationsEnabled = "notifications_enabled"
	settingNotificationOffset   = "notification_offset_minutes"
)

type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// SettingsRepositoryImpl keeps settings as key/value rows.
type SettingsRepositoryImpl struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) ports.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

// Load returns the stored settings. The flag is false when nothing was ever saved.
func (r *SettingsRepositoryImpl) Load(ctx context.Context) (entities.Settings, bool, error) {
	var rows []settingRow
	if err := r.db.DB.SelectContext(ctx, &rows, `SELECT key, value FROM settings`); err != nil {
		return entities.Settings{}, false, fmt.Errorf("load settings: %w", err)
	}
	if len(rows) == 0 {
		return entities.DefaultSettings(), false, nil
	}

	settings := entities.DefaultSettings()
	for _, row := range rows {
		switch row.Key {
		case settingNotificationsEnabled:
			enabled, err := strconv.ParseBool(row.Value)
			if err != nil {
				return entities.Settings{}, false, fmt.Errorf("load settings: %s: %w", row.Key, err)
			}
			settings.NotificationsEnabled = enabled
		case settingNotificationOffset:
			offset, err := strconv.Atoi(row.Value)
			if err != nil {
				return entities.Settings{}, false, fmt.Errorf("load settings: %s: %w", row.Key, err)
			}
			settings.NotificationOffsetMinutes = offset
		}
	}
	return settings, true, nil
}

func (r *SettingsRepositoryImpl) Save(ctx context.Context, settings entities.Settings) error {
	rows := []settingRow{
		{Key: settingNotificationsEnabled, Value: strconv.FormatBool(settings.NotificationsEnabled)},
		{Key: settingNotificationOffset, Value: strconv.Itoa(settings.NotificationOffsetMinutes)},
	}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO settings (key, value) VALUES (:key, :value)
				ON CONFLICT (key) DO UPDATE SET value = excluded.value`, row)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
