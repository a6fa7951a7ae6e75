package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

// SettingsRepository handles user settings persistence
type SettingsRepository struct {
	db *PostgresDB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *PostgresDB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Upsert writes settings keyed by user_id via a native atomic upsert
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.New().String()
	}

	now := time.Now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now

	query := `
		INSERT INTO user_settings (id, user_id, notifications_enabled, email_reports, default_project_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET notifications_enabled = EXCLUDED.notifications_enabled,
		    email_reports = EXCLUDED.email_reports,
		    default_project_name = EXCLUDED.default_project_name,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		settings.ID,
		settings.UserID,
		settings.NotificationsEnabled,
		settings.EmailReports,
		settings.DefaultProjectName,
		settings.CreatedAt,
		settings.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}

	return nil
}

// GetByUser retrieves settings for a user
func (r *SettingsRepository) GetByUser(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `
		SELECT id, user_id, notifications_enabled, email_reports, default_project_name, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	var settings models.UserSettings
	err := r.db.Pool().QueryRow(ctx, query, userID).Scan(
		&settings.ID,
		&settings.UserID,
		&settings.NotificationsEnabled,
		&settings.EmailReports,
		&settings.DefaultProjectName,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "SETTINGS_NOT_FOUND",
				Message: fmt.Sprintf("settings not found for user: %s", userID),
			}
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}
