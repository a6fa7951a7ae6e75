package models

import (
	"time"

	"github.com/project-analyzer/internal/types"
)

// User represents a user in the system
type User struct {
	ID        string         `json:"id" db:"id"`
	Email     string         `json:"email" db:"email"`
	Tier      types.UserTier `json:"tier" db:"tier"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at"`
}

// UserSettings represents per-user preferences
type UserSettings struct {
	ID                   string    `json:"id" db:"id"`
	UserID               string    `json:"userId" db:"user_id"`
	NotificationsEnabled bool      `json:"notificationsEnabled" db:"notifications_enabled"`
	EmailReports         bool      `json:"emailReports" db:"email_reports"`
	DefaultProjectName   *string   `json:"defaultProjectName,omitempty" db:"default_project_name"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}
