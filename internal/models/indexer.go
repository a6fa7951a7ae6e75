package models

import (
	"time"

	"github.com/project-analyzer/internal/types"
)

// Indexer represents a user-owned indexer. Its jobs and configs are owned
// rows: they are created, migrated and deleted alongside their parent.
type Indexer struct {
	ID        string              `json:"id" db:"id"`
	UserID    string              `json:"userId" db:"user_id"`
	Name      string              `json:"name" db:"name"`
	Status    types.IndexerStatus `json:"status" db:"status"`
	CreatedAt time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time           `json:"updatedAt" db:"updated_at"`

	// Eager-loaded children, populated where the caller asks for them
	Jobs    []*IndexerJob    `json:"jobs,omitempty" db:"-"`
	Configs []*IndexerConfig `json:"configs,omitempty" db:"-"`
}

// IndexerJob represents one run of an indexer
type IndexerJob struct {
	ID          string     `json:"id" db:"id"`
	IndexerID   string     `json:"indexerId" db:"indexer_id"`
	Status      string     `json:"status" db:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	Error       *string    `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// IndexerConfig represents a key-value configuration entry for an indexer
type IndexerConfig struct {
	ID        string    `json:"id" db:"id"`
	IndexerID string    `json:"indexerId" db:"indexer_id"`
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
