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

// IndexerRepository handles indexer persistence, including owned job and
// config rows.
type IndexerRepository struct {
	db *PostgresDB
}

// NewIndexerRepository creates a new indexer repository
func NewIndexerRepository(db *PostgresDB) *IndexerRepository {
	return &IndexerRepository{db: db}
}

// Upsert inserts an indexer or updates name and status in place
func (r *IndexerRepository) Upsert(ctx context.Context, indexer *models.Indexer) error {
	if indexer.ID == "" {
		indexer.ID = uuid.New().String()
	}

	now := time.Now()
	if indexer.CreatedAt.IsZero() {
		indexer.CreatedAt = now
	}
	indexer.UpdatedAt = now

	query := `
		INSERT INTO indexers (id, user_id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		indexer.ID,
		indexer.UserID,
		indexer.Name,
		indexer.Status,
		indexer.CreatedAt,
		indexer.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert indexer: %w", err)
	}

	return nil
}

// GetByID retrieves an indexer with its jobs and configs eager-loaded
func (r *IndexerRepository) GetByID(ctx context.Context, id string) (*models.Indexer, error) {
	query := `
		SELECT id, user_id, name, status, created_at, updated_at
		FROM indexers
		WHERE id = $1
	`

	var indexer models.Indexer
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&indexer.ID,
		&indexer.UserID,
		&indexer.Name,
		&indexer.Status,
		&indexer.CreatedAt,
		&indexer.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "INDEXER_NOT_FOUND",
				Message: fmt.Sprintf("indexer not found: %s", id),
			}
		}
		return nil, fmt.Errorf("failed to get indexer: %w", err)
	}

	jobs, err := r.listJobs(ctx, id)
	if err != nil {
		return nil, err
	}
	indexer.Jobs = jobs

	configs, err := r.listConfigs(ctx, id)
	if err != nil {
		return nil, err
	}
	indexer.Configs = configs

	return &indexer, nil
}

// ListByUser retrieves indexers for a user, newest first, without children
func (r *IndexerRepository) ListByUser(ctx context.Context, userID string) ([]*models.Indexer, error) {
	query := `
		SELECT id, user_id, name, status, created_at, updated_at
		FROM indexers
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexers: %w", err)
	}
	defer rows.Close()

	var indexers []*models.Indexer
	for rows.Next() {
		var indexer models.Indexer
		err := rows.Scan(
			&indexer.ID,
			&indexer.UserID,
			&indexer.Name,
			&indexer.Status,
			&indexer.CreatedAt,
			&indexer.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indexer: %w", err)
		}
		indexers = append(indexers, &indexer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexers: %w", err)
	}

	return indexers, nil
}

// Delete removes an indexer and its owned rows. Children are removed by
// iterating explicitly since the application owns the cascade.
func (r *IndexerRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Pool().Exec(ctx, `DELETE FROM indexer_jobs WHERE indexer_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete indexer jobs: %w", err)
	}

	if _, err := r.db.Pool().Exec(ctx, `DELETE FROM indexer_configs WHERE indexer_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete indexer configs: %w", err)
	}

	result, err := r.db.Pool().Exec(ctx, `DELETE FROM indexers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete indexer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "INDEXER_NOT_FOUND",
			Message: fmt.Sprintf("indexer not found: %s", id),
		}
	}

	return nil
}

// CreateJob inserts a job row for an indexer
func (r *IndexerRepository) CreateJob(ctx context.Context, job *models.IndexerJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO indexer_jobs (id, indexer_id, status, started_at, completed_at, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		job.ID,
		job.IndexerID,
		job.Status,
		job.StartedAt,
		job.CompletedAt,
		job.Error,
		job.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create indexer job: %w", err)
	}

	return nil
}

// CreateConfig inserts a config row for an indexer
func (r *IndexerRepository) CreateConfig(ctx context.Context, cfg *models.IndexerConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO indexer_configs (id, indexer_id, key, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		cfg.ID,
		cfg.IndexerID,
		cfg.Key,
		cfg.Value,
		cfg.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create indexer config: %w", err)
	}

	return nil
}

// listJobs loads all jobs for an indexer
func (r *IndexerRepository) listJobs(ctx context.Context, indexerID string) ([]*models.IndexerJob, error) {
	query := `
		SELECT id, indexer_id, status, started_at, completed_at, error, created_at
		FROM indexer_jobs
		WHERE indexer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, indexerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexer jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.IndexerJob
	for rows.Next() {
		var job models.IndexerJob
		err := rows.Scan(
			&job.ID,
			&job.IndexerID,
			&job.Status,
			&job.StartedAt,
			&job.CompletedAt,
			&job.Error,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indexer job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexer jobs: %w", err)
	}

	return jobs, nil
}

// listConfigs loads all configs for an indexer
func (r *IndexerRepository) listConfigs(ctx context.Context, indexerID string) ([]*models.IndexerConfig, error) {
	query := `
		SELECT id, indexer_id, key, value, created_at
		FROM indexer_configs
		WHERE indexer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, indexerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexer configs: %w", err)
	}
	defer rows.Close()

	var configs []*models.IndexerConfig
	for rows.Next() {
		var cfg models.IndexerConfig
		err := rows.Scan(
			&cfg.ID,
			&cfg.IndexerID,
			&cfg.Key,
			&cfg.Value,
			&cfg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indexer config: %w", err)
		}
		configs = append(configs, &cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexer configs: %w", err)
	}

	return configs, nil
}
