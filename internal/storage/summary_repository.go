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

// SummaryRepository handles analysis summary persistence
type SummaryRepository struct {
	db *PostgresDB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *PostgresDB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Upsert writes a summary keyed by (user_id, project_name). The database
// resolves the conflict atomically, so concurrent writers cannot race a
// read-then-branch.
func (r *SummaryRepository) Upsert(ctx context.Context, summary *models.AnalysisSummary) error {
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}

	now := time.Now()
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = now
	}
	summary.UpdatedAt = now

	query := `
		INSERT INTO analysis_summaries (id, user_id, project_name, tools_run, average_score, last_run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, project_name) DO UPDATE
		SET tools_run = EXCLUDED.tools_run,
		    average_score = EXCLUDED.average_score,
		    last_run_at = EXCLUDED.last_run_at,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		summary.ID,
		summary.UserID,
		summary.ProjectName,
		summary.ToolsRun,
		summary.AverageScore,
		summary.LastRunAt,
		summary.CreatedAt,
		summary.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}

	return nil
}

// GetByProject retrieves the summary for a (user, project) pair
func (r *SummaryRepository) GetByProject(ctx context.Context, userID, projectName string) (*models.AnalysisSummary, error) {
	query := `
		SELECT id, user_id, project_name, tools_run, average_score, last_run_at, created_at, updated_at
		FROM analysis_summaries
		WHERE user_id = $1 AND project_name = $2
	`

	var summary models.AnalysisSummary
	err := r.db.Pool().QueryRow(ctx, query, userID, projectName).Scan(
		&summary.ID,
		&summary.UserID,
		&summary.ProjectName,
		&summary.ToolsRun,
		&summary.AverageScore,
		&summary.LastRunAt,
		&summary.CreatedAt,
		&summary.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "SUMMARY_NOT_FOUND",
				Message: fmt.Sprintf("summary not found for %s/%s", userID, projectName),
			}
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	return &summary, nil
}

// ListByUser retrieves all summaries for a user, newest first
func (r *SummaryRepository) ListByUser(ctx context.Context, userID string) ([]*models.AnalysisSummary, error) {
	query := `
		SELECT id, user_id, project_name, tools_run, average_score, last_run_at, created_at, updated_at
		FROM analysis_summaries
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*models.AnalysisSummary
	for rows.Next() {
		var summary models.AnalysisSummary
		err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.ProjectName,
			&summary.ToolsRun,
			&summary.AverageScore,
			&summary.LastRunAt,
			&summary.CreatedAt,
			&summary.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, &summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summaries: %w", err)
	}

	return summaries, nil
}
