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

// AnalysisRepository handles persistence for every analysis tool table.
// All tool tables share the same column shape, so a single repository serves
// them; the table name is resolved from the ToolType registry, never from
// caller input.
type AnalysisRepository struct {
	db *PostgresDB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *PostgresDB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func analysisTable(tool types.ToolType) (string, error) {
	if !tool.Valid() {
		return "", &types.ServiceError{
			Code:    "INVALID_TOOL_TYPE",
			Message: fmt.Sprintf("unknown analysis tool: %s", tool),
		}
	}
	return tool.Table(), nil
}

// Create inserts a new analysis record
func (r *AnalysisRepository) Create(ctx context.Context, record *models.AnalysisRecord) error {
	table, err := analysisTable(record.Tool)
	if err != nil {
		return err
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, project_name, project_url, payload, overall_score, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, table)

	_, err = r.db.Pool().Exec(ctx, query,
		record.ID,
		record.UserID,
		record.ProjectName,
		record.ProjectURL,
		record.Payload,
		record.OverallScore,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create %s analysis: %w", record.Tool, err)
	}

	return nil
}

// GetByID retrieves one analysis record by id
func (r *AnalysisRepository) GetByID(ctx context.Context, tool types.ToolType, id string) (*models.AnalysisRecord, error) {
	table, err := analysisTable(tool)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, project_name, project_url, payload, overall_score, status, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, table)

	record := models.AnalysisRecord{Tool: tool}
	err = r.db.Pool().QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.UserID,
		&record.ProjectName,
		&record.ProjectURL,
		&record.Payload,
		&record.OverallScore,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "ANALYSIS_NOT_FOUND",
				Message: fmt.Sprintf("%s analysis not found: %s", tool, id),
			}
		}
		return nil, fmt.Errorf("failed to get %s analysis: %w", tool, err)
	}

	return &record, nil
}

// ListByUser retrieves analysis records for a user, newest first
func (r *AnalysisRepository) ListByUser(ctx context.Context, tool types.ToolType, userID string, limit, offset int) ([]*models.AnalysisRecord, error) {
	table, err := analysisTable(tool)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, project_name, project_url, payload, overall_score, status, created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, table)

	rows, err := r.db.Pool().Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s analyses: %w", tool, err)
	}
	defer rows.Close()

	return scanAnalysisRows(rows, tool)
}

// ListByProject retrieves analysis records for a (user, project) pair, newest first
func (r *AnalysisRepository) ListByProject(ctx context.Context, tool types.ToolType, userID, projectName string) ([]*models.AnalysisRecord, error) {
	table, err := analysisTable(tool)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, project_name, project_url, payload, overall_score, status, created_at, updated_at
		FROM %s
		WHERE user_id = $1 AND project_name = $2
		ORDER BY created_at DESC
	`, table)

	rows, err := r.db.Pool().Query(ctx, query, userID, projectName)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s analyses: %w", tool, err)
	}
	defer rows.Close()

	return scanAnalysisRows(rows, tool)
}

// Update updates payload, score and status of an existing record
func (r *AnalysisRepository) Update(ctx context.Context, record *models.AnalysisRecord) error {
	table, err := analysisTable(record.Tool)
	if err != nil {
		return err
	}

	record.UpdatedAt = time.Now()

	query := fmt.Sprintf(`
		UPDATE %s
		SET payload = $2, overall_score = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, table)

	result, err := r.db.Pool().Exec(ctx, query,
		record.ID,
		record.Payload,
		record.OverallScore,
		record.Status,
		record.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update %s analysis: %w", record.Tool, err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "ANALYSIS_NOT_FOUND",
			Message: fmt.Sprintf("%s analysis not found: %s", record.Tool, record.ID),
		}
	}

	return nil
}

// Delete removes one analysis record by id
func (r *AnalysisRepository) Delete(ctx context.Context, tool types.ToolType, id string) error {
	table, err := analysisTable(tool)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s analysis: %w", tool, err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "ANALYSIS_NOT_FOUND",
			Message: fmt.Sprintf("%s analysis not found: %s", tool, id),
		}
	}

	return nil
}

// scanAnalysisRows collects analysis rows from a query result
func scanAnalysisRows(rows pgx.Rows, tool types.ToolType) ([]*models.AnalysisRecord, error) {
	var records []*models.AnalysisRecord
	for rows.Next() {
		record := models.AnalysisRecord{Tool: tool}
		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.ProjectName,
			&record.ProjectURL,
			&record.Payload,
			&record.OverallScore,
			&record.Status,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s analysis: %w", tool, err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s analyses: %w", tool, err)
	}

	return records, nil
}
