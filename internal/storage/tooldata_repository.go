package storage

import (
	"context"
	"fmt"

	"github.com/project-analyzer/internal/models"
)

// ToolDataRepository reads the legacy activity-feed rows carried over by
// the data migration. Nothing in the current system writes tool_data.
type ToolDataRepository struct {
	db *PostgresDB
}

// NewToolDataRepository creates a new tool data repository
func NewToolDataRepository(db *PostgresDB) *ToolDataRepository {
	return &ToolDataRepository{db: db}
}

// ListByUser retrieves tool data rows for a user, newest first
func (r *ToolDataRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.ToolData, error) {
	query := `
		SELECT id, user_id, tool_name, project_name, score, created_at
		FROM tool_data
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool().Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool data: %w", err)
	}
	defer rows.Close()

	var items []*models.ToolData
	for rows.Next() {
		var data models.ToolData
		err := rows.Scan(
			&data.ID,
			&data.UserID,
			&data.ToolName,
			&data.ProjectName,
			&data.Score,
			&data.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tool data: %w", err)
		}
		items = append(items, &data)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tool data: %w", err)
	}

	return items, nil
}
