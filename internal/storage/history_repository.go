package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/project-analyzer/internal/models"
)

// HistoryRepository records analysis-usage events to ClickHouse. The event
// stream is append-only and serves the dashboard's usage analytics.
type HistoryRepository struct {
	db *ClickHouseDB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *ClickHouseDB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record appends one usage event
func (r *HistoryRepository) Record(ctx context.Context, event *models.HistoryEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	query := `
		INSERT INTO analysis_history (user_id, project_name, tool, score, status, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := r.db.Exec(ctx, query,
		event.UserID,
		event.ProjectName,
		event.Tool,
		event.Score,
		event.Status,
		event.OccurredAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record history event: %w", err)
	}

	return nil
}

// UsageByProject aggregates run counts and average score per tool for a
// (user, project) pair.
func (r *HistoryRepository) UsageByProject(ctx context.Context, userID, projectName string) (map[string]*ToolUsage, error) {
	query := `
		SELECT tool, count() AS runs, avg(score) AS avg_score
		FROM analysis_history
		WHERE user_id = ? AND project_name = ?
		GROUP BY tool
	`

	rows, err := r.db.Conn().Query(ctx, query, userID, projectName)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[string]*ToolUsage)
	for rows.Next() {
		var tool string
		var runs uint64
		var avgScore float64
		if err := rows.Scan(&tool, &runs, &avgScore); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		usage[tool] = &ToolUsage{Runs: runs, AverageScore: avgScore}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage rows: %w", err)
	}

	return usage, nil
}

// ToolUsage is the per-tool aggregate returned by UsageByProject
type ToolUsage struct {
	Runs         uint64  `json:"runs"`
	AverageScore float64 `json:"averageScore"`
}
