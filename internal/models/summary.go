package models

import "time"

// AnalysisSummary is the per-(user, project) rollup of tool usage. It is
// always upserted, never duplicated.
type AnalysisSummary struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"userId" db:"user_id"`
	ProjectName  string    `json:"projectName" db:"project_name"`
	ToolsRun     int       `json:"toolsRun" db:"tools_run"`
	AverageScore float64   `json:"averageScore" db:"average_score"`
	LastRunAt    time.Time `json:"lastRunAt" db:"last_run_at"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// ToolData records a generic use of an analysis tool, kept for the legacy
// dashboard's activity feed.
type ToolData struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	ToolName    string    `json:"toolName" db:"tool_name"`
	ProjectName string    `json:"projectName" db:"project_name"`
	Score       float64   `json:"score" db:"score"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// HistoryEvent is one analysis-usage event in the analytics stream
type HistoryEvent struct {
	UserID      string    `json:"userId"`
	ProjectName string    `json:"projectName"`
	Tool        string    `json:"tool"`
	Score       float64   `json:"score"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurredAt"`
}
