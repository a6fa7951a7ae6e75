// Package service holds the business logic between the HTTP handlers and
// the storage repositories.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/storage"
	"github.com/project-analyzer/internal/types"
)

// AnalysisStore is the repository surface the analysis service needs.
type AnalysisStore interface {
	Create(ctx context.Context, record *models.AnalysisRecord) error
	GetByID(ctx context.Context, tool types.ToolType, id string) (*models.AnalysisRecord, error)
	ListByUser(ctx context.Context, tool types.ToolType, userID string, limit, offset int) ([]*models.AnalysisRecord, error)
	ListByProject(ctx context.Context, tool types.ToolType, userID, projectName string) ([]*models.AnalysisRecord, error)
	Update(ctx context.Context, record *models.AnalysisRecord) error
	Delete(ctx context.Context, tool types.ToolType, id string) error
}

// HistorySink records analysis-usage events in the analytics stream.
type HistorySink interface {
	Record(ctx context.Context, event *models.HistoryEvent) error
}

// AnalysisService implements CRUD over the per-tool analysis tables with
// ownership enforcement. Every mutating call also feeds the usage stream
// and invalidates the project cache, both best-effort.
type AnalysisService struct {
	repo    AnalysisStore
	history HistorySink
	cache   *storage.CacheService
	logger  *logging.Logger
}

func NewAnalysisService(repo AnalysisStore, history HistorySink, cache *storage.CacheService, logger *logging.Logger) *AnalysisService {
	return &AnalysisService{repo: repo, history: history, cache: cache, logger: logger}
}

// CreateAnalysisInput carries a validated create request.
type CreateAnalysisInput struct {
	UserID       string
	ProjectName  string
	ProjectURL   string
	Tool         types.ToolType
	Payload      json.RawMessage
	OverallScore float64
	Status       types.AnalysisStatus
}

func (s *AnalysisService) Create(ctx context.Context, in CreateAnalysisInput) (*models.AnalysisRecord, error) {
	if !in.Tool.Valid() {
		return nil, errors.NewInvalidParameterError("type", "unknown analysis type")
	}

	now := time.Now().UTC()
	record := &models.AnalysisRecord{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		ProjectName:  in.ProjectName,
		ProjectURL:   in.ProjectURL,
		Tool:         in.Tool,
		Payload:      in.Payload,
		OverallScore: in.OverallScore,
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if record.Status == "" {
		record.Status = types.StatusCompleted
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, record)
	s.invalidateProject(ctx, record.UserID, record.ProjectName)

	return record, nil
}

// Get fetches one analysis and enforces that it belongs to the caller.
func (s *AnalysisService) Get(ctx context.Context, tool types.ToolType, id, userID string) (*models.AnalysisRecord, error) {
	record, err := s.repo.GetByID(ctx, tool, id)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, errors.NewForbiddenError("analysis belongs to a different user")
	}
	return record, nil
}

func (s *AnalysisService) List(ctx context.Context, tool types.ToolType, userID string, limit, offset int) ([]*models.AnalysisRecord, error) {
	if !tool.Valid() {
		return nil, errors.NewInvalidParameterError("type", "unknown analysis type")
	}
	return s.repo.ListByUser(ctx, tool, userID, limit, offset)
}

// UpdateAnalysisInput carries the mutable fields of an analysis.
type UpdateAnalysisInput struct {
	Payload      json.RawMessage
	OverallScore *float64
	Status       types.AnalysisStatus
}

func (s *AnalysisService) Update(ctx context.Context, tool types.ToolType, id, userID string, in UpdateAnalysisInput) (*models.AnalysisRecord, error) {
	record, err := s.Get(ctx, tool, id, userID)
	if err != nil {
		return nil, err
	}

	if in.Payload != nil {
		record.Payload = in.Payload
	}
	if in.OverallScore != nil {
		record.OverallScore = *in.OverallScore
	}
	if in.Status != "" {
		record.Status = in.Status
	}
	record.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.invalidateProject(ctx, record.UserID, record.ProjectName)
	return record, nil
}

func (s *AnalysisService) Delete(ctx context.Context, tool types.ToolType, id, userID string) error {
	record, err := s.Get(ctx, tool, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, tool, id); err != nil {
		return err
	}

	s.invalidateProject(ctx, record.UserID, record.ProjectName)
	return nil
}

// recordEvent writes to the usage stream. A stream failure never fails the
// user-facing write.
func (s *AnalysisService) recordEvent(ctx context.Context, record *models.AnalysisRecord) {
	if s.history == nil {
		return
	}
	event := &models.HistoryEvent{
		UserID:      record.UserID,
		ProjectName: record.ProjectName,
		Tool:        string(record.Tool),
		Score:       record.OverallScore,
		Status:      string(record.Status),
		OccurredAt:  record.CreatedAt,
	}
	if err := s.history.Record(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to record usage event")
	}
}

func (s *AnalysisService) invalidateProject(ctx context.Context, userID, projectName string) {
	if s.cache == nil {
		return
	}
	keys := []string{
		s.cache.GenerateProjectKey(userID, projectName),
		s.cache.GenerateSummaryKey(userID, projectName),
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate project cache")
	}
}
