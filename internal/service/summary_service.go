package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/storage"
	"github.com/project-analyzer/internal/types"
)

// SummaryStore is the repository surface the summary service needs.
type SummaryStore interface {
	Upsert(ctx context.Context, summary *models.AnalysisSummary) error
	GetByProject(ctx context.Context, userID, projectName string) (*models.AnalysisSummary, error)
	ListByUser(ctx context.Context, userID string) ([]*models.AnalysisSummary, error)
}

// SummaryService maintains the per-(user, project) rollup of tool usage.
type SummaryService struct {
	repo   SummaryStore
	store  AnalysisStore
	cache  *storage.CacheService
	logger *logging.Logger
}

func NewSummaryService(repo SummaryStore, store AnalysisStore, cache *storage.CacheService, logger *logging.Logger) *SummaryService {
	return &SummaryService{repo: repo, store: store, cache: cache, logger: logger}
}

// Recompute rebuilds the project summary from the current analysis tables
// and upserts it. The write is atomic on (user_id, project_name), so two
// concurrent recomputes cannot interleave a stale read with a write.
func (s *SummaryService) Recompute(ctx context.Context, userID, projectName string) (*models.AnalysisSummary, error) {
	toolsRun := 0
	totalScore := 0.0
	scored := 0
	var lastRun time.Time

	for _, tool := range types.AllToolTypes {
		records, err := s.store.ListByProject(ctx, tool, userID, projectName)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue
		}
		toolsRun++

		latest := records[0]
		if latest.CreatedAt.After(lastRun) {
			lastRun = latest.CreatedAt
		}
		if latest.Status == types.StatusCompleted {
			totalScore += latest.OverallScore
			scored++
		}
	}

	average := 0.0
	if scored > 0 {
		average = totalScore / float64(scored)
	}

	now := time.Now().UTC()
	summary := &models.AnalysisSummary{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProjectName:  projectName,
		ToolsRun:     toolsRun,
		AverageScore: average,
		LastRunAt:    lastRun,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Upsert(ctx, summary); err != nil {
		return nil, err
	}

	if s.cache != nil {
		key := s.cache.GenerateSummaryKey(userID, projectName)
		if err := s.cache.Set(ctx, key, summary); err != nil {
			s.logger.WithError(err).Warn("Failed to cache project summary")
		}
	}

	return summary, nil
}

// Get returns the cached summary when available, falling back to the store.
func (s *SummaryService) Get(ctx context.Context, userID, projectName string) (*models.AnalysisSummary, error) {
	if s.cache != nil {
		var cached models.AnalysisSummary
		hit, err := s.cache.Get(ctx, s.cache.GenerateSummaryKey(userID, projectName), &cached)
		if err != nil {
			s.logger.WithError(err).Warn("Summary cache read failed")
		} else if hit {
			return &cached, nil
		}
	}
	return s.repo.GetByProject(ctx, userID, projectName)
}

func (s *SummaryService) ListByUser(ctx context.Context, userID string) ([]*models.AnalysisSummary, error) {
	return s.repo.ListByUser(ctx, userID)
}
