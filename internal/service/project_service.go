package service

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/storage"
	"github.com/project-analyzer/internal/types"
)

// ProjectView is the complete-analysis read model for one project: the
// latest result of every tool that has run.
type ProjectView struct {
	ProjectName string                             `json:"projectName"`
	Results     map[string]*models.AnalysisRecord  `json:"results"`
	Summary     *models.AnalysisSummary            `json:"summary,omitempty"`
	Usage       map[string]*storage.ToolUsage      `json:"usage,omitempty"`
	FetchedAt   time.Time                          `json:"fetchedAt"`
}

// UsageReader aggregates tool usage from the analytics stream.
type UsageReader interface {
	UsageByProject(ctx context.Context, userID, projectName string) (map[string]*storage.ToolUsage, error)
}

// ProjectService assembles the complete project view. The per-tool reads
// are independent, so they fan out concurrently.
type ProjectService struct {
	store     AnalysisStore
	summaries SummaryStore
	usage     UsageReader
	cache     *storage.CacheService
	logger    *logging.Logger
}

func NewProjectService(store AnalysisStore, summaries SummaryStore, usage UsageReader, cache *storage.CacheService, logger *logging.Logger) *ProjectService {
	return &ProjectService{store: store, summaries: summaries, usage: usage, cache: cache, logger: logger}
}

// CompleteAnalysis returns the latest result per tool for a project,
// serving from cache when a fresh view exists.
func (s *ProjectService) CompleteAnalysis(ctx context.Context, userID, projectName string) (*ProjectView, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.GenerateProjectKey(userID, projectName)
		var cached ProjectView
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.WithError(err).Warn("Project cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	view := &ProjectView{
		ProjectName: projectName,
		Results:     make(map[string]*models.AnalysisRecord, len(types.AllToolTypes)),
		FetchedAt:   time.Now().UTC(),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, len(types.AllToolTypes))

	for _, tool := range types.AllToolTypes {
		wg.Add(1)
		go func(tool types.ToolType) {
			defer wg.Done()

			records, err := s.store.ListByProject(ctx, tool, userID, projectName)
			if err != nil {
				errCh <- err
				return
			}
			if len(records) == 0 {
				return
			}
			mu.Lock()
			view.Results[string(tool)] = records[0]
			mu.Unlock()
		}(tool)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}

	summary, err := s.summaries.GetByProject(ctx, userID, projectName)
	if err != nil {
		// Missing summary just means no rollup yet; anything else is a real failure.
		if apperrors.Categorize(err).Category != apperrors.CategoryNotFound {
			s.logger.WithError(err).Warn("Summary read failed")
		}
	} else {
		view.Summary = summary
	}

	if s.usage != nil {
		usage, err := s.usage.UsageByProject(ctx, userID, projectName)
		if err != nil {
			s.logger.WithError(err).Warn("Usage aggregation failed")
		} else {
			view.Usage = usage
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, view); err != nil {
			s.logger.WithError(err).Warn("Failed to cache project view")
		}
	}

	return view, nil
}
