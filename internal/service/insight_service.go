package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

// Completer produces a text completion for one prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// InsightService generates the AI dashboard assessment for a project from
// its accumulated analysis results.
type InsightService struct {
	completer Completer
	model     string
	repo      AnalysisStore
	analyses  *AnalysisService
	logger    *logging.Logger
}

func NewInsightService(completer Completer, model string, repo AnalysisStore, analyses *AnalysisService, logger *logging.Logger) *InsightService {
	return &InsightService{
		completer: completer,
		model:     model,
		repo:      repo,
		analyses:  analyses,
		logger:    logger,
	}
}

const dashboardPrompt = `You are reviewing a Web3/SEO project analysis. Based on the tool results below, produce a JSON object with exactly these fields:
{"summary": "<2-3 sentence assessment>", "strengths": ["..."], "weaknesses": ["..."], "recommendations": ["..."], "score": <0-100>}

Respond with the JSON object only, no surrounding text.

Project: %s
Tool results:
%s`

// GenerateDashboard collects the project's existing analysis scores, asks
// the model for an assessment, and stores it as an ai-dashboard analysis.
func (s *InsightService) GenerateDashboard(ctx context.Context, userID, projectName, projectURL string) (*models.AnalysisRecord, error) {
	results := s.collectResults(ctx, userID, projectName)
	if len(results) == 0 {
		return nil, errors.NewNotFoundError("analysis results for project", projectName)
	}

	prompt := fmt.Sprintf(dashboardPrompt, projectName, strings.Join(results, "\n"))

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	assessment, err := parseAssessment(text)
	if err != nil {
		return nil, errors.NewInternalError("model returned an unparseable assessment", err)
	}

	payload := &models.AIDashboardPayload{
		Summary:         assessment.Summary,
		Strengths:       assessment.Strengths,
		Weaknesses:      assessment.Weaknesses,
		Recommendations: assessment.Recommendations,
		Model:           s.model,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode analysis payload", err)
	}

	return s.analyses.Create(ctx, CreateAnalysisInput{
		UserID:       userID,
		ProjectName:  projectName,
		ProjectURL:   projectURL,
		Tool:         types.ToolAIDashboard,
		Payload:      raw,
		OverallScore: assessment.Score,
		Status:       types.StatusCompleted,
	})
}

// collectResults fetches the latest score per tool, skipping tools that have
// no results or fail to load.
func (s *InsightService) collectResults(ctx context.Context, userID, projectName string) []string {
	var results []string
	for _, tool := range types.AllToolTypes {
		if tool == types.ToolAIDashboard {
			continue
		}
		records, err := s.repo.ListByProject(ctx, tool, userID, projectName)
		if err != nil {
			s.logger.WithError(err).WithField("tool", tool).Warn("Failed to load tool results")
			continue
		}
		if len(records) == 0 {
			continue
		}
		latest := records[0]
		results = append(results, fmt.Sprintf("- %s: score %.1f (%s)", tool, latest.OverallScore, latest.Status))
	}
	return results
}

type assessment struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	Score           float64  `json:"score"`
}

// parseAssessment tolerates a fenced code block around the JSON body.
func parseAssessment(text string) (*assessment, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var a assessment
	if err := json.Unmarshal([]byte(trimmed), &a); err != nil {
		return nil, err
	}
	if a.Summary == "" {
		return nil, fmt.Errorf("assessment missing summary")
	}
	return &a, nil
}
