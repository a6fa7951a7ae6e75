// Package models provides data models for the project analyzer system.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/project-analyzer/internal/types"
)

// AnalysisRecord represents one analysis result row. Every tool table shares
// this shape; the payload varies per tool and is decoded via DecodePayload.
type AnalysisRecord struct {
	ID           string               `json:"id" db:"id"`
	UserID       string               `json:"userId" db:"user_id"`
	ProjectName  string               `json:"projectName" db:"project_name"`
	ProjectURL   string               `json:"projectUrl" db:"project_url"`
	Tool         types.ToolType       `json:"tool" db:"-"`
	Payload      json.RawMessage      `json:"payload" db:"payload"`
	OverallScore float64              `json:"overallScore" db:"overall_score"`
	Status       types.AnalysisStatus `json:"status" db:"status"`
	CreatedAt    time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time            `json:"updatedAt" db:"updated_at"`
}

// MetadataPayload holds metadata analysis results
type MetadataPayload struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	OpenGraphTags    int      `json:"openGraphTags"`
	MissingTags      []string `json:"missingTags,omitempty"`
	CanonicalURL     string   `json:"canonicalUrl,omitempty"`
	HasStructuredData bool    `json:"hasStructuredData"`
}

// ContentAuditPayload holds content audit results
type ContentAuditPayload struct {
	WordCount        int      `json:"wordCount"`
	ReadabilityScore float64  `json:"readabilityScore"`
	DuplicateBlocks  int      `json:"duplicateBlocks"`
	ThinPages        []string `json:"thinPages,omitempty"`
}

// KeywordPayload holds keyword analysis results
type KeywordPayload struct {
	PrimaryKeywords []KeywordMetric `json:"primaryKeywords"`
	Density         float64         `json:"density"`
	Suggestions     []string        `json:"suggestions,omitempty"`
}

// KeywordMetric represents one keyword's measured standing
type KeywordMetric struct {
	Keyword    string  `json:"keyword"`
	Volume     int     `json:"volume"`
	Difficulty float64 `json:"difficulty"`
}

// LinkVerificationPayload holds link verification results
type LinkVerificationPayload struct {
	TotalLinks   int      `json:"totalLinks"`
	BrokenLinks  []string `json:"brokenLinks,omitempty"`
	NoFollowRate float64  `json:"noFollowRate"`
	Backlinks    int      `json:"backlinks"`
}

// PerformancePayload holds performance analysis results
type PerformancePayload struct {
	LoadTimeMs     int     `json:"loadTimeMs"`
	FirstPaintMs   int     `json:"firstPaintMs"`
	PageSizeBytes  int64   `json:"pageSizeBytes"`
	RequestCount   int     `json:"requestCount"`
	MobileScore    float64 `json:"mobileScore"`
	DesktopScore   float64 `json:"desktopScore"`
}

// CompetitionPayload holds competitive analysis results
type CompetitionPayload struct {
	Competitors   []CompetitorEntry `json:"competitors"`
	MarketShare   float64           `json:"marketShare"`
	RankingGap    int               `json:"rankingGap"`
}

// CompetitorEntry represents one competitor in a competition analysis
type CompetitorEntry struct {
	Domain string  `json:"domain"`
	Score  float64 `json:"score"`
}

// BlockchainPayload holds on-chain contract analysis results
type BlockchainPayload struct {
	ContractAddress string  `json:"contractAddress"`
	IsContract      bool    `json:"isContract"`
	BalanceWei      string  `json:"balanceWei"`
	TxCount         uint64  `json:"txCount"`
	Verified        bool    `json:"verified"`
	RecentTxCount   int     `json:"recentTxCount"`
	ActivityScore   float64 `json:"activityScore"`
}

// AIDashboardPayload holds AI-generated project assessment results
type AIDashboardPayload struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths,omitempty"`
	Weaknesses      []string `json:"weaknesses,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Model           string   `json:"model"`
}

// SocialWeb3Payload holds social and Web3 community signal results
type SocialWeb3Payload struct {
	TwitterFollowers int     `json:"twitterFollowers"`
	DiscordMembers   int     `json:"discordMembers"`
	GithubStars      int     `json:"githubStars"`
	EngagementScore  float64 `json:"engagementScore"`
}

// DecodePayload decodes the record's raw payload into the typed variant for
// its tool. The returned value is a pointer to one of the payload structs.
func (r *AnalysisRecord) DecodePayload() (interface{}, error) {
	var dst interface{}

	switch r.Tool {
	case types.ToolMetadata:
		dst = &MetadataPayload{}
	case types.ToolContentAudit:
		dst = &ContentAuditPayload{}
	case types.ToolKeyword:
		dst = &KeywordPayload{}
	case types.ToolLinkVerification:
		dst = &LinkVerificationPayload{}
	case types.ToolPerformance:
		dst = &PerformancePayload{}
	case types.ToolCompetition:
		dst = &CompetitionPayload{}
	case types.ToolBlockchain:
		dst = &BlockchainPayload{}
	case types.ToolAIDashboard:
		dst = &AIDashboardPayload{}
	case types.ToolSocialWeb3:
		dst = &SocialWeb3Payload{}
	default:
		return nil, fmt.Errorf("unknown tool type: %s", r.Tool)
	}

	if len(r.Payload) == 0 {
		return dst, nil
	}

	if err := json.Unmarshal(r.Payload, dst); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", r.Tool, err)
	}

	return dst, nil
}

// EncodePayload sets the record's raw payload from a typed variant
func (r *AnalysisRecord) EncodePayload(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", r.Tool, err)
	}
	r.Payload = data
	return nil
}
