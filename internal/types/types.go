// Package types provides common type definitions for the project analyzer system.
package types

// UserTier represents the service tier level
type UserTier string

const (
	// TierFree represents the free service tier with limited features
	TierFree UserTier = "free"
	// TierPaid represents the paid service tier with full features
	TierPaid UserTier = "paid"
)

// ToolType identifies one analysis tool and its backing table
type ToolType string

const (
	// ToolMetadata analyzes page metadata (title, description, OpenGraph tags)
	ToolMetadata ToolType = "metadata"
	// ToolContentAudit audits textual content quality
	ToolContentAudit ToolType = "content-audit"
	// ToolKeyword analyzes keyword density and ranking potential
	ToolKeyword ToolType = "keyword"
	// ToolLinkVerification verifies inbound and outbound links
	ToolLinkVerification ToolType = "link-verification"
	// ToolPerformance measures page performance metrics
	ToolPerformance ToolType = "performance"
	// ToolCompetition compares the project against competitors
	ToolCompetition ToolType = "competition"
	// ToolBlockchain analyzes an on-chain contract address
	ToolBlockchain ToolType = "blockchain"
	// ToolAIDashboard produces an AI-generated project assessment
	ToolAIDashboard ToolType = "ai-dashboard"
	// ToolSocialWeb3 analyzes social and Web3 community signals
	ToolSocialWeb3 ToolType = "social-web3"
)

// AllToolTypes lists every analysis tool in a stable order
var AllToolTypes = []ToolType{
	ToolMetadata,
	ToolContentAudit,
	ToolKeyword,
	ToolLinkVerification,
	ToolPerformance,
	ToolCompetition,
	ToolBlockchain,
	ToolAIDashboard,
	ToolSocialWeb3,
}

// toolTables maps each tool to its destination table name.
// Table names come from this map only, never from request input.
var toolTables = map[ToolType]string{
	ToolMetadata:         "metadata_analyses",
	ToolContentAudit:     "content_audits",
	ToolKeyword:          "keyword_analyses",
	ToolLinkVerification: "link_verifications",
	ToolPerformance:      "performance_analyses",
	ToolCompetition:      "competition_analyses",
	ToolBlockchain:       "blockchain_analyses",
	ToolAIDashboard:      "ai_dashboard_analyses",
	ToolSocialWeb3:       "social_web3_analyses",
}

// Valid reports whether the tool type is a known analysis tool
func (t ToolType) Valid() bool {
	_, ok := toolTables[t]
	return ok
}

// Table returns the destination table backing this tool
func (t ToolType) Table() string {
	return toolTables[t]
}

// AnalysisStatus represents the lifecycle state of an analysis record
type AnalysisStatus string

const (
	// StatusPending represents an analysis that has been requested but not started
	StatusPending AnalysisStatus = "pending"
	// StatusRunning represents an analysis in progress
	StatusRunning AnalysisStatus = "running"
	// StatusCompleted represents a finished analysis with results
	StatusCompleted AnalysisStatus = "completed"
	// StatusFailed represents an analysis that could not complete
	StatusFailed AnalysisStatus = "failed"
)

// IndexerStatus represents the state of an indexer
type IndexerStatus string

const (
	// IndexerActive represents a running indexer
	IndexerActive IndexerStatus = "active"
	// IndexerPaused represents a temporarily stopped indexer
	IndexerPaused IndexerStatus = "paused"
	// IndexerStopped represents a permanently stopped indexer
	IndexerStopped IndexerStatus = "stopped"
)

// PaymentStatus represents the state of a tool payment
type PaymentStatus string

const (
	// PaymentPending represents a submitted but unconfirmed payment
	PaymentPending PaymentStatus = "pending"
	// PaymentConfirmed represents an on-chain confirmed payment
	PaymentConfirmed PaymentStatus = "confirmed"
	// PaymentFailed represents a reverted or rejected payment
	PaymentFailed PaymentStatus = "failed"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return e.Code + ": " + e.Message
}
