// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/service"
	"github.com/project-analyzer/internal/types"
)

// Service interfaces for dependency injection and testing

// AnalysisServiceInterface defines analysis CRUD operations
type AnalysisServiceInterface interface {
	Create(ctx context.Context, in service.CreateAnalysisInput) (*models.AnalysisRecord, error)
	Get(ctx context.Context, tool types.ToolType, id, userID string) (*models.AnalysisRecord, error)
	List(ctx context.Context, tool types.ToolType, userID string, limit, offset int) ([]*models.AnalysisRecord, error)
	Update(ctx context.Context, tool types.ToolType, id, userID string, in service.UpdateAnalysisInput) (*models.AnalysisRecord, error)
	Delete(ctx context.Context, tool types.ToolType, id, userID string) error
}

// PaymentServiceInterface defines payment operations
type PaymentServiceInterface interface {
	Create(ctx context.Context, in service.CreatePaymentInput) (*models.ToolPayment, error)
	Get(ctx context.Context, id, userID string) (*models.ToolPayment, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*models.ToolPayment, error)
	Confirm(ctx context.Context, id, userID string) (*models.ToolPayment, error)
}

// BlockchainServiceInterface defines the on-chain analysis tool
type BlockchainServiceInterface interface {
	Analyze(ctx context.Context, userID, projectName, address string) (*models.AnalysisRecord, error)
}

// InsightServiceInterface defines the AI dashboard tool
type InsightServiceInterface interface {
	GenerateDashboard(ctx context.Context, userID, projectName, projectURL string) (*models.AnalysisRecord, error)
}

// SummaryServiceInterface defines the project summary rollup
type SummaryServiceInterface interface {
	Recompute(ctx context.Context, userID, projectName string) (*models.AnalysisSummary, error)
	Get(ctx context.Context, userID, projectName string) (*models.AnalysisSummary, error)
	ListByUser(ctx context.Context, userID string) ([]*models.AnalysisSummary, error)
}

// ProjectServiceInterface defines the complete project view
type ProjectServiceInterface interface {
	CompleteAnalysis(ctx context.Context, userID, projectName string) (*service.ProjectView, error)
}

// UserStoreInterface defines user account storage
type UserStoreInterface interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// SettingsStoreInterface defines per-user settings storage
type SettingsStoreInterface interface {
	Upsert(ctx context.Context, settings *models.UserSettings) error
	GetByUser(ctx context.Context, userID string) (*models.UserSettings, error)
}

// ToolDataStoreInterface defines the migrated legacy activity-feed reads
type ToolDataStoreInterface interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.ToolData, error)
}

// BlockStoreInterface defines reads over the migrated block chain data
type BlockStoreInterface interface {
	ListBlocksByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Block, error)
	GetBlockByID(ctx context.Context, id string) (*models.Block, error)
}

// IndexerStoreInterface defines indexer storage with jobs and configs
type IndexerStoreInterface interface {
	Upsert(ctx context.Context, indexer *models.Indexer) error
	GetByID(ctx context.Context, id string) (*models.Indexer, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Indexer, error)
	Delete(ctx context.Context, id string) error
	CreateJob(ctx context.Context, job *models.IndexerJob) error
	CreateConfig(ctx context.Context, cfg *models.IndexerConfig) error
}

// Server represents the HTTP API server.
type Server struct {
	router            *mux.Router
	httpServer        *http.Server
	analysisService   AnalysisServiceInterface
	paymentService    PaymentServiceInterface
	blockchainService BlockchainServiceInterface
	insightService    InsightServiceInterface
	summaryService    SummaryServiceInterface
	projectService    ProjectServiceInterface
	userRepo          UserStoreInterface
	indexerRepo       IndexerStoreInterface
	settingsRepo      SettingsStoreInterface
	toolDataRepo      ToolDataStoreInterface
	blockRepo         BlockStoreInterface
	config            *ServerConfig
	logger            *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	FreeTierRPS     int
	PaidTierRPS     int
}

// Deps bundles the server's injected dependencies.
type Deps struct {
	AnalysisService   AnalysisServiceInterface
	PaymentService    PaymentServiceInterface
	BlockchainService BlockchainServiceInterface
	InsightService    InsightServiceInterface
	SummaryService    SummaryServiceInterface
	ProjectService    ProjectServiceInterface
	UserRepo          UserStoreInterface
	IndexerRepo       IndexerStoreInterface
	SettingsRepo      SettingsStoreInterface
	ToolDataRepo      ToolDataStoreInterface
	BlockRepo         BlockStoreInterface
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, deps Deps, logger *logging.Logger) *Server {
	s := &Server{
		router:            mux.NewRouter(),
		analysisService:   deps.AnalysisService,
		paymentService:    deps.PaymentService,
		blockchainService: deps.BlockchainService,
		insightService:    deps.InsightService,
		summaryService:    deps.SummaryService,
		projectService:    deps.ProjectService,
		userRepo:          deps.UserRepo,
		indexerRepo:       deps.IndexerRepo,
		settingsRepo:      deps.SettingsRepo,
		toolDataRepo:      deps.ToolDataRepo,
		blockRepo:         deps.BlockRepo,
		config:            config,
		logger:            logger,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.FreeTierRPS, s.config.PaidTierRPS)

	// Middleware order matters
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Analysis endpoints, one tool type per path segment
	api.HandleFunc("/analysis/{type}", s.handleListAnalyses).Methods("GET")
	api.HandleFunc("/analysis/{type}", s.handleCreateAnalysis).Methods("POST")
	api.HandleFunc("/analysis/{type}/{id}", s.handleGetAnalysis).Methods("GET")
	api.HandleFunc("/analysis/{type}/{id}", s.handleUpdateAnalysis).Methods("PUT")
	api.HandleFunc("/analysis/{type}/{id}", s.handleDeleteAnalysis).Methods("DELETE")

	// Tool runners
	api.HandleFunc("/tools/blockchain/run", s.handleRunBlockchainAnalysis).Methods("POST")
	api.HandleFunc("/tools/ai-dashboard/run", s.handleRunAIDashboard).Methods("POST")
	api.HandleFunc("/tools/activity", s.handleListToolActivity).Methods("GET")

	// Migrated block data, read only
	api.HandleFunc("/blocks", s.handleListBlocks).Methods("GET")
	api.HandleFunc("/blocks/{id}", s.handleGetBlock).Methods("GET")

	// Payment endpoints
	api.HandleFunc("/payments", s.handleCreatePayment).Methods("POST")
	api.HandleFunc("/payments", s.handleListPayments).Methods("GET")
	api.HandleFunc("/payments/{id}", s.handleGetPayment).Methods("GET")
	api.HandleFunc("/payments/{id}/confirm", s.handleConfirmPayment).Methods("POST")

	// Project endpoints
	api.HandleFunc("/projects/{name}/complete", s.handleCompleteAnalysis).Methods("GET")
	api.HandleFunc("/projects/{name}/summary", s.handleGetSummary).Methods("GET")
	api.HandleFunc("/projects/{name}/summary", s.handleRecomputeSummary).Methods("POST")
	api.HandleFunc("/summaries", s.handleListSummaries).Methods("GET")

	// User endpoints
	api.HandleFunc("/users", s.handleCreateUser).Methods("POST")
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{id}", s.handleDeleteUser).Methods("DELETE")
	api.HandleFunc("/users/{id}/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/users/{id}/settings", s.handleUpsertSettings).Methods("PUT")

	// Indexer endpoints
	api.HandleFunc("/indexers", s.handleUpsertIndexer).Methods("POST")
	api.HandleFunc("/indexers", s.handleListIndexers).Methods("GET")
	api.HandleFunc("/indexers/{id}", s.handleGetIndexer).Methods("GET")
	api.HandleFunc("/indexers/{id}", s.handleDeleteIndexer).Methods("DELETE")
	api.HandleFunc("/indexers/{id}/jobs", s.handleCreateIndexerJob).Methods("POST")
	api.HandleFunc("/indexers/{id}/configs", s.handleCreateIndexerConfig).Methods("POST")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "project-analyzer",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
