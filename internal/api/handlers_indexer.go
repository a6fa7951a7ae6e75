package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

// getOwnedIndexer fetches an indexer and verifies the caller owns it.
func (s *Server) getOwnedIndexer(w http.ResponseWriter, r *http.Request, userID string) (*models.Indexer, bool) {
	indexer, err := s.indexerRepo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if indexer.UserID != userID {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "Indexer belongs to a different user", nil)
		return nil, false
	}
	return indexer, true
}

// handleUpsertIndexer handles POST /api/indexers. Keyed by id: posting the
// same id updates the existing row.
func (s *Server) handleUpsertIndexer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		ID     string `json:"id" validate:"omitempty,uuid4"`
		Name   string `json:"name" validate:"required,min=1,max=200"`
		Status string `json:"status" validate:"omitempty,oneof=active paused stopped"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	now := time.Now().UTC()
	indexer := &models.Indexer{
		ID:        req.ID,
		UserID:    userID,
		Name:      req.Name,
		Status:    types.IndexerStatus(req.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if indexer.ID == "" {
		indexer.ID = uuid.NewString()
	}
	if indexer.Status == "" {
		indexer.Status = types.IndexerActive
	}

	if err := s.indexerRepo.Upsert(r.Context(), indexer); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, indexer)
}

// handleListIndexers handles GET /api/indexers
func (s *Server) handleListIndexers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	indexers, err := s.indexerRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"indexers": indexers,
		"count":    len(indexers),
	})
}

// handleGetIndexer handles GET /api/indexers/{id}, with jobs and configs
// eager-loaded.
func (s *Server) handleGetIndexer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	indexer, ok := s.getOwnedIndexer(w, r, userID)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, indexer)
}

// handleDeleteIndexer handles DELETE /api/indexers/{id}. Child jobs and
// configs go with the parent.
func (s *Server) handleDeleteIndexer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	indexer, ok := s.getOwnedIndexer(w, r, userID)
	if !ok {
		return
	}

	if err := s.indexerRepo.Delete(r.Context(), indexer.ID); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleCreateIndexerJob handles POST /api/indexers/{id}/jobs
func (s *Server) handleCreateIndexerJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	indexer, ok := s.getOwnedIndexer(w, r, userID)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" validate:"omitempty,max=50"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	now := time.Now().UTC()
	job := &models.IndexerJob{
		ID:        uuid.NewString(),
		IndexerID: indexer.ID,
		Status:    req.Status,
		StartedAt: &now,
		CreatedAt: now,
	}
	if job.Status == "" {
		job.Status = "running"
	}

	if err := s.indexerRepo.CreateJob(r.Context(), job); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, job)
}

// handleCreateIndexerConfig handles POST /api/indexers/{id}/configs
func (s *Server) handleCreateIndexerConfig(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	indexer, ok := s.getOwnedIndexer(w, r, userID)
	if !ok {
		return
	}

	var req struct {
		Key   string `json:"key" validate:"required,min=1,max=100"`
		Value string `json:"value" validate:"required,max=2000"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	cfg := &models.IndexerConfig{
		ID:        uuid.NewString(),
		IndexerID: indexer.ID,
		Key:       req.Key,
		Value:     req.Value,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.indexerRepo.CreateConfig(r.Context(), cfg); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cfg)
}
