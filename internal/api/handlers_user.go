package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

// handleCreateUser handles POST /api/users. The write is an upsert keyed by
// id, so repeating a request does not create a second row.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id" validate:"omitempty,uuid4"`
		Email string `json:"email" validate:"required,email"`
		Tier  string `json:"tier" validate:"omitempty,oneof=free paid"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        req.ID,
		Email:     req.Email,
		Tier:      types.UserTier(req.Tier),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Tier == "" {
		user.Tier = types.TierFree
	}

	if err := s.userRepo.Upsert(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// handleGetUser handles GET /api/users/{id}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.userRepo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleDeleteUser handles DELETE /api/users/{id}
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if userID != mux.Vars(r)["id"] {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "Cannot delete another user", nil)
		return
	}

	if err := s.userRepo.Delete(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleGetSettings handles GET /api/users/{id}/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsRepo.GetByUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// handleUpsertSettings handles PUT /api/users/{id}/settings. Settings are
// unique per user, so the write resolves atomically on user_id.
func (s *Server) handleUpsertSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if userID != mux.Vars(r)["id"] {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "Cannot change another user's settings", nil)
		return
	}

	var req struct {
		NotificationsEnabled bool    `json:"notificationsEnabled"`
		EmailReports         bool    `json:"emailReports"`
		DefaultProjectName   *string `json:"defaultProjectName" validate:"omitempty,max=200"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	now := time.Now().UTC()
	settings := &models.UserSettings{
		ID:                   uuid.NewString(),
		UserID:               userID,
		NotificationsEnabled: req.NotificationsEnabled,
		EmailReports:         req.EmailReports,
		DefaultProjectName:   req.DefaultProjectName,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.settingsRepo.Upsert(r.Context(), settings); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}
