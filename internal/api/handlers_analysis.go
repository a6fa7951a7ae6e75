package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/project-analyzer/internal/service"
	"github.com/project-analyzer/internal/types"
)

// toolTypeFromRequest resolves the {type} path segment against the known
// analysis tools. The tool never comes from the request body.
func toolTypeFromRequest(w http.ResponseWriter, r *http.Request) (types.ToolType, bool) {
	tool := types.ToolType(mux.Vars(r)["type"])
	if !tool.Valid() {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Unknown analysis type", map[string]interface{}{
			"type": string(tool),
		})
		return "", false
	}
	return tool, true
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := requestUserID(r)
	if userID == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User ID required", nil)
		return "", false
	}
	return userID, true
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// handleListAnalyses handles GET /api/analysis/{type}
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	tool, ok := toolTypeFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, offset := paginationParams(r)

	records, err := s.analysisService.List(r.Context(), tool, userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"type":    tool,
		"results": records,
		"count":   len(records),
	})
}

// handleCreateAnalysis handles POST /api/analysis/{type}
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	tool, ok := toolTypeFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		ProjectName  string          `json:"projectName" validate:"required,min=1,max=200"`
		ProjectURL   string          `json:"projectUrl" validate:"omitempty,max=2000"`
		Payload      json.RawMessage `json:"payload"`
		OverallScore float64         `json:"overallScore" validate:"gte=0,lte=100"`
		Status       string          `json:"status" validate:"omitempty,oneof=pending running completed failed"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	record, err := s.analysisService.Create(r.Context(), service.CreateAnalysisInput{
		UserID:       userID,
		ProjectName:  req.ProjectName,
		ProjectURL:   req.ProjectURL,
		Tool:         tool,
		Payload:      req.Payload,
		OverallScore: req.OverallScore,
		Status:       types.AnalysisStatus(req.Status),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// handleGetAnalysis handles GET /api/analysis/{type}/{id}
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	tool, ok := toolTypeFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	record, err := s.analysisService.Get(r.Context(), tool, mux.Vars(r)["id"], userID)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// handleUpdateAnalysis handles PUT /api/analysis/{type}/{id}
func (s *Server) handleUpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	tool, ok := toolTypeFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Payload      json.RawMessage `json:"payload"`
		OverallScore *float64        `json:"overallScore" validate:"omitempty,gte=0,lte=100"`
		Status       string          `json:"status" validate:"omitempty,oneof=pending running completed failed"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	record, err := s.analysisService.Update(r.Context(), tool, mux.Vars(r)["id"], userID, service.UpdateAnalysisInput{
		Payload:      req.Payload,
		OverallScore: req.OverallScore,
		Status:       types.AnalysisStatus(req.Status),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// handleDeleteAnalysis handles DELETE /api/analysis/{type}/{id}
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	tool, ok := toolTypeFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := s.analysisService.Delete(r.Context(), tool, mux.Vars(r)["id"], userID); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleRunBlockchainAnalysis handles POST /api/tools/blockchain/run
func (s *Server) handleRunBlockchainAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		ProjectName     string `json:"projectName" validate:"required,min=1,max=200"`
		ContractAddress string `json:"contractAddress" validate:"required"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	record, err := s.blockchainService.Analyze(r.Context(), userID, req.ProjectName, req.ContractAddress)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// handleRunAIDashboard handles POST /api/tools/ai-dashboard/run
func (s *Server) handleRunAIDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		ProjectName string `json:"projectName" validate:"required,min=1,max=200"`
		ProjectURL  string `json:"projectUrl" validate:"omitempty,max=2000"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	record, err := s.insightService.GenerateDashboard(r.Context(), userID, req.ProjectName, req.ProjectURL)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}
