package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleCompleteAnalysis handles GET /api/projects/{name}/complete. The
// per-tool reads fan out concurrently in the project service.
func (s *Server) handleCompleteAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := s.projectService.CompleteAnalysis(r.Context(), userID, mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleGetSummary handles GET /api/projects/{name}/summary
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	summary, err := s.summaryService.Get(r.Context(), userID, mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleRecomputeSummary handles POST /api/projects/{name}/summary
func (s *Server) handleRecomputeSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	summary, err := s.summaryService.Recompute(r.Context(), userID, mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleListSummaries handles GET /api/summaries
func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	summaries, err := s.summaryService.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summaries": summaries,
		"count":     len(summaries),
	})
}
