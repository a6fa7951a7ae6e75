package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleListToolActivity handles GET /api/tools/activity. It serves the
// legacy activity-feed rows carried over by the data migration.
func (s *Server) handleListToolActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, offset := paginationParams(r)

	items, err := s.toolDataRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": items,
	})
}

// handleListBlocks handles GET /api/blocks
func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, offset := paginationParams(r)

	blocks, err := s.blockRepo.ListBlocksByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": blocks,
	})
}

// handleGetBlock handles GET /api/blocks/{id}. The block comes back with
// its transactions and their events.
func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	block, err := s.blockRepo.GetBlockByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if block.UserID != userID {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "Block belongs to a different user", nil)
		return
	}

	respondJSON(w, http.StatusOK, block)
}
