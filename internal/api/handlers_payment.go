package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/project-analyzer/internal/service"
	"github.com/project-analyzer/internal/types"
)

// handleCreatePayment handles POST /api/payments
func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		ToolType        string `json:"toolType" validate:"required"`
		TransactionHash string `json:"transactionHash" validate:"required,min=10,max=100"`
		AmountWei       string `json:"amountWei" validate:"required,number"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !validateBody(w, req) {
		return
	}

	payment, err := s.paymentService.Create(r.Context(), service.CreatePaymentInput{
		UserID:    userID,
		Tool:      types.ToolType(req.ToolType),
		TxHash:    req.TransactionHash,
		AmountWei: req.AmountWei,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, payment)
}

// handleListPayments handles GET /api/payments
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, offset := paginationParams(r)

	payments, err := s.paymentService.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"count":    len(payments),
	})
}

// handleGetPayment handles GET /api/payments/{id}
func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	payment, err := s.paymentService.Get(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payment)
}

// handleConfirmPayment handles POST /api/payments/{id}/confirm
func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	payment, err := s.paymentService.Confirm(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payment)
}
