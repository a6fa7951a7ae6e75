package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

// PaymentStore is the repository surface the payment service needs.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.ToolPayment) error
	GetByID(ctx context.Context, id string) (*models.ToolPayment, error)
	ExistsByTxHash(ctx context.Context, txHash string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.ToolPayment, error)
	UpdateStatus(ctx context.Context, id string, status types.PaymentStatus) error
}

// PaymentService records tool payments, rejecting duplicate transaction
// hashes before they reach the unique constraint.
type PaymentService struct {
	repo   PaymentStore
	logger *logging.Logger
}

func NewPaymentService(repo PaymentStore, logger *logging.Logger) *PaymentService {
	return &PaymentService{repo: repo, logger: logger}
}

// CreatePaymentInput carries a validated payment request.
type CreatePaymentInput struct {
	UserID    string
	Tool      types.ToolType
	TxHash    string
	AmountWei string
}

func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*models.ToolPayment, error) {
	if !in.Tool.Valid() {
		return nil, errors.NewInvalidParameterError("toolType", "unknown analysis type")
	}

	exists, err := s.repo.ExistsByTxHash(ctx, in.TxHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewDuplicateTxError(in.TxHash)
	}

	now := time.Now().UTC()
	payment := &models.ToolPayment{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Tool:      in.Tool,
		TxHash:    in.TxHash,
		AmountWei: in.AmountWei,
		Status:    types.PaymentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"paymentId": payment.ID,
		"txHash":    payment.TxHash,
	}).Info("Payment recorded")

	return payment, nil
}

// Get fetches one payment and enforces that it belongs to the caller.
func (s *PaymentService) Get(ctx context.Context, id, userID string) (*models.ToolPayment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, errors.NewForbiddenError("payment belongs to a different user")
	}
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, userID string, limit, offset int) ([]*models.ToolPayment, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Confirm marks a payment confirmed after its owner is verified.
func (s *PaymentService) Confirm(ctx context.Context, id, userID string) (*models.ToolPayment, error) {
	payment, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, payment.ID, types.PaymentConfirmed); err != nil {
		return nil, err
	}
	payment.Status = types.PaymentConfirmed
	return payment, nil
}
