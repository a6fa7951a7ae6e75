package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

// PaymentRepository handles tool payment persistence
type PaymentRepository struct {
	db *PostgresDB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *PostgresDB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment row
func (r *PaymentRepository) Create(ctx context.Context, payment *models.ToolPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	query := `
		INSERT INTO tool_payments (id, user_id, tool, tx_hash, amount_wei, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.Tool,
		payment.TxHash,
		payment.AmountWei,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by id
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.ToolPayment, error) {
	query := `
		SELECT id, user_id, tool, tx_hash, amount_wei, status, created_at, updated_at
		FROM tool_payments
		WHERE id = $1
	`

	var payment models.ToolPayment
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Tool,
		&payment.TxHash,
		&payment.AmountWei,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "PAYMENT_NOT_FOUND",
				Message: fmt.Sprintf("payment not found: %s", id),
			}
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

// ExistsByTxHash checks for a payment with the given transaction hash
func (r *PaymentRepository) ExistsByTxHash(ctx context.Context, txHash string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM tool_payments WHERE tx_hash = $1)`

	err := r.db.Pool().QueryRow(ctx, query, txHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payment existence: %w", err)
	}

	return exists, nil
}

// ListByUser retrieves payments for a user, newest first
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.ToolPayment, error) {
	query := `
		SELECT id, user_id, tool, tx_hash, amount_wei, status, created_at, updated_at
		FROM tool_payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool().Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.ToolPayment
	for rows.Next() {
		var payment models.ToolPayment
		err := rows.Scan(
			&payment.ID,
			&payment.UserID,
			&payment.Tool,
			&payment.TxHash,
			&payment.AmountWei,
			&payment.Status,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

// UpdateStatus updates the status of a payment
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status types.PaymentStatus) error {
	query := `
		UPDATE tool_payments
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "PAYMENT_NOT_FOUND",
			Message: fmt.Sprintf("payment not found: %s", id),
		}
	}

	return nil
}

// Delete removes a payment by id
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tool_payments WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "PAYMENT_NOT_FOUND",
			Message: fmt.Sprintf("payment not found: %s", id),
		}
	}

	return nil
}
