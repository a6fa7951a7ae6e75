package models

import (
	"time"

	"github.com/project-analyzer/internal/types"
)

// ToolPayment records a blockchain payment for tool usage. Uniqueness is
// enforced on tx_hash: a second submission of the same hash is a conflict.
type ToolPayment struct {
	ID        string              `json:"id" db:"id"`
	UserID    string              `json:"userId" db:"user_id"`
	Tool      types.ToolType      `json:"tool" db:"tool"`
	TxHash    string              `json:"txHash" db:"tx_hash"`
	AmountWei string              `json:"amountWei" db:"amount_wei"`
	Status    types.PaymentStatus `json:"status" db:"status"`
	CreatedAt time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time           `json:"updatedAt" db:"updated_at"`
}
