package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

// BlockchainRepository reads the migrated block data. The three tables form
// a strict ownership chain: blocks own transactions, transactions own
// events. Rows are written by the data migration, not by this repository.
type BlockchainRepository struct {
	db *PostgresDB
}

// NewBlockchainRepository creates a new blockchain repository
func NewBlockchainRepository(db *PostgresDB) *BlockchainRepository {
	return &BlockchainRepository{db: db}
}

// ListBlocksByUser retrieves a user's blocks, newest first
func (r *BlockchainRepository) ListBlocksByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Block, error) {
	query := `
		SELECT id, user_id, chain_id, number, hash, parent_hash, timestamp, created_at
		FROM blocks
		WHERE user_id = $1
		ORDER BY number DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool().Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*models.Block
	for rows.Next() {
		var block models.Block
		err := rows.Scan(
			&block.ID,
			&block.UserID,
			&block.ChainID,
			&block.Number,
			&block.Hash,
			&block.ParentHash,
			&block.Timestamp,
			&block.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, &block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocks: %w", err)
	}

	return blocks, nil
}

// GetBlockByID retrieves a block with its transactions and their events
func (r *BlockchainRepository) GetBlockByID(ctx context.Context, id string) (*models.Block, error) {
	query := `
		SELECT id, user_id, chain_id, number, hash, parent_hash, timestamp, created_at
		FROM blocks
		WHERE id = $1
	`

	var block models.Block
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&block.ID,
		&block.UserID,
		&block.ChainID,
		&block.Number,
		&block.Hash,
		&block.ParentHash,
		&block.Timestamp,
		&block.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "BLOCK_NOT_FOUND",
				Message: fmt.Sprintf("block not found: %s", id),
			}
		}
		return nil, fmt.Errorf("failed to get block: %w", err)
	}

	txQuery := `
		SELECT id, block_id, hash, from_address, to_address, value_wei, gas_used, status, created_at
		FROM block_transactions
		WHERE block_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Pool().Query(ctx, txQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list block transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tx models.BlockTransaction
		err := rows.Scan(
			&tx.ID,
			&tx.BlockID,
			&tx.Hash,
			&tx.FromAddress,
			&tx.ToAddress,
			&tx.ValueWei,
			&tx.GasUsed,
			&tx.Status,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block transaction: %w", err)
		}
		block.Transactions = append(block.Transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating block transactions: %w", err)
	}

	for _, tx := range block.Transactions {
		events, err := r.listEvents(ctx, tx.ID)
		if err != nil {
			return nil, err
		}
		tx.Events = events
	}

	return &block, nil
}

// listEvents loads all events for a transaction
func (r *BlockchainRepository) listEvents(ctx context.Context, transactionID string) ([]*models.TransactionEvent, error) {
	query := `
		SELECT id, transaction_id, log_index, address, event_name, data, created_at
		FROM transaction_events
		WHERE transaction_id = $1
		ORDER BY log_index
	`

	rows, err := r.db.Pool().Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction events: %w", err)
	}
	defer rows.Close()

	var events []*models.TransactionEvent
	for rows.Next() {
		var event models.TransactionEvent
		err := rows.Scan(
			&event.ID,
			&event.TransactionID,
			&event.LogIndex,
			&event.Address,
			&event.EventName,
			&event.Data,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction events: %w", err)
	}

	return events, nil
}
