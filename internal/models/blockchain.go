package models

import (
	"encoding/json"
	"time"
)

// Block represents an indexed block. Blocks own transactions which own
// events; writes must preserve that order since they are not transactional.
type Block struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	ChainID    int64     `json:"chainId" db:"chain_id"`
	Number     uint64    `json:"number" db:"number"`
	Hash       string    `json:"hash" db:"hash"`
	ParentHash string    `json:"parentHash" db:"parent_hash"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`

	Transactions []*BlockTransaction `json:"transactions,omitempty" db:"-"`
}

// BlockTransaction represents one transaction within an indexed block
type BlockTransaction struct {
	ID          string    `json:"id" db:"id"`
	BlockID     string    `json:"blockId" db:"block_id"`
	Hash        string    `json:"hash" db:"hash"`
	FromAddress string    `json:"fromAddress" db:"from_address"`
	ToAddress   *string   `json:"toAddress,omitempty" db:"to_address"`
	ValueWei    string    `json:"valueWei" db:"value_wei"`
	GasUsed     uint64    `json:"gasUsed" db:"gas_used"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	Events []*TransactionEvent `json:"events,omitempty" db:"-"`
}

// TransactionEvent represents a log event emitted by a transaction
type TransactionEvent struct {
	ID            string          `json:"id" db:"id"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	LogIndex      int             `json:"logIndex" db:"log_index"`
	Address       string          `json:"address" db:"address"`
	EventName     string          `json:"eventName" db:"event_name"`
	Data          json.RawMessage `json:"data,omitempty" db:"data"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
