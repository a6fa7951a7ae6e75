package service

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/project-analyzer/internal/adapter"
	"github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

// ChainReader reads on-chain state for an address.
type ChainReader interface {
	IsContract(ctx context.Context, address string) (bool, error)
	Balance(ctx context.Context, address string) (*big.Int, error)
	TransactionCount(ctx context.Context, address string) (uint64, error)
}

// ContractRegistry reports contract verification status and recent activity.
type ContractRegistry interface {
	IsVerified(ctx context.Context, address string) (bool, error)
	FetchRecentTransactions(ctx context.Context, address string, limit int) ([]adapter.EtherscanTransaction, error)
}

// BlockchainService runs the on-chain analysis tool: it inspects a contract
// address and persists the result as a blockchain analysis record.
type BlockchainService struct {
	chain    ChainReader
	registry ContractRegistry
	analyses *AnalysisService
	logger   *logging.Logger
}

func NewBlockchainService(chain ChainReader, registry ContractRegistry, analyses *AnalysisService, logger *logging.Logger) *BlockchainService {
	return &BlockchainService{chain: chain, registry: registry, analyses: analyses, logger: logger}
}

const recentTxWindow = 50

// Analyze inspects the address and stores a completed blockchain analysis.
func (s *BlockchainService) Analyze(ctx context.Context, userID, projectName, address string) (*models.AnalysisRecord, error) {
	if !adapter.ValidAddress(address) {
		return nil, errors.NewInvalidParameterError("contractAddress", "not a valid hex address")
	}

	isContract, err := s.chain.IsContract(ctx, address)
	if err != nil {
		return nil, errors.NewProviderError("ethereum", err)
	}

	balance, err := s.chain.Balance(ctx, address)
	if err != nil {
		return nil, errors.NewProviderError("ethereum", err)
	}

	txCount, err := s.chain.TransactionCount(ctx, address)
	if err != nil {
		return nil, errors.NewProviderError("ethereum", err)
	}

	verified := false
	recentTxs := 0
	if s.registry != nil {
		if v, err := s.registry.IsVerified(ctx, address); err != nil {
			s.logger.WithError(err).Warn("Verification lookup failed, treating as unverified")
		} else {
			verified = v
		}

		txs, err := s.registry.FetchRecentTransactions(ctx, address, recentTxWindow)
		if err != nil {
			s.logger.WithError(err).Warn("Recent transaction lookup failed")
		} else {
			recentTxs = len(txs)
		}
	}

	payload := &models.BlockchainPayload{
		ContractAddress: address,
		IsContract:      isContract,
		BalanceWei:      balance.String(),
		TxCount:         txCount,
		Verified:        verified,
		RecentTxCount:   recentTxs,
		ActivityScore:   activityScore(isContract, verified, recentTxs),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode analysis payload", err)
	}

	return s.analyses.Create(ctx, CreateAnalysisInput{
		UserID:       userID,
		ProjectName:  projectName,
		ProjectURL:   address,
		Tool:         types.ToolBlockchain,
		Payload:      raw,
		OverallScore: payload.ActivityScore,
		Status:       types.StatusCompleted,
	})
}

// activityScore weights verified contracts and recent activity into a 0-100
// score.
func activityScore(isContract, verified bool, recentTxs int) float64 {
	score := 0.0
	if isContract {
		score += 20
	}
	if verified {
		score += 30
	}
	score += float64(recentTxs)
	if score > 100 {
		score = 100
	}
	return score
}
