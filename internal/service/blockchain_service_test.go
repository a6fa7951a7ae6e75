package service

import (
	"context"
	"math/big"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-analyzer/internal/adapter"
	apperrors "github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

type fakeChain struct {
	isContract bool
	balance    *big.Int
	nonce      uint64
}

func (f *fakeChain) IsContract(ctx context.Context, address string) (bool, error) {
	return f.isContract, nil
}

func (f *fakeChain) Balance(ctx context.Context, address string) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeChain) TransactionCount(ctx context.Context, address string) (uint64, error) {
	return f.nonce, nil
}

type fakeRegistry struct {
	verified bool
	txs      []adapter.EtherscanTransaction
}

func (f *fakeRegistry) IsVerified(ctx context.Context, address string) (bool, error) {
	return f.verified, nil
}

func (f *fakeRegistry) FetchRecentTransactions(ctx context.Context, address string, limit int) ([]adapter.EtherscanTransaction, error) {
	return f.txs, nil
}

const testAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestBlockchainServiceAnalyze(t *testing.T) {
	store := newFakeAnalysisStore()
	analyses := NewAnalysisService(store, nil, nil, testLogger())

	chain := &fakeChain{isContract: true, balance: big.NewInt(1e18), nonce: 12}
	registry := &fakeRegistry{verified: true, txs: make([]adapter.EtherscanTransaction, 25)}

	svc := NewBlockchainService(chain, registry, analyses, testLogger())

	record, err := svc.Analyze(context.Background(), "u1", "proj", testAddress)
	require.NoError(t, err)

	assert.Equal(t, types.ToolBlockchain, record.Tool)
	assert.Equal(t, types.StatusCompleted, record.Status)

	decoded, err := record.DecodePayload()
	require.NoError(t, err)
	payload, ok := decoded.(*models.BlockchainPayload)
	require.True(t, ok)

	assert.True(t, payload.IsContract)
	assert.True(t, payload.Verified)
	assert.Equal(t, "1000000000000000000", payload.BalanceWei)
	assert.Equal(t, uint64(12), payload.TxCount)
	assert.Equal(t, 25, payload.RecentTxCount)
	// 20 (contract) + 30 (verified) + 25 (recent activity)
	assert.Equal(t, 75.0, payload.ActivityScore)
}

func TestBlockchainServiceRejectsBadAddress(t *testing.T) {
	svc := NewBlockchainService(&fakeChain{}, &fakeRegistry{}, nil, testLogger())

	_, err := svc.Analyze(context.Background(), "u1", "proj", "not-an-address")

	var catErr *apperrors.CategorizedError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, http.StatusBadRequest, catErr.StatusCode)
}

func TestActivityScoreCaps(t *testing.T) {
	assert.Equal(t, 100.0, activityScore(true, true, 200))
	assert.Equal(t, 0.0, activityScore(false, false, 0))
}
