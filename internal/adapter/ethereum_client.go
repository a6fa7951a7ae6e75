package adapter

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/project-analyzer/internal/logging"
)

// EthereumClient reads on-chain state over JSON-RPC, with a fallback
// endpoint for when the primary is unavailable.
type EthereumClient struct {
	primary  *ethclient.Client
	fallback *ethclient.Client
	logger   *logging.Logger
}

// NewEthereumClient dials the primary RPC endpoint and, if configured, a
// secondary fallback endpoint.
func NewEthereumClient(primaryURL, secondaryURL string, logger *logging.Logger) (*EthereumClient, error) {
	primary, err := ethclient.Dial(primaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial primary RPC %s: %w", primaryURL, err)
	}

	c := &EthereumClient{primary: primary, logger: logger}

	if secondaryURL != "" {
		fallback, err := ethclient.Dial(secondaryURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to dial secondary RPC, continuing with primary only")
		} else {
			c.fallback = fallback
		}
	}

	return c, nil
}

// ValidAddress reports whether s is a well-formed hex address.
func ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// IsContract reports whether the address has deployed code.
func (c *EthereumClient) IsContract(ctx context.Context, address string) (bool, error) {
	var code []byte
	err := c.withFallback(ctx, "eth_getCode", func(client *ethclient.Client) error {
		var err error
		code, err = client.CodeAt(ctx, common.HexToAddress(address), nil)
		return err
	})
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

// Balance returns the address balance in wei at the latest block.
func (c *EthereumClient) Balance(ctx context.Context, address string) (*big.Int, error) {
	var balance *big.Int
	err := c.withFallback(ctx, "eth_getBalance", func(client *ethclient.Client) error {
		var err error
		balance, err = client.BalanceAt(ctx, common.HexToAddress(address), nil)
		return err
	})
	return balance, err
}

// TransactionCount returns the address nonce, which for an EOA is its
// lifetime outgoing transaction count.
func (c *EthereumClient) TransactionCount(ctx context.Context, address string) (uint64, error) {
	var nonce uint64
	err := c.withFallback(ctx, "eth_getTransactionCount", func(client *ethclient.Client) error {
		var err error
		nonce, err = client.NonceAt(ctx, common.HexToAddress(address), nil)
		return err
	})
	return nonce, err
}

func (c *EthereumClient) withFallback(ctx context.Context, method string, fn func(*ethclient.Client) error) error {
	err := fn(c.primary)
	if err == nil {
		return nil
	}
	if c.fallback == nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}

	c.logger.WithError(err).WithField("method", method).
		Warn("Primary RPC failed, retrying on fallback")

	if fbErr := fn(c.fallback); fbErr != nil {
		return fmt.Errorf("%s failed on both endpoints: %w", method, fbErr)
	}
	return nil
}

// Close releases both RPC connections.
func (c *EthereumClient) Close() {
	c.primary.Close()
	if c.fallback != nil {
		c.fallback.Close()
	}
}
