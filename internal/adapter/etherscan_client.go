package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// EtherscanClient queries the Etherscan API for contract verification status
// and recent transaction activity.
type EtherscanClient struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	rateLimiter *rateLimiter // single global rate limiter (5 req/sec for free tier)
}

// rateLimiter implements a simple token bucket rate limiter
type rateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(requestsPerSecond float64) *rateLimiter {
	return &rateLimiter{
		tokens:     requestsPerSecond, // start full
		maxTokens:  requestsPerSecond,
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefill = now

	if r.tokens < 1 {
		waitTime := time.Duration((1 - r.tokens) / r.refillRate * float64(time.Second))
		r.mu.Unlock()
		time.Sleep(waitTime)
		r.mu.Lock()
		r.tokens = 0
		r.lastRefill = time.Now()
	} else {
		r.tokens--
	}
}

// EtherscanTransaction represents one transaction from the Etherscan tx list
type EtherscanTransaction struct {
	Hash        string `json:"hash"`
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	IsError     string `json:"isError"`
}

// ContractSource describes a contract's verification record
type ContractSource struct {
	ContractName    string `json:"ContractName"`
	CompilerVersion string `json:"CompilerVersion"`
	SourceCode      string `json:"SourceCode"`
}

// NewEtherscanClient creates a new Etherscan API client
func NewEtherscanClient(apiKey string) *EtherscanClient {
	// Free tier: 5 requests per second
	const requestsPerSecond = 5.0

	return &EtherscanClient{
		apiKey:      apiKey,
		baseURL:     "https://api.etherscan.io/v2/api",
		client:      &http.Client{Timeout: 30 * time.Second},
		rateLimiter: newRateLimiter(requestsPerSecond),
	}
}

// IsVerified reports whether a contract has verified source code on Etherscan.
func (c *EtherscanClient) IsVerified(ctx context.Context, address string) (bool, error) {
	if c.apiKey == "" {
		return false, fmt.Errorf("etherscan API key not configured")
	}

	url := fmt.Sprintf("%s?chainid=1&module=contract&action=getsourcecode&address=%s&apikey=%s",
		c.baseURL, address, c.apiKey)

	var resp struct {
		Status  string           `json:"status"`
		Message string           `json:"message"`
		Result  []ContractSource `json:"result"`
	}
	if err := c.doRequest(ctx, url, &resp); err != nil {
		return false, err
	}
	if len(resp.Result) == 0 {
		return false, nil
	}
	return resp.Result[0].SourceCode != "", nil
}

// FetchRecentTransactions returns the most recent transactions for an address,
// newest first, capped at limit.
func (c *EtherscanClient) FetchRecentTransactions(ctx context.Context, address string, limit int) ([]EtherscanTransaction, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("etherscan API key not configured")
	}

	url := fmt.Sprintf("%s?chainid=1&module=account&action=txlist&address=%s&page=1&offset=%d&sort=desc&apikey=%s",
		c.baseURL, address, limit, c.apiKey)

	var resp struct {
		Status  string                 `json:"status"`
		Message string                 `json:"message"`
		Result  []EtherscanTransaction `json:"result"`
	}
	if err := c.doRequest(ctx, url, &resp); err != nil {
		return nil, err
	}

	// Status "0" with "No transactions found" is an empty result, not an error
	if resp.Status != "1" && resp.Message != "No transactions found" {
		return nil, fmt.Errorf("etherscan error: %s", resp.Message)
	}
	return resp.Result, nil
}

func (c *EtherscanClient) doRequest(ctx context.Context, url string, out any) error {
	c.rateLimiter.wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("etherscan request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("etherscan returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode etherscan response: %w", err)
	}
	return nil
}
