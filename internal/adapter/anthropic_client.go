package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/project-analyzer/internal/circuitbreaker"
	"github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/retry"
)

// AnthropicClient generates project assessments via the Anthropic Messages
// API, guarded by a circuit breaker so a provider outage cannot pile up
// requests.
type AnthropicClient struct {
	client  *anthropic.Client
	model   string
	breaker *circuitbreaker.CircuitBreaker
	logger  *logging.Logger
}

func NewAnthropicClient(apiKey, model string, logger *logging.Logger) *AnthropicClient {
	return &AnthropicClient{
		client:  anthropic.NewClient(apiKey),
		model:   model,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("anthropic"), logger),
		logger:  logger,
	}
}

// Complete sends one user prompt and returns the concatenated text blocks of
// the response. Transient failures are retried with backoff inside the
// circuit breaker.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	var text string

	err := c.breaker.Execute(ctx, func() error {
		result := retry.WithExponentialBackoff(ctx, retry.DefaultRetryConfig(), func(ctx context.Context, attempt int) error {
			resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
				Model:     anthropic.Model(c.model),
				MaxTokens: 2000,
				Messages: []anthropic.Message{
					{
						Role: anthropic.RoleUser,
						Content: []anthropic.MessageContent{
							{
								Type: anthropic.MessagesContentTypeText,
								Text: &prompt,
							},
						},
					},
				},
			})
			if err != nil {
				return err
			}

			var parts []string
			for _, block := range resp.Content {
				if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
					parts = append(parts, *block.Text)
				}
			}
			if len(parts) == 0 {
				return fmt.Errorf("empty completion response")
			}
			text = strings.Join(parts, "\n")
			return nil
		})
		if result.Success {
			return nil
		}
		return result.LastError
	})
	if err != nil {
		return "", errors.NewProviderError("anthropic", err)
	}

	return text, nil
}
