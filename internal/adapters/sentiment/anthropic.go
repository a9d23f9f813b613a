package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const DefaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicClassifier asks a Claude model to label a batch of reviews.
type AnthropicClassifier struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClassifier(apiKey, model string, opts ...option.RequestOption) (*AnthropicClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClassifier{client: anthropic.NewClient(opts...), model: model}, nil
}

func (c *AnthropicClassifier) Classify(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	start := time.Now()
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(64 + 48*len(texts)),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(texts))),
		},
	})
	if err != nil {
		observability.ObserveExternal("anthropic", "messages", 0, time.Since(start))
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	observability.ObserveExternal("anthropic", "messages", 200, time.Since(start))

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return parseLLMResponse(b.String(), len(texts))
}
