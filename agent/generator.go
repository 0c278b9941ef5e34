package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
)

// Generator produces the assistant reply for one turn from the system
// prompt, the assembled context text and the raw user text.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, contextText, userText string) (string, error)
}

// StubGenerator is a deterministic offline generator. It echoes the
// question back in a fixed shape so tests and local runs work without
// API credentials.
type StubGenerator struct{}

func (StubGenerator) Generate(_ context.Context, systemPrompt, _, userText string) (string, error) {
	return fmt.Sprintf(
		"%s\n\nI used the provided context blocks. Here's my response:\n- You asked: %s\n- I will answer in line with the tone rules and your recent context.\n\nAnswer:\n%s",
		systemPrompt,
		userText,
		userText,
	), nil
}

// AnthropicGenerator calls the Messages API. The context text travels as
// a separate user block ahead of the actual question so the model sees
// memory and query as distinct inputs.
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicGenerator(client *anthropic.Client, model string, maxTokens int64) *AnthropicGenerator {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &AnthropicGenerator{client: client, model: model, maxTokens: maxTokens}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, systemPrompt, contextText, userText string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(contextText),
				anthropic.NewTextBlock(userText),
			),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		log.Printf("[AGENT] Claude API error: %v", err)
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var textResponse string
	for _, block := range resp.Content {
		if block.Type == "text" {
			textResponse += block.Text
		}
	}
	return textResponse, nil
}
