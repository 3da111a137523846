package adapter

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/model"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-5"
	defaultClaudeMaxTokens = 1024
)

// Claude is an alternative text-completion backend using the Anthropic API.
type Claude interface {
	interfaces.CompletionService
}

type claudeClient struct {
	client *anthropic.Client
}

// NewClaude creates a new Claude API client
func NewClaude(apiKey string) Claude {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &claudeClient{
		client: &client,
	}
}

// Complete implements interfaces.CompletionService. System-role messages
// become the system prompt; user/assistant turns are passed through in order.
func (c *claudeClient) Complete(ctx context.Context, messages []model.Message, opts interfaces.CompletionOptions) (string, error) {
	var system []string
	var params []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, msg.Content)
		case model.RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	if len(params) == 0 {
		return "", goerr.New("no messages to complete")
	}

	targetModel := defaultClaudeModel
	if opts.Model != "" {
		targetModel = opts.Model
	}
	maxTokens := defaultClaudeMaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(targetModel),
		MaxTokens: int64(maxTokens),
		Messages:  params,
	}
	if len(system) > 0 {
		req.System = []anthropic.TextBlockParam{
			{Text: strings.Join(system, "\n\n")},
		}
	}
	if opts.Temperature > 0 {
		req.Temperature = anthropic.Float(opts.Temperature)
	}

	message, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to call Claude API")
	}

	var sb strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			sb.WriteString(content.AsText().Text)
		}
	}

	if sb.Len() == 0 {
		return "", goerr.New("no text content in Claude response")
	}

	return sb.String(), nil
}
