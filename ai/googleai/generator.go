package googleai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/poiesic/pitwall/ai"
	"github.com/poiesic/pitwall/core"
)

// Generator implements ai.Generator using a Gemini chat model.
type Generator struct {
	llm         llms.Model
	temperature float64
	logger      *slog.Logger
}

func newGenerator(client *googleai.GoogleAI, config *ai.Config) *Generator {
	return &Generator{
		llm:         client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "googleai-generator"),
	}
}

// NewGenerator creates a standalone Gemini generator.
func NewGenerator(ctx context.Context, config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(ctx, config)
	if err != nil {
		return nil, err
	}
	return newGenerator(client, config), nil
}

// Generate sends the conversation to the model and returns the first candidate's text.
func (g *Generator) Generate(ctx context.Context, messages []core.ChatMessage) (string, error) {
	content, err := toMessageContent(messages)
	if err != nil {
		return "", err
	}

	var opts []llms.CallOption
	if g.temperature > 0 {
		opts = append(opts, llms.WithTemperature(g.temperature))
	}

	g.logger.Debug("generating completion", "messages", len(messages))
	resp, err := g.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		g.logger.Error("completion failed", "err", err)
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

func toMessageContent(messages []core.ChatMessage) ([]llms.MessageContent, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var kind llms.ChatMessageType
		switch msg.Role {
		case core.RoleSystem:
			kind = llms.ChatMessageTypeSystem
		case core.RoleUser:
			kind = llms.ChatMessageTypeHuman
		case core.RoleAssistant:
			kind = llms.ChatMessageTypeAI
		default:
			return nil, fmt.Errorf("%w: %q", core.ErrInvalidRole, msg.Role)
		}
		content = append(content, llms.TextParts(kind, msg.Content))
	}
	return content, nil
}
