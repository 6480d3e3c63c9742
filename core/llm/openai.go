package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	coreconfig "github.com/m3rciful/lunabot/core/config"
)

type openAIGateway struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns a Gateway for any OpenAI-compatible endpoint, OpenRouter included.
func NewOpenAI(cfg coreconfig.LLMConfig, httpClient *http.Client) Gateway {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		conf.HTTPClient = httpClient
	}
	return &openAIGateway{client: openai.NewClientWithConfig(conf), model: cfg.Model}
}

func (g *openAIGateway) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: openai completion: %w", err)
	}
	texts := make([]string, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		texts = append(texts, c.Message.Content)
	}
	return firstChoice(texts)
}
