package llm

import (
	"context"
	"fmt"
	"net/http"

	openrouter "github.com/revrost/go-openrouter"

	coreconfig "github.com/m3rciful/lunabot/core/config"
)

type openRouterGateway struct {
	client *openrouter.Client
	model  string
}

// NewOpenRouter returns a Gateway backed by the native OpenRouter client.
func NewOpenRouter(cfg coreconfig.LLMConfig, httpClient *http.Client) Gateway {
	conf := openrouter.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		conf.HTTPClient = httpClient
	}
	conf.XTitle = cfg.AppTitle
	conf.HttpReferer = cfg.AppReferer
	return &openRouterGateway{client: openrouter.NewClientWithConfig(*conf), model: cfg.Model}
}

func (g *openRouterGateway) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	messages := make([]openrouter.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openrouter.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: openrouter.Content{Text: m.Content},
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: openrouter completion: %w", err)
	}
	texts := make([]string, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		texts = append(texts, c.Message.Content.Text)
	}
	return firstChoice(texts)
}
