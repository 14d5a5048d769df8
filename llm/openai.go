package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/santiagomed/edpgen/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient answers agent queries with an OpenAI chat completion. It is the
// alternative backend selected with provider: openai.
type OpenAIClient struct {
	openAIClient *openai.Client
	modelName    string
	logger       logger.Logger
}

func NewOpenAIClient(apiKey, modelName, baseURL string, l logger.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		openAIClient: openai.NewClientWithConfig(cfg),
		modelName:    modelName,
		logger:       l.WithField("provider", "openai"),
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, query string) (string, error) {
	resp, err := c.openAIClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.modelName,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: getSystemPrompt(),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: query,
				},
			},
		},
	)

	e := &openai.APIError{}
	if errors.As(err, &e) {
		switch e.HTTPStatusCode {
		case 401:
			return "", &AgentError{StatusCode: 401, Message: "unauthorized: invalid OpenAI API key"}
		case 429:
			return "", &AgentError{StatusCode: 429, Message: "rate limited by OpenAI API"}
		case 500:
			return "", &AgentError{StatusCode: 500, Message: "OpenAI server error"}
		default:
			return "", &AgentError{StatusCode: e.HTTPStatusCode, Message: e.Message}
		}
	}
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned from OpenAI", ErrProtocol)
	}
	c.logger.Debug(fmt.Sprintf("Completion used %d prompt and %d completion tokens", resp.Usage.PromptTokens, resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}
