package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/idc-assistant/generator"
)

// openAIGenerator speaks the OpenAI chat completions protocol. With a custom
// base URL it also reaches OpenAI-compatible hosts such as the Hugging Face
// router.
type openAIGenerator struct {
	options generator.Options
	client  *openai.Client
}

func (g *openAIGenerator) Generate(ctx context.Context, messages []generator.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("messages are required")
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))

	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case generator.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case generator.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       g.options.Model,
		Messages:    chatMessages,
		Temperature: g.options.Temperature,
		MaxTokens:   g.options.MaxTokens,
	}

	rsp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", errors.New("no response from model")
	}

	return rsp.Choices[0].Message.Content, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &openAIGenerator{
		options: options,
	}

	config := openai.DefaultConfig(options.ApiKey)
	if len(options.BaseUrl) > 0 {
		config.BaseURL = options.BaseUrl
	}

	client := openai.NewClientWithConfig(config)

	g.client = client

	return g
}
