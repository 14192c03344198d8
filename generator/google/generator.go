package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/idc-assistant/generator"
	genaiopt "google.golang.org/api/option"
)

type googleGenerator struct {
	options generator.Options
	client  *genai.Client
}

func (g *googleGenerator) Generate(ctx context.Context, messages []generator.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("messages are required")
	}

	model := g.client.GenerativeModel(g.options.Model)
	model.SetTemperature(g.options.Temperature)
	model.SetMaxOutputTokens(int32(g.options.MaxTokens))

	var prompt strings.Builder
	for _, m := range messages {
		if m.Role == generator.RoleSystem {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
			continue
		}
		prompt.WriteString(fmt.Sprintf("[%s]: %s\n", m.Role, m.Content))
	}

	rsp, err := model.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		return "", err
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from model")
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	result := b.String()
	if len(result) == 0 {
		return "", errors.New("no response from model")
	}

	return result, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &googleGenerator{
		options: options,
	}

	client, err := genai.NewClient(
		context.Background(),
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		panic(err)
	}

	g.client = client

	return g
}
