package assistant

import (
	"context"

	"github.com/w-h-a/idc-assistant/classifier"
	"github.com/w-h-a/idc-assistant/conversation"
	"github.com/w-h-a/idc-assistant/generator"
	"github.com/w-h-a/idc-assistant/internal/service/chat"
	"github.com/w-h-a/idc-assistant/retriever"
)

// Assistant is the top-level entry point. It wraps the chat service with a
// stable API for the HTTP server and the CLI.
type Assistant struct {
	chat *chat.Service
}

func (a *Assistant) Respond(ctx context.Context, message string) (string, error) {
	return a.chat.Respond(ctx, message)
}

func (a *Assistant) AnalyzeImage(ctx context.Context, imageRef string) (string, classifier.Result, error) {
	return a.chat.AnalyzeImage(ctx, imageRef)
}

func (a *Assistant) RagQuery(ctx context.Context, question string) (string, error) {
	return a.chat.RagQuery(ctx, question)
}

func (a *Assistant) History(ctx context.Context) ([]conversation.Turn, error) {
	return a.chat.History(ctx)
}

func (a *Assistant) Clear(ctx context.Context) error {
	return a.chat.Clear(ctx)
}

func New(
	store conversation.Store,
	generator generator.Generator,
	classifier classifier.Classifier,
	retriever retriever.Retriever,
	searchLimit int,
) *Assistant {
	chat := chat.New(
		store,
		generator,
		classifier,
		retriever,
		searchLimit,
	)

	return &Assistant{
		chat: chat,
	}
}
