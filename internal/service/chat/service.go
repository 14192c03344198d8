package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/w-h-a/idc-assistant/classifier"
	"github.com/w-h-a/idc-assistant/conversation"
	"github.com/w-h-a/idc-assistant/generator"
	"github.com/w-h-a/idc-assistant/retriever"
	"github.com/w-h-a/idc-assistant/sanitizer"
)

const (
	analyzeImagePrefix = "ANALYZE_IMAGE:"
	analyzeImageToolId = "analyze_image"

	// NoDocumentsMessage is returned verbatim when retrieval finds nothing.
	NoDocumentsMessage = "No relevant documents found in the knowledge base."
)

// Service routes a single conversation turn: it decides between the
// plain-chat and image-analysis paths, invokes the collaborators in order,
// appends their outputs to the persisted log, and returns the final
// assistant text. Every handled turn leaves exactly one assistant-visible
// message in the transcript.
type Service struct {
	store       conversation.Store
	generator   generator.Generator
	classifier  classifier.Classifier
	retriever   retriever.Retriever
	searchLimit int

	// one in-flight turn per conversation log; the last-save-wins race of
	// concurrent turns is not acceptable here
	mtx sync.Mutex
}

func (s *Service) Respond(ctx context.Context, userInput string) (string, error) {
	if len(strings.TrimSpace(userInput)) == 0 {
		return "", errors.New("user input is required")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	log := s.load(ctx)
	log = append(log, conversation.NewHumanTurn(userInput))

	if ref, ok := parseAnalyzeCommand(userInput); ok {
		return s.analyzeTurn(ctx, log, ref)
	}

	reply, err := s.generator.Generate(ctx, chatMessages(log))
	if err != nil {
		return s.finishTurn(ctx, log, fmt.Sprintf("Error generating reply: %v", err))
	}

	return s.finishTurn(ctx, log, sanitizer.Sanitize(reply))
}

// AnalyzeImage runs the classify-then-explain pipeline for an already
// uploaded image and records the exchange in the log. Unlike the command
// path, a classification failure here is returned to the caller before
// anything is appended.
func (s *Service) AnalyzeImage(ctx context.Context, imageRef string) (string, classifier.Result, error) {
	if s.classifier == nil {
		return "", classifier.Result{}, errors.New("image analysis is not configured")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	result, err := s.classifier.Classify(ctx, imageRef)
	if err != nil {
		return "", classifier.Result{}, fmt.Errorf("image analysis failed: %w", err)
	}

	serialized, err := json.Marshal(result)
	if err != nil {
		return "", classifier.Result{}, err
	}

	log := s.load(ctx)
	log = append(log, conversation.NewHumanTurn(fmt.Sprintf("User uploaded image for analysis: %s", imageRef)))
	log = append(log, conversation.NewToolTurn(string(serialized), analyzeImageToolId))

	answer, err := s.explain(ctx, string(serialized))
	if err != nil {
		answer = fmt.Sprintf("Error during image analysis: %v", err)
	}

	answer, err = s.finishTurn(ctx, log, answer)
	if err != nil {
		return "", classifier.Result{}, err
	}

	return answer, result, nil
}

// RagQuery answers a question from the ingested document index with inline
// numbered citations and a References section. It is selected explicitly by
// the caller, never inferred from the message text.
func (s *Service) RagQuery(ctx context.Context, question string) (string, error) {
	if len(strings.TrimSpace(question)) == 0 {
		return "", errors.New("question is required")
	}

	if s.retriever == nil {
		return "", errors.New("retrieval is not configured")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	log := s.load(ctx)
	log = append(log, conversation.NewHumanTurn(question))

	passages, err := s.retriever.Search(ctx, question, retriever.WithSearchLimit(s.searchLimit))
	if err != nil {
		return s.finishTurn(ctx, log, fmt.Sprintf("Error retrieving documents: %v", err))
	}

	if len(passages) == 0 {
		return s.finishTurn(ctx, log, NoDocumentsMessage)
	}

	contextParts := make([]string, 0, len(passages))
	for i, p := range passages {
		citation := fmt.Sprintf("[%d]", i+1)
		if len(p.Links) > 0 {
			citation = fmt.Sprintf("[%d](%s)", i+1, p.Links[0])
		}
		contextParts = append(contextParts, strings.TrimSpace(p.Text)+" "+citation)
	}

	messages := []generator.Message{
		{Role: generator.RoleSystem, Content: ragSystemPrompt},
		{Role: generator.RoleUser, Content: fmt.Sprintf("Question: %s\n\nContext:\n%s", question, strings.Join(contextParts, "\n\n"))},
	}

	answer, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return s.finishTurn(ctx, log, fmt.Sprintf("Error generating reply: %v", err))
	}

	return s.finishTurn(ctx, log, answer+"\n\n---\n**References:**\n"+references(passages))
}

// History returns the user-visible transcript: human and assistant turns
// only, with assistant content sanitized.
func (s *Service) History(ctx context.Context) ([]conversation.Turn, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	log := s.load(ctx)

	turns := make([]conversation.Turn, 0, len(log))
	for _, turn := range log {
		switch turn.Role {
		case conversation.RoleHuman:
			turns = append(turns, turn)
		case conversation.RoleAssistant:
			turns = append(turns, conversation.NewAssistantTurn(sanitizer.Sanitize(turn.Content)))
		}
	}

	return turns, nil
}

func (s *Service) Clear(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.store.Clear(ctx)
}

// analyzeTurn handles the ANALYZE_IMAGE command path. A classification
// failure ends the turn with a single assistant error message and no
// tool_result turn; the session itself survives.
func (s *Service) analyzeTurn(ctx context.Context, log conversation.Log, imageRef string) (string, error) {
	if s.classifier == nil {
		return s.finishTurn(ctx, log, "Error during image analysis: image analysis is not configured")
	}

	result, err := s.classifier.Classify(ctx, imageRef)
	if err != nil {
		return s.finishTurn(ctx, log, fmt.Sprintf("Error during image analysis: %v", err))
	}

	serialized, err := json.Marshal(result)
	if err != nil {
		return s.finishTurn(ctx, log, fmt.Sprintf("Error during image analysis: %v", err))
	}

	log = append(log, conversation.NewToolTurn(string(serialized), analyzeImageToolId))

	answer, err := s.explain(ctx, string(serialized))
	if err != nil {
		return s.finishTurn(ctx, log, fmt.Sprintf("Error during image analysis: %v", err))
	}

	return s.finishTurn(ctx, log, answer)
}

func (s *Service) explain(ctx context.Context, serializedResult string) (string, error) {
	messages := []generator.Message{
		{Role: generator.RoleSystem, Content: explainSystemPrompt},
		{Role: generator.RoleUser, Content: fmt.Sprintf("Image analysis result: %s\n\nExplain this in simple language.", serializedResult)},
	}

	explanation, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return "", err
	}

	return sanitizer.Sanitize(explanation), nil
}

// finishTurn appends the terminal assistant turn and persists the whole log.
// A save failure is surfaced to the caller; the response is not silently
// dropped.
func (s *Service) finishTurn(ctx context.Context, log conversation.Log, text string) (string, error) {
	log = append(log, conversation.NewAssistantTurn(text))

	if err := s.store.Save(ctx, log); err != nil {
		return "", fmt.Errorf("failed to persist conversation: %w", err)
	}

	return text, nil
}

func (s *Service) load(ctx context.Context) conversation.Log {
	log, err := s.store.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to load conversation; starting empty", "error", err)
		return conversation.Log{}
	}
	return log
}

// parseAnalyzeCommand recognizes the ANALYZE_IMAGE: prefix, ignoring case
// and surrounding whitespace, and extracts the image reference after the
// first colon.
func parseAnalyzeCommand(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)

	if !strings.HasPrefix(strings.ToUpper(trimmed), analyzeImagePrefix) {
		return "", false
	}

	return strings.TrimSpace(trimmed[len(analyzeImagePrefix):]), true
}

func chatMessages(log conversation.Log) []generator.Message {
	messages := make([]generator.Message, 0, len(log)+1)
	messages = append(messages, generator.Message{Role: generator.RoleSystem, Content: chatSystemPrompt})

	for _, turn := range log {
		switch turn.Role {
		case conversation.RoleHuman:
			messages = append(messages, generator.Message{Role: generator.RoleUser, Content: turn.Content})
		case conversation.RoleAssistant:
			messages = append(messages, generator.Message{Role: generator.RoleAssistant, Content: turn.Content})
		case conversation.RoleTool:
			messages = append(messages, generator.Message{Role: generator.RoleUser, Content: fmt.Sprintf("Tool result (%s): %s", turn.ToolId, turn.Content)})
		}
	}

	return messages
}

func references(passages []retriever.Passage) string {
	lines := make([]string, 0, len(passages))

	for i, p := range passages {
		if len(p.Links) == 0 {
			lines = append(lines, fmt.Sprintf("[%d]: No link available", i+1))
			continue
		}

		links := make([]string, 0, len(p.Links))
		for _, link := range p.Links {
			links = append(links, fmt.Sprintf("[%s](%s)", link, link))
		}

		lines = append(lines, fmt.Sprintf("[%d]: %s", i+1, strings.Join(links, ", ")))
	}

	return strings.Join(lines, "\n")
}

func New(
	store conversation.Store,
	generator generator.Generator,
	classifier classifier.Classifier,
	retriever retriever.Retriever,
	searchLimit int,
) *Service {
	if store == nil {
		panic("conversation store is required")
	}

	if generator == nil {
		panic("generator is required")
	}

	if searchLimit <= 0 {
		searchLimit = 5
	}

	return &Service{
		store:       store,
		generator:   generator,
		classifier:  classifier,
		retriever:   retriever,
		searchLimit: searchLimit,
	}
}
