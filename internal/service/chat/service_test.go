package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/idc-assistant/classifier"
	"github.com/w-h-a/idc-assistant/conversation"
	"github.com/w-h-a/idc-assistant/conversation/memory"
	"github.com/w-h-a/idc-assistant/generator"
	"github.com/w-h-a/idc-assistant/retriever"
)

type fakeGenerator struct {
	reply        string
	err          error
	calls        int
	lastMessages []generator.Message
}

func (g *fakeGenerator) Generate(ctx context.Context, messages []generator.Message) (string, error) {
	g.calls++
	g.lastMessages = messages
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type fakeClassifier struct {
	result  classifier.Result
	err     error
	calls   int
	lastRef string
}

func (c *fakeClassifier) Classify(ctx context.Context, imageRef string) (classifier.Result, error) {
	c.calls++
	c.lastRef = imageRef
	if c.err != nil {
		return classifier.Result{}, c.err
	}
	return c.result, nil
}

type fakeRetriever struct {
	passages []retriever.Passage
	err      error
	calls    int
}

func (r *fakeRetriever) Index(ctx context.Context, passages []retriever.Passage) error {
	return nil
}

func (r *fakeRetriever) Search(ctx context.Context, query string, opts ...retriever.SearchOption) ([]retriever.Passage, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.passages, nil
}

type failingStore struct {
	loadErr error
	saveErr error
	saved   conversation.Log
}

func (s *failingStore) Load(ctx context.Context) (conversation.Log, error) {
	return nil, s.loadErr
}

func (s *failingStore) Save(ctx context.Context, log conversation.Log) error {
	s.saved = log
	return s.saveErr
}

func (s *failingStore) Clear(ctx context.Context) error {
	return nil
}

func normalResult() classifier.Result {
	return classifier.Result{
		Prediction: "normal tissue",
		Confidence: 0.91,
		Scores: map[string]float64{
			"normal tissue":           0.91,
			"suspicious lesion":       0.05,
			"malignant tumor":         0.03,
			"artifact / poor quality": 0.01,
		},
	}
}

func TestPlainChatPath(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "IDC is invasive ductal carcinoma. I am not a doctor."}
	cls := &fakeClassifier{}

	s := New(store, gen, cls, nil, 0)

	got, err := s.Respond(context.Background(), "What is IDC?")
	require.NoError(t, err)

	assert.NotEmpty(t, got)
	assert.Contains(t, strings.ToLower(got), "not a doctor")
	assert.Equal(t, 0, cls.calls, "plain chat must never invoke the classifier")

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, conversation.RoleHuman, log[0].Role)
	assert.Equal(t, "What is IDC?", log[0].Content)
	assert.Equal(t, conversation.RoleAssistant, log[1].Role)
}

func TestPlainChatSendsFullConversation(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), conversation.Log{
		conversation.NewHumanTurn("Hi"),
		conversation.NewAssistantTurn("Hello. I am not a doctor."),
	}))

	gen := &fakeGenerator{reply: "Sure. I am not a doctor."}
	s := New(store, gen, nil, nil, 0)

	_, err := s.Respond(context.Background(), "Tell me about screening")
	require.NoError(t, err)

	require.Len(t, gen.lastMessages, 4)
	assert.Equal(t, generator.RoleSystem, gen.lastMessages[0].Role)
	assert.Equal(t, generator.RoleUser, gen.lastMessages[1].Role)
	assert.Equal(t, generator.RoleAssistant, gen.lastMessages[2].Role)
	assert.Equal(t, "Tell me about screening", gen.lastMessages[3].Content)
}

func TestAnalyzeCommandParsing(t *testing.T) {
	cases := []struct {
		input string
		ref   string
		ok    bool
	}{
		{"ANALYZE_IMAGE: /tmp/x.png", "/tmp/x.png", true},
		{"analyze_image: /tmp/x.png", "/tmp/x.png", true},
		{"  Analyze_Image:scan.png  ", "scan.png", true},
		{"ANALYZE_IMAGE:", "", true},
		{"What is ANALYZE_IMAGE?", "", false},
		{"tell me about mammograms", "", false},
	}

	for _, c := range cases {
		ref, ok := parseAnalyzeCommand(c.input)
		assert.Equal(t, c.ok, ok, "input: %q", c.input)
		assert.Equal(t, c.ref, ref, "input: %q", c.input)
	}
}

func TestImagePathClassifierFailure(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "unused"}
	cls := &fakeClassifier{err: errors.New("unable to open image: missing.png")}

	s := New(store, gen, cls, nil, 0)

	got, err := s.Respond(context.Background(), "ANALYZE_IMAGE: missing.png")
	require.NoError(t, err)

	assert.Contains(t, got, "Error during image analysis")
	assert.Contains(t, got, "missing.png")
	assert.Equal(t, 0, gen.calls, "no explanation is generated for a failed classification")

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 2, "human + assistant error, no tool_result")
	assert.Equal(t, conversation.RoleAssistant, log[1].Role)
}

func TestImagePathSuccess(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "The scan shows normal tissue, which is reassuring."}
	cls := &fakeClassifier{result: normalResult()}

	s := New(store, gen, cls, nil, 0)

	got, err := s.Respond(context.Background(), "ANALYZE_IMAGE: valid.png")
	require.NoError(t, err)

	assert.Equal(t, "valid.png", cls.lastRef)
	assert.Contains(t, got, "normal tissue")
	assert.Contains(t, strings.ToLower(got), "not a medical professional")

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 3, "human + tool_result + assistant")

	assert.Equal(t, conversation.RoleTool, log[1].Role)
	assert.Equal(t, "analyze_image", log[1].ToolId)

	var stored classifier.Result
	require.NoError(t, json.Unmarshal([]byte(log[1].Content), &stored))
	assert.Equal(t, "normal tissue", stored.Prediction)
	assert.InDelta(t, 0.91, stored.Confidence, 1e-9)

	// the explanation request carries the serialized result
	require.Len(t, gen.lastMessages, 2)
	assert.Contains(t, gen.lastMessages[1].Content, "normal tissue")
}

func TestRagQueryEmptyIndex(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "unused"}
	ret := &fakeRetriever{}

	s := New(store, gen, nil, ret, 0)

	got, err := s.RagQuery(context.Background(), "What causes IDC?")
	require.NoError(t, err)

	assert.Equal(t, NoDocumentsMessage, got)
	assert.Equal(t, 0, gen.calls, "no generation without retrieved context")

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 2)
}

func TestRagQueryCitations(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "IDC begins in the milk ducts [1](https://example.org/idc)."}
	ret := &fakeRetriever{passages: []retriever.Passage{
		{Text: "IDC starts in the ducts.", Source: "idc.pdf", Links: []string{"https://example.org/idc", "https://example.org/more"}},
		{Text: "Risk rises with age.", Source: "risk.pdf"},
	}}

	s := New(store, gen, nil, ret, 0)

	got, err := s.RagQuery(context.Background(), "What causes IDC?")
	require.NoError(t, err)

	// context block: rank-ordered, 1-based markers, first link inline
	ctxBlock := gen.lastMessages[1].Content
	assert.Contains(t, ctxBlock, "IDC starts in the ducts. [1](https://example.org/idc)")
	assert.Contains(t, ctxBlock, "Risk rises with age. [2]")

	// references section lists every link per passage
	assert.Contains(t, got, "**References:**")
	assert.Contains(t, got, "[1]: [https://example.org/idc](https://example.org/idc), [https://example.org/more](https://example.org/more)")
	assert.Contains(t, got, "[2]: No link available")
}

func TestRagQueryRetrieverFailure(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "unused"}
	ret := &fakeRetriever{err: errors.New("index unreachable")}

	s := New(store, gen, nil, ret, 0)

	got, err := s.RagQuery(context.Background(), "What causes IDC?")
	require.NoError(t, err)

	assert.Contains(t, got, "Error retrieving documents")
	assert.Equal(t, 0, gen.calls)
}

func TestRespondEmptyInput(t *testing.T) {
	s := New(memory.NewStore(), &fakeGenerator{}, nil, nil, 0)

	_, err := s.Respond(context.Background(), "   ")

	require.Error(t, err)
}

func TestGeneratorFailureYieldsAssistantTurn(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{err: errors.New("model unavailable")}

	s := New(store, gen, nil, nil, 0)

	got, err := s.Respond(context.Background(), "What is IDC?")
	require.NoError(t, err)

	assert.Contains(t, got, "Error generating reply")

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, conversation.RoleAssistant, log[1].Role)
}

func TestSaveFailureSurfaces(t *testing.T) {
	store := &failingStore{saveErr: errors.New("disk full")}
	gen := &fakeGenerator{reply: "fine. I am not a doctor."}

	s := New(store, gen, nil, nil, 0)

	_, err := s.Respond(context.Background(), "What is IDC?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist conversation")
}

func TestLoadFailureDegradesToEmpty(t *testing.T) {
	store := &failingStore{loadErr: errors.New("corrupt file")}
	gen := &fakeGenerator{reply: "fine. I am not a doctor."}

	s := New(store, gen, nil, nil, 0)

	_, err := s.Respond(context.Background(), "What is IDC?")
	require.NoError(t, err)

	require.Len(t, store.saved, 2, "conversation restarted from empty")
}

func TestAnalyzeImageDirect(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "The scan shows normal tissue."}
	cls := &fakeClassifier{result: normalResult()}

	s := New(store, gen, cls, nil, 0)

	answer, result, err := s.AnalyzeImage(context.Background(), "uploads/mammogram_1.png")
	require.NoError(t, err)

	assert.Equal(t, "normal tissue", result.Prediction)
	assert.Contains(t, answer, "normal tissue")

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Contains(t, log[0].Content, "User uploaded image for analysis: uploads/mammogram_1.png")
}

func TestAnalyzeImageDirectFailureAppendsNothing(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "unused"}
	cls := &fakeClassifier{err: errors.New("unable to open image")}

	s := New(store, gen, cls, nil, 0)

	_, _, err := s.AnalyzeImage(context.Background(), "missing.png")
	require.Error(t, err)

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestHistoryFiltersAndSanitizes(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), conversation.Log{
		conversation.NewHumanTurn("ANALYZE_IMAGE: scan.png"),
		conversation.NewToolTurn(`{"prediction":"normal tissue"}`, "analyze_image"),
		conversation.NewAssistantTurn("Thought: explain simply\nAll clear. I am not a doctor."),
	}))

	s := New(store, &fakeGenerator{}, nil, nil, 0)

	turns, err := s.History(context.Background())
	require.NoError(t, err)

	require.Len(t, turns, 2, "tool turns are not user-visible")
	assert.Equal(t, conversation.RoleHuman, turns[0].Role)
	assert.NotContains(t, turns[1].Content, "Thought:")
	assert.Contains(t, turns[1].Content, "All clear.")
}

func TestClear(t *testing.T) {
	store := memory.NewStore()
	gen := &fakeGenerator{reply: "fine. I am not a doctor."}

	s := New(store, gen, nil, nil, 0)

	_, err := s.Respond(context.Background(), "What is IDC?")
	require.NoError(t, err)

	require.NoError(t, s.Clear(context.Background()))

	log, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, log)
}
