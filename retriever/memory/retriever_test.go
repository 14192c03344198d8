package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/idc-assistant/retriever"
)

// fakeEmbedder maps known strings to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func newRetrieverForTest(t *testing.T) retriever.Retriever {
	t.Helper()

	emb := &fakeEmbedder{vectors: map[string][]float32{
		"what is idc":          {1, 0, 0},
		"idc is breast cancer": {0.9, 0.1, 0},
		"screening guidelines": {0.1, 0.9, 0},
		"unrelated trivia":     {0, 0, 1},
	}}

	return NewRetriever(retriever.WithEmbedder(emb))
}

func TestSearchRanksBySimilarity(t *testing.T) {
	r := newRetrieverForTest(t)
	ctx := context.Background()

	require.NoError(t, r.Index(ctx, []retriever.Passage{
		{Text: "unrelated trivia", Source: "misc.pdf"},
		{Text: "idc is breast cancer", Source: "idc.pdf", Links: []string{"https://example.org/idc"}},
		{Text: "screening guidelines", Source: "screening.pdf"},
	}))

	passages, err := r.Search(ctx, "what is idc", retriever.WithSearchLimit(2))
	require.NoError(t, err)

	require.Len(t, passages, 2)
	assert.Equal(t, "idc is breast cancer", passages[0].Text)
	assert.Equal(t, []string{"https://example.org/idc"}, passages[0].Links)
	assert.Greater(t, passages[0].Score, passages[1].Score)
}

func TestSearchEmptyIndex(t *testing.T) {
	r := newRetrieverForTest(t)

	passages, err := r.Search(context.Background(), "what is idc")

	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestSearchDefaultLimit(t *testing.T) {
	r := newRetrieverForTest(t)
	ctx := context.Background()

	var passages []retriever.Passage
	for range 8 {
		passages = append(passages, retriever.Passage{Text: "idc is breast cancer"})
	}
	require.NoError(t, r.Index(ctx, passages))

	got, err := r.Search(ctx, "what is idc")
	require.NoError(t, err)

	assert.Len(t, got, 5)
}

func TestIndexAssignsIds(t *testing.T) {
	r := newRetrieverForTest(t)
	ctx := context.Background()

	require.NoError(t, r.Index(ctx, []retriever.Passage{{Text: "idc is breast cancer"}}))

	got, err := r.Search(ctx, "what is idc", retriever.WithSearchLimit(1))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].Id)
}
