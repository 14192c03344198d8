package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/w-h-a/idc-assistant/retriever"
)

type entry struct {
	passage   retriever.Passage
	embedding []float32
}

type memoryRetriever struct {
	options retriever.Options
	entries []entry
	mtx     sync.RWMutex
}

func (r *memoryRetriever) Index(ctx context.Context, passages []retriever.Passage) error {
	for _, p := range passages {
		vec, err := r.options.Embedder.Embed(ctx, p.Text)
		if err != nil {
			return err
		}

		if len(p.Id) == 0 {
			p.Id = uuid.New().String()
		}

		r.mtx.Lock()
		r.entries = append(r.entries, entry{passage: p, embedding: vec})
		r.mtx.Unlock()
	}

	return nil
}

func (r *memoryRetriever) Search(ctx context.Context, query string, opts ...retriever.SearchOption) ([]retriever.Passage, error) {
	options := retriever.NewSearchOptions(opts...)
	if options.Limit < 1 {
		return nil, nil
	}

	vec, err := r.options.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	candidates := make([]retriever.Passage, 0, len(r.entries))

	for _, e := range r.entries {
		p := e.passage
		p.Score = float32(retriever.CosineSimilarity(vec, e.embedding))
		candidates = append(candidates, p)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > options.Limit {
		candidates = candidates[:options.Limit]
	}

	return candidates, nil
}

func NewRetriever(opts ...retriever.Option) retriever.Retriever {
	options := retriever.NewOptions(opts...)

	if options.Embedder == nil {
		panic("embedder is required")
	}

	return &memoryRetriever{
		options: options,
		entries: []entry{},
		mtx:     sync.RWMutex{},
	}
}
