package retriever

import "context"

type Retriever interface {
	Index(ctx context.Context, passages []Passage) error
	Search(ctx context.Context, query string, opts ...SearchOption) ([]Passage, error)
}
