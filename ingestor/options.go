package ingestor

import "context"

type Option func(*Options)

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Context      context.Context
}

func WithChunkSize(size int) Option {
	return func(o *Options) {
		o.ChunkSize = size
	}
}

func WithChunkOverlap(overlap int) Option {
	return func(o *Options) {
		o.ChunkOverlap = overlap
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		ChunkSize:    800,
		ChunkOverlap: 100,
		Context:      context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
