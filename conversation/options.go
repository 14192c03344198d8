package conversation

import "context"

type Option func(*Options)

type Options struct {
	Location string
	Uploads  string
	Context  context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithUploads(dir string) Option {
	return func(o *Options) {
		o.Uploads = dir
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
