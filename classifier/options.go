package classifier

import (
	"context"
	"time"
)

// DefaultLabels is the fixed label set for mammogram classification.
var DefaultLabels = []string{
	"normal tissue",
	"suspicious lesion",
	"malignant tumor",
	"artifact / poor quality",
}

type Option func(*Options)

type Options struct {
	ApiKey   string
	Model    string
	Location string
	Labels   []string
	Timeout  time.Duration
	Context  context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithLabels(labels []string) Option {
	return func(o *Options) {
		o.Labels = labels
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Labels:  DefaultLabels,
		Timeout: 45 * time.Second,
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
