package generator

import "context"

const (
	defaultMaxTokens = 512
)

type Option func(*Options)

type Options struct {
	ApiKey    string
	Model     string
	Location  string
	MaxTokens int
	Context   context.Context
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

// WithLocation overrides the provider's base URL.
func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxTokens: defaultMaxTokens,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxTokens <= 0 {
		options.MaxTokens = defaultMaxTokens
	}
	return options
}
