package history

import "context"

type Option func(*Options)

type Options struct {
	Location string
	Table    string
	Context  context.Context
}

// WithLocation sets the store address, e.g. a postgres DSN.
func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithTable(table string) Option {
	return func(o *Options) {
		o.Table = table
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Table:   "conversation_history",
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
