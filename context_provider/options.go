package contextprovider

import (
	"context"

	"github.com/w-h-a/helpdesk/history"
)

type Option func(*Options)

type Options struct {
	History history.History
	Context context.Context
}

func WithHistory(h history.History) Option {
	return func(o *Options) {
		o.History = h
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
