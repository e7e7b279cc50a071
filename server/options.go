package server

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Context      context.Context
}

func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = d
	}
}

// WithWriteTimeout must exceed the completion service timeout or slow
// answers are cut off mid-response.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.WriteTimeout = d
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Address:      ":8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		Context:      context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
