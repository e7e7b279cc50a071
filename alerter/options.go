package alerter

import "context"

type Option func(*Options)

type Options struct {
	Destination string
	Subject     string
	Context     context.Context
}

// WithDestination sets where alerts go, e.g. an SNS topic ARN.
func WithDestination(dest string) Option {
	return func(o *Options) {
		o.Destination = dest
	}
}

func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
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
