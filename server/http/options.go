package http

import (
	"context"
	"net/http"

	"github.com/w-h-a/helpdesk/server"
)

type middlewareKey struct{}

type metricsKey struct{}

func WithMiddleware(ms ...func(h http.Handler) http.Handler) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, middlewareKey{}, ms)
	}
}

func MiddlewareFrom(ctx context.Context) ([]func(h http.Handler) http.Handler, bool) {
	ms, ok := ctx.Value(middlewareKey{}).([]func(h http.Handler) http.Handler)
	return ms, ok
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, metricsKey{}, h)
	}
}

func MetricsHandlerFrom(ctx context.Context) (http.Handler, bool) {
	h, ok := ctx.Value(metricsKey{}).(http.Handler)
	return h, ok
}
