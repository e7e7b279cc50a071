package conversation

import (
	"errors"

	"github.com/w-h-a/helpdesk/generator"
)

var (
	ErrUpstreamStore          = errors.New("upstream store error")
	ErrModelInvocation        = errors.New("model invocation error")
	ErrMalformedModelResponse = generator.ErrMalformedResponse
	ErrUnhandled              = errors.New("unhandled error")
)

// Kind names the taxonomy bucket of err, for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstreamStore):
		return "UpstreamStoreError"
	case errors.Is(err, ErrMalformedModelResponse):
		return "MalformedModelResponse"
	case errors.Is(err, ErrModelInvocation):
		return "ModelInvocationError"
	default:
		return "UnhandledError"
	}
}
