package generator

import (
	"context"
	"errors"
)

// ErrMalformedResponse is returned when the completion service answers
// without the text segment the generator expects.
var ErrMalformedResponse = errors.New("malformed model response")

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
