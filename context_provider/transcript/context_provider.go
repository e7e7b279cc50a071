package transcript

import (
	"context"
	"fmt"
	"strings"

	contextprovider "github.com/w-h-a/helpdesk/context_provider"
	"github.com/w-h-a/helpdesk/history"
)

type transcriptContextProvider struct {
	options contextprovider.Options
}

// Context concatenates every stored turn in the order the store returned
// them. There is no size bound.
func (p *transcriptContextProvider) Context(ctx context.Context, userId string) (string, error) {
	turns, err := p.options.History.List(ctx, userId)
	if err != nil {
		return "", err
	}

	return Format(turns), nil
}

// Format renders each turn as a two line block and joins the blocks with
// a newline.
func Format(turns []history.Turn) string {
	blocks := make([]string, 0, len(turns))
	for _, turn := range turns {
		blocks = append(blocks, fmt.Sprintf("User: %s\nBot: %s", turn.Message, turn.Response))
	}
	return strings.Join(blocks, "\n")
}

func NewContextProvider(opts ...contextprovider.Option) contextprovider.ContextProvider {
	options := contextprovider.NewOptions(opts...)

	if options.History == nil {
		panic("history is required")
	}

	return &transcriptContextProvider{
		options: options,
	}
}
