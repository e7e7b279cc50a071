package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/helpdesk/generator"
	genaiopt "google.golang.org/api/option"
)

type googleGenerator struct {
	options generator.Options
	client  *genai.Client
}

func (g *googleGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.options.Model)
	model.SetMaxOutputTokens(int32(g.options.MaxTokens))

	rsp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	return answerFrom(rsp)
}

// answerFrom takes the first part of the first candidate, which must be
// non-blank text.
func answerFrom(rsp *genai.GenerateContentResponse) (string, error) {
	if rsp == nil || len(rsp.Candidates) == 0 || rsp.Candidates[0] == nil || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates from Google", generator.ErrMalformedResponse)
	}

	text, ok := rsp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok || len(strings.TrimSpace(string(text))) == 0 {
		return "", fmt.Errorf("%w: first part from Google is not text", generator.ErrMalformedResponse)
	}

	return string(text), nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &googleGenerator{
		options: options,
	}

	clientOpts := []genaiopt.ClientOption{
		genaiopt.WithAPIKey(options.ApiKey),
	}

	if len(options.Location) > 0 {
		clientOpts = append(clientOpts, genaiopt.WithEndpoint(options.Location))
	}

	client, err := genai.NewClient(context.Background(), clientOpts...)
	if err != nil {
		detail := "failed to create google generator client"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	g.client = client

	return g
}
