package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/w-h-a/helpdesk/generator"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	contentType      = "application/json"
)

type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

type bedrockGenerator struct {
	options generator.Options
	client  InvokeModelAPI
}

func (g *bedrockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(request{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        g.options.MaxTokens,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal bedrock payload: %w", err)
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.options.Model),
		Body:        payload,
		ContentType: aws.String(contentType),
		Accept:      aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	var rsp response
	if err := json.Unmarshal(out.Body, &rsp); err != nil {
		return "", fmt.Errorf("%w: decode bedrock body: %v", generator.ErrMalformedResponse, err)
	}

	if len(rsp.Content) == 0 || rsp.Content[0].Text == nil {
		return "", fmt.Errorf("%w: bedrock body has no content[0].text", generator.ErrMalformedResponse)
	}

	return *rsp.Content[0].Text, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &bedrockGenerator{
		options: options,
	}

	if c, ok := ClientFrom(options.Context); ok {
		g.client = c
		return g
	}

	cfg, ok := AwsConfigFrom(options.Context)
	if !ok {
		var err error
		cfg, err = awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			detail := "failed to load aws config for bedrock generator"
			slog.ErrorContext(context.Background(), detail, "error", err)
			panic(detail)
		}
	}

	g.client = bedrockruntime.NewFromConfig(cfg)

	return g
}
