package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/w-h-a/helpdesk"
	"github.com/w-h-a/helpdesk/internal/app"
	"github.com/w-h-a/helpdesk/internal/config"
)

func main() {
	// Lambda has no argv; configuration comes from the environment
	cfg, err := config.Load(nil)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if _, err := app.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat); err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to build handler", "error", err)
		os.Exit(1)
	}

	lambda.Start(proxy(a.Handler))
}

func proxy(h *helpdesk.Handler) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		body := req.Body
		if req.IsBase64Encoded {
			bs, err := base64.StdEncoding.DecodeString(body)
			if err != nil {
				slog.WarnContext(ctx, "failed to decode base64 body", "error", err)
			} else {
				body = string(bs)
			}
		}

		rsp := h.Handle(ctx, helpdesk.Request{Body: body})

		return events.APIGatewayProxyResponse{
			StatusCode: rsp.StatusCode,
			Headers:    rsp.Headers,
			Body:       rsp.Body,
		}, nil
	}
}
