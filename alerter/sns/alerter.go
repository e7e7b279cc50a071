package sns

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/w-h-a/helpdesk/alerter"
)

type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsAlerter struct {
	options alerter.Options
	client  PublishAPI
}

func (a *snsAlerter) Publish(ctx context.Context, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(a.options.Destination),
		Message:  aws.String(message),
	}

	if len(a.options.Subject) > 0 {
		input.Subject = aws.String(a.options.Subject)
	}

	_, err := a.client.Publish(ctx, input)

	return err
}

func NewAlerter(opts ...alerter.Option) alerter.Alerter {
	options := alerter.NewOptions(opts...)

	if len(strings.TrimSpace(options.Destination)) == 0 {
		detail := "sns alerter requires a topic arn"
		slog.ErrorContext(context.Background(), detail)
		panic(detail)
	}

	a := &snsAlerter{
		options: options,
	}

	if c, ok := ClientFrom(options.Context); ok {
		a.client = c
		return a
	}

	cfg, ok := AwsConfigFrom(options.Context)
	if !ok {
		var err error
		cfg, err = awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			detail := "failed to load aws config for sns alerter"
			slog.ErrorContext(context.Background(), detail, "error", err)
			panic(detail)
		}
	}

	a.client = sns.NewFromConfig(cfg)

	return a
}
