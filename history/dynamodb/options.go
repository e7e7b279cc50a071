package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/w-h-a/helpdesk/history"
)

type clientKey struct{}

type awsConfigKey struct{}

func WithClient(c TableAPI) history.Option {
	return func(o *history.Options) {
		o.Context = context.WithValue(o.Context, clientKey{}, c)
	}
}

func ClientFrom(ctx context.Context) (TableAPI, bool) {
	c, ok := ctx.Value(clientKey{}).(TableAPI)
	return c, ok
}

func WithAwsConfig(cfg aws.Config) history.Option {
	return func(o *history.Options) {
		o.Context = context.WithValue(o.Context, awsConfigKey{}, cfg)
	}
}

func AwsConfigFrom(ctx context.Context) (aws.Config, bool) {
	cfg, ok := ctx.Value(awsConfigKey{}).(aws.Config)
	return cfg, ok
}
