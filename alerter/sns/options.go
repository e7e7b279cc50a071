package sns

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/w-h-a/helpdesk/alerter"
)

type clientKey struct{}

type awsConfigKey struct{}

func WithClient(c PublishAPI) alerter.Option {
	return func(o *alerter.Options) {
		o.Context = context.WithValue(o.Context, clientKey{}, c)
	}
}

func ClientFrom(ctx context.Context) (PublishAPI, bool) {
	c, ok := ctx.Value(clientKey{}).(PublishAPI)
	return c, ok
}

func WithAwsConfig(cfg aws.Config) alerter.Option {
	return func(o *alerter.Options) {
		o.Context = context.WithValue(o.Context, awsConfigKey{}, cfg)
	}
}

func AwsConfigFrom(ctx context.Context) (aws.Config, bool) {
	cfg, ok := ctx.Value(awsConfigKey{}).(aws.Config)
	return cfg, ok
}
