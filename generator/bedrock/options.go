package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/w-h-a/helpdesk/generator"
)

type clientKey struct{}

type awsConfigKey struct{}

// WithClient injects a ready bedrock runtime client.
func WithClient(c InvokeModelAPI) generator.Option {
	return func(o *generator.Options) {
		o.Context = context.WithValue(o.Context, clientKey{}, c)
	}
}

func ClientFrom(ctx context.Context) (InvokeModelAPI, bool) {
	c, ok := ctx.Value(clientKey{}).(InvokeModelAPI)
	return c, ok
}

func WithAwsConfig(cfg aws.Config) generator.Option {
	return func(o *generator.Options) {
		o.Context = context.WithValue(o.Context, awsConfigKey{}, cfg)
	}
}

func AwsConfigFrom(ctx context.Context) (aws.Config, bool) {
	cfg, ok := ctx.Value(awsConfigKey{}).(aws.Config)
	return cfg, ok
}
