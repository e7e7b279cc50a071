package logger

import (
	"context"
	"log/slog"

	"github.com/w-h-a/helpdesk/alerter"
)

type loggerAlerter struct {
	options alerter.Options
	logger  *slog.Logger
}

func (a *loggerAlerter) Publish(ctx context.Context, message string) error {
	a.logger.ErrorContext(ctx, "alert", "destination", a.options.Destination, "message", message)
	return nil
}

// NewAlerter writes alerts to the default slog logger. Useful where no
// notification channel is provisioned.
func NewAlerter(opts ...alerter.Option) alerter.Alerter {
	options := alerter.NewOptions(opts...)

	return &loggerAlerter{
		options: options,
		logger:  slog.Default(),
	}
}
