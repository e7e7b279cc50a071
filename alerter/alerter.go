package alerter

import "context"

// Alerter publishes a human-readable message to an operator channel.
// Publish is fire-and-forget: a nil error only means the channel accepted it.
type Alerter interface {
	Publish(ctx context.Context, message string) error
}
