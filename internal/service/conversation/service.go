package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	contextprovider "github.com/w-h-a/helpdesk/context_provider"
	"github.com/w-h-a/helpdesk/generator"
	"github.com/w-h-a/helpdesk/history"
	"github.com/w-h-a/helpdesk/metrics"
	"github.com/w-h-a/helpdesk/prompt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/w-h-a/helpdesk/internal/service/conversation"
)

// Reply is the outcome of a run that produced an answer. PersistErr is set
// when the turn could not be written; the answer is still valid.
type Reply struct {
	Answer     string
	Turn       history.Turn
	PersistErr error
}

type Service struct {
	contextProvider contextprovider.ContextProvider
	history         history.History
	generator       generator.Generator
	template        *prompt.Template
	persona         string
	clock           *history.Clock
	metrics         *metrics.Metrics
	tracer          trace.Tracer
}

// Respond reads history, calls the generator once and appends the new turn.
// Nothing here serializes concurrent calls for the same user: both may read
// the same history and both turns are written.
func (s *Service) Respond(ctx context.Context, userId string, message string) (Reply, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.Respond", trace.WithAttributes(
		attribute.String("helpdesk.user_id", userId),
	))
	defer span.End()

	// 1. Context
	conversationContext, err := s.contextProvider.Context(ctx, userId)
	if err != nil {
		return Reply{}, s.fail(span, fmt.Errorf("%w: read history: %w", ErrUpstreamStore, err))
	}

	// 2. Prompt
	p, err := s.template.Render(prompt.Data{
		Persona: s.persona,
		Message: message,
		Context: conversationContext,
	})
	if err != nil {
		return Reply{}, s.fail(span, fmt.Errorf("%w: %w", ErrUnhandled, err))
	}

	// 3. Completion
	start := time.Now()
	answer, err := s.generator.Generate(ctx, p)
	s.metrics.ObserveCompletion(time.Since(start))
	if err != nil {
		if errors.Is(err, generator.ErrMalformedResponse) {
			return Reply{}, s.fail(span, fmt.Errorf("generate answer: %w", err))
		}
		return Reply{}, s.fail(span, fmt.Errorf("%w: generate answer: %w", ErrModelInvocation, err))
	}

	// 4. Persist
	turn := history.Turn{
		UserId:    userId,
		Timestamp: s.clock.Timestamp(),
		Message:   message,
		Response:  answer,
	}

	reply := Reply{
		Answer: answer,
		Turn:   turn,
	}

	if err := s.history.Append(ctx, turn); err != nil {
		reply.PersistErr = fmt.Errorf("%w: persist turn: %w", ErrUpstreamStore, err)
		span.RecordError(reply.PersistErr)
	}

	return reply, nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, Kind(err))
	return err
}

func New(
	contextProvider contextprovider.ContextProvider,
	store history.History,
	generator generator.Generator,
	template *prompt.Template,
	persona string,
	clock *history.Clock,
	metrics *metrics.Metrics,
) *Service {
	if contextProvider == nil {
		panic("context provider is required")
	}

	if store == nil {
		panic("history is required")
	}

	if generator == nil {
		panic("generator is required")
	}

	if template == nil {
		var err error
		template, err = prompt.NewTemplate("")
		if err != nil {
			panic(err)
		}
	}

	if clock == nil {
		clock = history.NewClock(nil)
	}

	return &Service{
		contextProvider: contextProvider,
		history:         store,
		generator:       generator,
		template:        template,
		persona:         persona,
		clock:           clock,
		metrics:         metrics,
		tracer:          otel.Tracer(tracerName),
	}
}
