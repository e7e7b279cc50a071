package helpdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/w-h-a/helpdesk/alerter"
	"github.com/w-h-a/helpdesk/internal/service/conversation"
	"github.com/w-h-a/helpdesk/metrics"
	getsafe "github.com/w-h-a/helpdesk/util/get_safe"
)

const (
	DefaultUserId = "anonymous"
	alertPrefix   = "helpdesk error: "
)

// Request is the inbound call. Body is a JSON object with optional
// "user_id" and "message" fields.
type Request struct {
	Body string
}

type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// Handler is the request boundary: every failure below it becomes a 500
// Response and one alert.
type Handler struct {
	service *conversation.Service
	alerter alerter.Alerter
	metrics *metrics.Metrics
}

func (h *Handler) Handle(ctx context.Context, req Request) (rsp Response) {
	defer func() {
		if r := recover(); r != nil {
			rsp = h.failure(ctx, fmt.Errorf("%w: panic: %v", conversation.ErrUnhandled, r))
		}
	}()

	userId, message, err := parseBody(req.Body)
	if err != nil {
		return h.failure(ctx, err)
	}

	reply, err := h.service.Respond(ctx, userId, message)
	if err != nil {
		return h.failure(ctx, err)
	}

	if reply.PersistErr != nil {
		slog.ErrorContext(ctx, "answered without persisting turn", "user_id", userId, "kind", conversation.Kind(reply.PersistErr), "error", reply.PersistErr)
		h.metrics.ObservePersistFailure()
		h.alert(ctx, reply.PersistErr)
	}

	return h.respond(http.StatusOK, map[string]string{"answer": reply.Answer})
}

func (h *Handler) failure(ctx context.Context, err error) Response {
	slog.ErrorContext(ctx, "request failed", "kind", conversation.Kind(err), "error", err)
	h.alert(ctx, err)
	return h.respond(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// alert never fails the request; a failed or panicking publish is only
// logged.
func (h *Handler) alert(ctx context.Context, cause error) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("alerter panic: %v", r)
			h.metrics.ObserveAlert(err)
			slog.ErrorContext(ctx, "failed to publish alert", "error", err, "cause", cause)
		}
	}()

	err := h.alerter.Publish(context.WithoutCancel(ctx), alertPrefix+cause.Error())
	h.metrics.ObserveAlert(err)
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish alert", "error", err, "cause", cause)
	}
}

func (h *Handler) respond(status int, body map[string]string) Response {
	h.metrics.ObserveRequest(status)

	bs, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		bs = []byte(`{"error":"failed to encode response"}`)
	}

	return Response{
		StatusCode: status,
		Headers:    Headers(),
		Body:       string(bs),
	}
}

// Headers returns the header set sent on every response.
func Headers() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": "OPTIONS,POST",
	}
}

func parseBody(body string) (string, string, error) {
	if len(strings.TrimSpace(body)) == 0 {
		body = "{}"
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", "", fmt.Errorf("%w: decode body: %w", conversation.ErrUnhandled, err)
	}

	userId := getsafe.String(payload, "user_id", DefaultUserId)
	message := getsafe.String(payload, "message", "")

	return userId, message, nil
}

func New(
	service *conversation.Service,
	alerter alerter.Alerter,
	metrics *metrics.Metrics,
) *Handler {
	if service == nil {
		panic("service is required")
	}

	if alerter == nil {
		panic("alerter is required")
	}

	return &Handler{
		service: service,
		alerter: alerter,
		metrics: metrics,
	}
}
