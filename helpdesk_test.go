package helpdesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	alertermemory "github.com/w-h-a/helpdesk/alerter/memory"
	contextprovider "github.com/w-h-a/helpdesk/context_provider"
	"github.com/w-h-a/helpdesk/context_provider/transcript"
	"github.com/w-h-a/helpdesk/generator"
	"github.com/w-h-a/helpdesk/history"
	historymemory "github.com/w-h-a/helpdesk/history/memory"
	"github.com/w-h-a/helpdesk/internal/service/conversation"
	"github.com/w-h-a/helpdesk/metrics"
	"github.com/w-h-a/helpdesk/prompt"
)

type fakeGenerator struct {
	mtx     sync.Mutex
	prompts []string
	answer  string
	err     error
	panics  bool
	entered chan struct{}
	release chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, p string) (string, error) {
	g.mtx.Lock()
	g.prompts = append(g.prompts, p)
	n := len(g.prompts)
	g.mtx.Unlock()

	if g.entered != nil {
		g.entered <- struct{}{}
		<-g.release
	}

	if g.panics {
		panic("generator exploded")
	}

	if g.err != nil {
		return "", g.err
	}

	if len(g.answer) > 0 {
		return g.answer, nil
	}

	return fmt.Sprintf("answer %d", n), nil
}

func (g *fakeGenerator) Prompts() []string {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return append([]string(nil), g.prompts...)
}

type recordingHistory struct {
	history.History
	mtx       sync.Mutex
	listed    []string
	listErr   error
	appendErr error
}

func (h *recordingHistory) List(ctx context.Context, userId string) ([]history.Turn, error) {
	h.mtx.Lock()
	h.listed = append(h.listed, userId)
	h.mtx.Unlock()

	if h.listErr != nil {
		return nil, h.listErr
	}
	return h.History.List(ctx, userId)
}

func (h *recordingHistory) Append(ctx context.Context, turn history.Turn) error {
	if h.appendErr != nil {
		return h.appendErr
	}
	return h.History.Append(ctx, turn)
}

type fixture struct {
	handler   *Handler
	history   *recordingHistory
	generator *fakeGenerator
	alerter   *alertermemory.MemoryAlerter
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T, gen *fakeGenerator) *fixture {
	t.Helper()

	hist := &recordingHistory{History: historymemory.NewHistory()}
	alerts := alertermemory.NewAlerter()
	m := metrics.NewMetrics("helpdesk_test", prometheus.NewRegistry())

	tmpl, err := prompt.NewTemplate("")
	require.NoError(t, err)

	svc := conversation.New(
		transcript.NewContextProvider(contextprovider.WithHistory(hist)),
		hist,
		gen,
		tmpl,
		"You are a customer support assistant.",
		history.NewClock(nil),
		m,
	)

	return &fixture{
		handler:   New(svc, alerts, m),
		history:   hist,
		generator: gen,
		alerter:   alerts,
		metrics:   m,
	}
}

func (f *fixture) turns(t *testing.T, userId string) []history.Turn {
	t.Helper()
	turns, err := f.history.History.List(context.Background(), userId)
	require.NoError(t, err)
	return turns
}

func decode(t *testing.T, rsp Response) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(rsp.Body), &body))
	return body
}

func requireCORS(t *testing.T, rsp Response) {
	t.Helper()
	assert.Equal(t, "application/json", rsp.Headers["Content-Type"])
	assert.Equal(t, "*", rsp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "Content-Type", rsp.Headers["Access-Control-Allow-Headers"])
	assert.Equal(t, "OPTIONS,POST", rsp.Headers["Access-Control-Allow-Methods"])
}

func TestHandle_NewUserGetsAnswerAndOneTurn(t *testing.T) {
	f := newFixture(t, &fakeGenerator{answer: "It is at the Istanbul hub."})

	rsp := f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"Where is my package?"}`})

	require.Equal(t, http.StatusOK, rsp.StatusCode)
	requireCORS(t, rsp)
	assert.Equal(t, map[string]string{"answer": "It is at the Istanbul hub."}, decode(t, rsp))

	prompts := f.generator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Where is my package?")
	assert.NotContains(t, prompts[0], "User: ")

	turns := f.turns(t, "u1")
	require.Len(t, turns, 1)
	assert.Equal(t, "u1", turns[0].UserId)
	assert.Equal(t, "Where is my package?", turns[0].Message)
	assert.Equal(t, "It is at the Istanbul hub.", turns[0].Response)
	assert.NotEmpty(t, turns[0].Timestamp)

	assert.Empty(t, f.alerter.Messages())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("OK")))
}

func TestHandle_PromptCarriesPriorTurnsInStoreOrder(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	ctx := context.Background()

	prior := []history.Turn{
		{UserId: "u1", Timestamp: "3", Message: "third stored first", Response: "c"},
		{UserId: "u1", Timestamp: "1", Message: "first", Response: "a"},
		{UserId: "u1", Timestamp: "2", Message: "second", Response: "b"},
	}
	for _, turn := range prior {
		require.NoError(t, f.history.History.Append(ctx, turn))
	}

	rsp := f.handler.Handle(ctx, Request{Body: `{"user_id":"u1","message":"and now?"}`})
	require.Equal(t, http.StatusOK, rsp.StatusCode)

	prompts := f.generator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], transcript.Format(prior))
	assert.Equal(t, len(prior), strings.Count(prompts[0], "User: "))
	assert.Equal(t, len(prior), strings.Count(prompts[0], "Bot: "))
}

func TestHandle_SameRequestTwicePersistsTwoTurns(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	req := Request{Body: `{"user_id":"u1","message":"Where is my package?"}`}

	first := f.handler.Handle(context.Background(), req)
	second := f.handler.Handle(context.Background(), req)

	require.Equal(t, http.StatusOK, first.StatusCode)
	require.Equal(t, http.StatusOK, second.StatusCode)

	turns := f.turns(t, "u1")
	require.Len(t, turns, 2)
	assert.Equal(t, turns[0].Message, turns[1].Message)
	assert.NotEqual(t, turns[0].Timestamp, turns[1].Timestamp)

	prompts := f.generator.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "User: Where is my package?\nBot: answer 1")
}

func TestHandle_GeneratorErrorIs500WithOneAlertAndNoTurn(t *testing.T) {
	f := newFixture(t, &fakeGenerator{err: errors.New("ModelTimeoutException: took too long")})

	rsp := f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"hi"}`})

	require.Equal(t, http.StatusInternalServerError, rsp.StatusCode)
	requireCORS(t, rsp)
	body := decode(t, rsp)
	assert.Contains(t, body["error"], "ModelTimeoutException")
	assert.Contains(t, body["error"], conversation.ErrModelInvocation.Error())

	alerts := f.alerter.Messages()
	require.Len(t, alerts, 1)
	assert.True(t, strings.HasPrefix(alerts[0], "helpdesk error: "))
	assert.Contains(t, alerts[0], "ModelTimeoutException")

	assert.Empty(t, f.turns(t, "u1"))
}

func TestHandle_HistoryReadErrorSkipsGenerator(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	f.history.listErr = errors.New("AccessDeniedException")

	rsp := f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"hi"}`})

	require.Equal(t, http.StatusInternalServerError, rsp.StatusCode)
	assert.Contains(t, decode(t, rsp)["error"], "AccessDeniedException")
	assert.Empty(t, f.generator.Prompts())
	require.Len(t, f.alerter.Messages(), 1)
	assert.Contains(t, f.alerter.Messages()[0], conversation.ErrUpstreamStore.Error())
}

func TestHandle_MissingUserIdDefaultsToAnonymous(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	rsp := f.handler.Handle(context.Background(), Request{Body: `{"message":"hello"}`})
	require.Equal(t, http.StatusOK, rsp.StatusCode)

	assert.Equal(t, []string{"anonymous"}, f.history.listed)
	turns := f.turns(t, "anonymous")
	require.Len(t, turns, 1)
	assert.Equal(t, "anonymous", turns[0].UserId)
}

func TestHandle_EmptyBodyUsesDefaults(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	for _, body := range []string{"", "  ", "{}", "null", `{"user_id":null,"message":null}`} {
		rsp := f.handler.Handle(context.Background(), Request{Body: body})
		require.Equal(t, http.StatusOK, rsp.StatusCode, "body %q", body)
	}

	turns := f.turns(t, "anonymous")
	require.Len(t, turns, 5)
	for _, turn := range turns {
		assert.Equal(t, "", turn.Message)
	}
}

func TestHandle_MalformedModelResponse(t *testing.T) {
	f := newFixture(t, &fakeGenerator{err: fmt.Errorf("%w: bedrock body has no content[0].text", generator.ErrMalformedResponse)})

	rsp := f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"hi"}`})

	require.Equal(t, http.StatusInternalServerError, rsp.StatusCode)
	assert.NotEmpty(t, decode(t, rsp)["error"])

	alerts := f.alerter.Messages()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "malformed model response")
	assert.Empty(t, f.turns(t, "u1"))
}

func TestHandle_PersistFailureStillAnswers(t *testing.T) {
	f := newFixture(t, &fakeGenerator{answer: "On its way."})
	f.history.appendErr = errors.New("ConditionalCheckFailedException")

	rsp := f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"hi"}`})

	require.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "On its way.", decode(t, rsp)["answer"])

	alerts := f.alerter.Messages()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "persist turn")
	assert.Contains(t, alerts[0], "ConditionalCheckFailedException")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PersistFailures))
}

func TestHandle_AlertFailureDoesNotMaskError(t *testing.T) {
	f := newFixture(t, &fakeGenerator{err: errors.New("model down")})
	f.alerter.FailWith(errors.New("sns unavailable"))

	rsp := f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"hi"}`})

	require.Equal(t, http.StatusInternalServerError, rsp.StatusCode)
	body := decode(t, rsp)["error"]
	assert.Contains(t, body, "model down")
	assert.NotContains(t, body, "sns unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Alerts.WithLabelValues("failed")))
}

type panickingAlerter struct {
	mtx   sync.Mutex
	calls int
}

func (a *panickingAlerter) Publish(ctx context.Context, message string) error {
	a.mtx.Lock()
	a.calls++
	a.mtx.Unlock()
	panic("alerter exploded")
}

func TestHandle_PanickingAlerterDoesNotMaskError(t *testing.T) {
	f := newFixture(t, &fakeGenerator{err: errors.New("model down")})
	alerts := &panickingAlerter{}
	f.handler.alerter = alerts

	var rsp Response
	require.NotPanics(t, func() {
		rsp = f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"hi"}`})
	})

	require.Equal(t, http.StatusInternalServerError, rsp.StatusCode)
	requireCORS(t, rsp)
	body := decode(t, rsp)["error"]
	assert.Contains(t, body, "model down")
	assert.NotContains(t, body, "alerter exploded")
	assert.Equal(t, 1, alerts.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Alerts.WithLabelValues("failed")))
}

func TestHandle_PanickingAlerterOnPersistFailureKeepsAnswer(t *testing.T) {
	f := newFixture(t, &fakeGenerator{answer: "On its way."})
	f.history.appendErr = errors.New("table gone")
	f.handler.alerter = &panickingAlerter{}

	var rsp Response
	require.NotPanics(t, func() {
		rsp = f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"hi"}`})
	})

	require.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "On its way.", decode(t, rsp)["answer"])
}

func TestHandle_InvalidBodyIsUnhandledError(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	for _, body := range []string{"not json", `["user_id"]`, `{"message":`} {
		rsp := f.handler.Handle(context.Background(), Request{Body: body})
		require.Equal(t, http.StatusInternalServerError, rsp.StatusCode, "body %q", body)
		requireCORS(t, rsp)
		assert.Contains(t, decode(t, rsp)["error"], conversation.ErrUnhandled.Error())
	}

	assert.Empty(t, f.generator.Prompts())
	assert.Len(t, f.alerter.Messages(), 3)
}

func TestHandle_PanicIsContained(t *testing.T) {
	f := newFixture(t, &fakeGenerator{panics: true})

	var rsp Response
	require.NotPanics(t, func() {
		rsp = f.handler.Handle(context.Background(), Request{Body: `{"user_id":"u1","message":"hi"}`})
	})

	require.Equal(t, http.StatusInternalServerError, rsp.StatusCode)
	requireCORS(t, rsp)
	assert.Contains(t, decode(t, rsp)["error"], "generator exploded")
	assert.Len(t, f.alerter.Messages(), 1)
}

func TestHandle_ConcurrentSameUserRequestsDoNotSeeEachOther(t *testing.T) {
	gen := &fakeGenerator{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	f := newFixture(t, gen)

	var wg sync.WaitGroup
	rsps := make([]Response, 2)
	for i := range rsps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rsps[i] = f.handler.Handle(context.Background(), Request{Body: fmt.Sprintf(`{"user_id":"u1","message":"request %d"}`, i)})
		}()
	}

	<-gen.entered
	<-gen.entered
	close(gen.release)
	wg.Wait()

	for _, rsp := range rsps {
		require.Equal(t, http.StatusOK, rsp.StatusCode)
	}

	for _, p := range gen.Prompts() {
		assert.NotContains(t, p, "User: ")
	}

	assert.Len(t, f.turns(t, "u1"), 2)
}
