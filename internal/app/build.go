package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/w-h-a/helpdesk"
	"github.com/w-h-a/helpdesk/alerter"
	alerterlogger "github.com/w-h-a/helpdesk/alerter/logger"
	alertersns "github.com/w-h-a/helpdesk/alerter/sns"
	contextprovider "github.com/w-h-a/helpdesk/context_provider"
	"github.com/w-h-a/helpdesk/context_provider/transcript"
	"github.com/w-h-a/helpdesk/generator"
	anthropicgenerator "github.com/w-h-a/helpdesk/generator/anthropic"
	bedrockgenerator "github.com/w-h-a/helpdesk/generator/bedrock"
	googlegenerator "github.com/w-h-a/helpdesk/generator/google"
	openaigenerator "github.com/w-h-a/helpdesk/generator/openai"
	"github.com/w-h-a/helpdesk/history"
	dynamohistory "github.com/w-h-a/helpdesk/history/dynamodb"
	memoryhistory "github.com/w-h-a/helpdesk/history/memory"
	postgreshistory "github.com/w-h-a/helpdesk/history/postgres"
	"github.com/w-h-a/helpdesk/internal/config"
	"github.com/w-h-a/helpdesk/internal/service/conversation"
	"github.com/w-h-a/helpdesk/metrics"
	"github.com/w-h-a/helpdesk/prompt"
)

type App struct {
	Handler *helpdesk.Handler
	Metrics *metrics.Metrics
}

// Build constructs every collaborator once; the returned handler is safe
// to share across requests.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(cfg.MetricsNamespace, reg)

	tmpl, err := loadTemplate(cfg.PromptTemplate)
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(cfg.Persona)) == 0 {
		slog.WarnContext(ctx, "no persona configured; prompts carry no persona, language or domain instructions")
	}

	var awsCfg *aws.Config
	loadAws := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return aws.Config{}, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	store, err := newHistory(cfg, loadAws)
	if err != nil {
		return nil, err
	}
	store = withHistoryTimeout(store, cfg.StoreTimeout)

	gen, err := newGenerator(cfg, loadAws)
	if err != nil {
		return nil, err
	}
	gen = withGeneratorTimeout(gen, cfg.GeneratorTimeout)

	alerts, err := newAlerter(cfg, loadAws)
	if err != nil {
		return nil, err
	}

	svc := conversation.New(
		transcript.NewContextProvider(contextprovider.WithHistory(store)),
		store,
		gen,
		tmpl,
		cfg.Persona,
		history.NewClock(nil),
		m,
	)

	return &App{
		Handler: helpdesk.New(svc, alerts, m),
		Metrics: m,
	}, nil
}

func loadTemplate(path string) (*prompt.Template, error) {
	if len(path) == 0 {
		return prompt.NewTemplate("")
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}

	return prompt.NewTemplate(string(bs))
}

func newHistory(cfg config.Config, loadAws func() (aws.Config, error)) (history.History, error) {
	opts := []history.Option{
		history.WithLocation(cfg.HistoryLocation),
		history.WithTable(cfg.HistoryTable),
	}

	switch cfg.History {
	case "memory":
		return memoryhistory.NewHistory(opts...), nil
	case "postgres":
		return postgreshistory.NewHistory(opts...), nil
	case "dynamodb":
		awsCfg, err := loadAws()
		if err != nil {
			return nil, err
		}
		return dynamohistory.NewHistory(append(opts, dynamohistory.WithAwsConfig(awsCfg))...), nil
	default:
		return nil, fmt.Errorf("unknown history provider %q", cfg.History)
	}
}

func newGenerator(cfg config.Config, loadAws func() (aws.Config, error)) (generator.Generator, error) {
	opts := []generator.Option{
		generator.WithApiKey(cfg.GeneratorKey),
		generator.WithModel(cfg.GeneratorModel),
		generator.WithLocation(cfg.GeneratorLocation),
		generator.WithMaxTokens(cfg.MaxTokens),
	}

	switch cfg.Generator {
	case "bedrock":
		awsCfg, err := loadAws()
		if err != nil {
			return nil, err
		}
		return bedrockgenerator.NewGenerator(append(opts, bedrockgenerator.WithAwsConfig(awsCfg))...), nil
	case "anthropic":
		return anthropicgenerator.NewGenerator(opts...), nil
	case "openai":
		return openaigenerator.NewGenerator(opts...), nil
	case "google":
		return googlegenerator.NewGenerator(opts...), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator)
	}
}

func newAlerter(cfg config.Config, loadAws func() (aws.Config, error)) (alerter.Alerter, error) {
	opts := []alerter.Option{
		alerter.WithDestination(cfg.AlertTopic),
		alerter.WithSubject(cfg.AlertSubject),
	}

	switch cfg.Alerter {
	case "sns":
		awsCfg, err := loadAws()
		if err != nil {
			return nil, err
		}
		return alertersns.NewAlerter(append(opts, alertersns.WithAwsConfig(awsCfg))...), nil
	case "log":
		return alerterlogger.NewAlerter(opts...), nil
	default:
		return nil, fmt.Errorf("unknown alerter provider %q", cfg.Alerter)
	}
}
