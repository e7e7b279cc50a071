package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server config
	Address         string        `help:"Address the HTTP server listens on" default:":8080" env:"HELPDESK_ADDRESS"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown" default:"15s" env:"HELPDESK_SHUTDOWN_TIMEOUT"`

	// Logging config
	LogLevel  string `help:"Log level" default:"info" enum:"debug,info,warn,error" env:"LOG_LEVEL"`
	LogFormat string `help:"Log format" default:"json" enum:"json,text" env:"LOG_FORMAT"`

	// History config
	History         string        `help:"History store provider" default:"dynamodb" enum:"memory,postgres,dynamodb" env:"HISTORY_PROVIDER"`
	HistoryLocation string        `help:"History store address (postgres DSN or dynamodb endpoint override)" default:"" env:"HISTORY_LOCATION"`
	HistoryTable    string        `help:"Table holding conversation turns" default:"conversation_history" env:"HISTORY_TABLE"`
	StoreTimeout    time.Duration `help:"Timeout for each history store call" default:"5s" env:"HISTORY_TIMEOUT"`

	// Generator config
	Generator         string        `help:"Completion service provider" default:"bedrock" enum:"bedrock,anthropic,openai,google" env:"GENERATOR_PROVIDER"`
	GeneratorKey      string        `help:"API key for the completion service" default:"" env:"GENERATOR_API_KEY"`
	GeneratorModel    string        `help:"Model identifier" default:"anthropic.claude-3-5-sonnet-20240620-v1:0" env:"GENERATOR_MODEL"`
	GeneratorLocation string        `help:"Base URL override for the completion service" default:"" env:"GENERATOR_LOCATION"`
	MaxTokens         int           `help:"Maximum tokens in a generated answer" default:"512" env:"GENERATOR_MAX_TOKENS"`
	GeneratorTimeout  time.Duration `help:"Timeout for the completion call" default:"60s" env:"GENERATOR_TIMEOUT"`

	// Prompt config
	Persona        string `help:"Persona, language and domain instructions placed at the top of every prompt" default:"" env:"HELPDESK_PERSONA"`
	PromptTemplate string `help:"Path to a text/template file with .Persona, .Message and .Context" env:"HELPDESK_PROMPT_TEMPLATE"`

	// Alerter config
	Alerter      string `help:"Alerting channel provider" default:"sns" enum:"sns,log" env:"ALERTER_PROVIDER"`
	AlertTopic   string `help:"SNS topic ARN for alerts" default:"" env:"SNS_TOPIC_ARN"`
	AlertSubject string `help:"Subject line for alerts" default:"" env:"ALERT_SUBJECT"`

	// AWS config
	Region string `help:"AWS region for bedrock, dynamodb and sns" default:"us-east-1" env:"AWS_REGION"`

	// Metrics config
	MetricsNamespace string `help:"Prometheus namespace" default:"helpdesk" env:"HELPDESK_METRICS_NAMESPACE"`
}

func (c Config) Validate() error {
	if c.Alerter == "sns" && len(c.AlertTopic) == 0 {
		return errors.New("sns alerter requires --alert-topic or SNS_TOPIC_ARN")
	}

	if c.History == "postgres" && len(c.HistoryLocation) == 0 {
		return errors.New("postgres history requires --history-location")
	}

	if c.Generator != "bedrock" && len(c.GeneratorKey) == 0 {
		return errors.New("--generator-key is required for " + c.Generator)
	}

	return nil
}

// Load reads an optional .env file, then flags and environment.
func Load(args []string, options ...kong.Option) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	var cfg Config

	options = append([]kong.Option{
		kong.Name("helpdesk"),
		kong.Description("Customer support assistant backed by a large language model."),
	}, options...)

	parser, err := kong.New(&cfg, options...)
	if err != nil {
		return Config{}, err
	}

	if _, err := parser.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
