// Pipeline runs a single ingestion pass over the football feeds.
//
// It collects new articles, then extracts and summarizes the oldest pending
// ones before printing a report. It's meant to be run on a schedule.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sethvargo/go-envconfig"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/jdholdren/touchline/internal/extract"
	"github.com/jdholdren/touchline/internal/feeds"
	"github.com/jdholdren/touchline/internal/gate"
	"github.com/jdholdren/touchline/internal/logger"
	"github.com/jdholdren/touchline/internal/pipeline"
	"github.com/jdholdren/touchline/internal/sqlite"
	"github.com/jdholdren/touchline/internal/summarize"
)

type config struct {
	Database        string `env:"DATABASE, default=data/football-news.db"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY, required"`
	ClaudeModel     string `env:"CLAUDE_MODEL, default=claude-sonnet-4-5-20250929"`
	// Only set to point at something other than the real API
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL"`

	BatchSize    int           `env:"BATCH_SIZE, default=20"`
	RateInterval time.Duration `env:"RATE_INTERVAL, default=500ms"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT, default=10s"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	LogLevel     string `env:"LOG_LEVEL, default=info"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	l, err := logger.New(os.Stderr, cfg.LoggerFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("error creating logger: %s", err)
	}
	slog.SetDefault(l)

	// Start the application
	if err := run(ctx, cfg); err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	dbx, err := sqlite.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbx.Close()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(0), // Failed articles are left for a later run
	}
	if cfg.AnthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AnthropicBaseURL))
	}
	claudeClient := anthropic.NewClient(opts...)

	httpClient := &http.Client{}
	p := pipeline.New(pipeline.Deps{
		Collector:  feeds.NewCollector(httpClient, cfg.FetchTimeout),
		Store:      sqlite.New(dbx),
		Extractor:  extract.New(httpClient, cfg.FetchTimeout, extract.DefaultPolicies),
		Summarizer: summarize.New(&claudeClient, cfg.ClaudeModel),
		Gate:       gate.NewInterval(gate.RealClock{}, cfg.RateInterval),
	}, pipeline.Config{
		Sources:   feeds.Sources,
		BatchSize: cfg.BatchSize,
	})

	rep, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("error running pipeline: %w", err)
	}

	byts, _ := json.MarshalIndent(rep, "", "  ")
	fmt.Println(string(byts))

	return nil
}
