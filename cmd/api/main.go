// API serves the collected and summarized articles over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/jdholdren/touchline/internal/api"
	"github.com/jdholdren/touchline/internal/logger"
	"github.com/jdholdren/touchline/internal/sqlite"
)

type config struct {
	Database   string `env:"DATABASE, default=data/football-news.db"`
	Port       int    `env:"PORT, default=3000"`
	CorsOrigin string `env:"CORS_ORIGIN, default=*"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	LogLevel     string `env:"LOG_LEVEL, default=info"`
}

func main() {
	ctx := context.Background()

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

	if err := serve(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config) error {
	dbx, err := sqlite.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbx.Close()

	s := api.NewServer(api.ServerConfig{
		Port:       cfg.Port,
		CorsOrigin: cfg.CorsOrigin,
	}, sqlite.New(dbx))

	var g run.Group
	g.Add(func() error {
		slog.Info("listening", "port", cfg.Port)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error listening: %s", err)
		}
		return nil
	}, func(error) {
		downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(downCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		slog.Info("shutting down", "signal", sigErr.Signal)
		return nil
	}

	return err
}
