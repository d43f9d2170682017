package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/config"
	"github.com/janhq/support-chat/internal/infrastructure"
	"github.com/janhq/support-chat/internal/infrastructure/logger"
	"github.com/janhq/support-chat/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	infra      *infrastructure.Infrastructure
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HTTPServer, infra *infrastructure.Infrastructure, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		infra:      infra,
		log:        log,
	}
}

// Start probes the cache and serves until ctx is cancelled.
func (a *Application) Start(ctx context.Context) error {
	a.infra.Init(ctx)
	if !a.infra.IsAvailable() {
		a.log.Warn().Msg("history cache unavailable at startup, reads go to the store")
	}
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}
	log.Info().Msg("application exited cleanly")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := CreateApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer cleanup()

	return app.Start(ctx)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
