package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/d2cmedia/syndesk/internal/ai"
	"github.com/d2cmedia/syndesk/internal/config"
	"github.com/d2cmedia/syndesk/internal/db"
	httpapi "github.com/d2cmedia/syndesk/internal/http"
	"github.com/d2cmedia/syndesk/internal/refdata"
	"github.com/d2cmedia/syndesk/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "syndesk").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	ref := refdata.Load(cfg.RefDataDir, logger)

	var adapter ai.Adapter
	if cfg.OpenAIAPIKey == "" {
		adapter = ai.MockAdapter{}
		logger.Info().Msg("using mock AI adapter")
	} else {
		adapter = ai.NewOpenAIAdapter(cfg.OpenAIAPIKey, cfg.OpenAIModel, ref, logger)
	}

	processor := &service.ProcessingService{
		Store:      store,
		AI:         adapter,
		Engine:     service.NewEngine(ref),
		Resolver:   service.NewResolver(ref),
		Automation: service.NewAutomation(ref, store, cfg.RepEmailDomain, cfg.FeedBaseURL, cfg.StepDelay, logger),
		Logger:     logger,
	}

	router := httpapi.Router(cfg, store, processor, ref, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
