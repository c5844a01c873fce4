package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triviacards"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the TOML config file (default: ./triviacards.toml if present)")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	cfg, err := triviacards.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := triviacards.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}

	cache, err := triviacards.OpenTextCache(cfg.Cache)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open file cache")
	}
	defer cache.Close()

	server, err := NewServer(cfg, cache, triviacards.NewFileSource(cfg.Files), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.pruneLoop(ctx, cfg.CacheTTL())

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	logger.Info().Str("addr", cfg.Server.Listen).Str("cache", cfg.Cache.Driver).Bool("explain", cfg.ExplainEnabled()).Msg("Starting server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}
