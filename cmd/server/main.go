package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/config"
	"github.com/boton-fun/headsoccer/internal/engine"
	"github.com/boton-fun/headsoccer/internal/gateway"
	"github.com/boton-fun/headsoccer/internal/manager"
	"github.com/boton-fun/headsoccer/internal/stats"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Int("port", cfg.Server.Port).
		Int("tick_rate", cfg.Engine.TickRate).
		Bool("publish_stats", cfg.PublishStats).
		Msg("starting match server")

	var publisher engine.Publisher = stats.NopPublisher{}
	if cfg.PublishStats {
		jsp, err := stats.NewJetStreamPublisher(cfg.NATS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer jsp.Close()
		publisher = jsp
	}

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	mgr := manager.New(cfg.Manager, cfg.Engine, clockwork.NewRealClock(), cm, publisher)
	svc := gateway.NewService(cm, mgr, gateway.DefaultServiceConfig())

	if err := mgr.StartSweeper(); err != nil {
		log.Fatal().Err(err).Msg("failed to start room sweeper")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      svc.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	mgr.Shutdown()
	cancel()

	log.Info().Msg("match server shutdown complete")
}
