package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/liftoff/go/internal/launch"
	"github.com/mcdev12/liftoff/go/internal/launch/gateway"
	"github.com/mcdev12/liftoff/go/internal/launchconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := launchconfig.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(logLevel(cfg.LogLevel))

	log.Info().
		Str("port", cfg.Port).
		Dur("tick_rate", cfg.TickRate).
		Str("nats_url", cfg.NATSURL).
		Msg("starting launch gateway")

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.Engine = launch.Config{TickRate: cfg.TickRate}
	gatewayConfig.NATSConfig.URL = cfg.NATSURL
	gatewayConfig.NATSConfig.SubjectPrefix = cfg.NATSSubjectPrefix
	gatewayConfig.AllowedOrigins = cfg.AllowedOrigins

	gatewayService, err := gateway.NewService(gatewayConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway service")
	}

	mux := http.NewServeMux()
	mux.Handle("/", gatewayService.Handler())
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gatewayService.GetStats())
	})

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Cancel service context to stop gateway service
	cancel()

	// Give the connection manager time to close sockets
	time.Sleep(1 * time.Second)

	log.Info().Msg("launch gateway shutdown complete")
}

// logLevel parses a configured level, falling back to info
func logLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		log.Warn().Str("log_level", name).Msg("unknown log level, using info")
		return zerolog.InfoLevel
	}
	return level
}
