package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mcdev12/liftoff/go/internal/launch"
	"github.com/nats-io/nats.go"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Service is the launch gateway: it owns the shared launch state and serves it
// to WebSocket participants
type Service struct {
	launchpad         *launch.Launchpad
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	healthChecker     *HealthChecker
	natsConn          *nats.Conn
	allowedOrigins    []string
}

// Config holds configuration for the launch gateway service
type Config struct {
	Engine           launch.Config
	ConnectionConfig ConnectionConfig
	NATSConfig       NATSConfig
	AllowedOrigins   []string
}

// DefaultConfig returns default configuration for the launch gateway
func DefaultConfig() Config {
	return Config{
		Engine:           launch.DefaultConfig(),
		ConnectionConfig: DefaultConnectionConfig(),
		NATSConfig:       DefaultNATSConfig(),
		AllowedOrigins:   []string{"*"},
	}
}

// NewService creates a new launch gateway service
func NewService(config Config) (*Service, error) {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	broadcasters := launch.MultiBroadcaster{connectionManager}

	var natsConn *nats.Conn
	var natsStatus ConnectionStatus
	if config.NATSConfig.URL != "" {
		nc, err := ConnectNATS(config.NATSConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		natsConn = nc
		natsStatus = nc
		broadcasters = append(broadcasters, NewNATSPublisher(nc, config.NATSConfig.SubjectPrefix))

		log.Info().
			Str("url", config.NATSConfig.URL).
			Str("subject_prefix", config.NATSConfig.SubjectPrefix).
			Msg("mirroring launch events to NATS")
	}

	launchpad := launch.NewLaunchpad(config.Engine, broadcasters)
	connectionManager.SetParticipants(launchpad)

	return &Service{
		launchpad:         launchpad,
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager),
		stateHandler:      NewStateHandler(launchpad),
		healthChecker:     NewHealthChecker(launchpad, connectionManager, natsStatus),
		natsConn:          natsConn,
		allowedOrigins:    config.AllowedOrigins,
	}, nil
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting launch gateway service")

	go s.connectionManager.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("launch gateway service shutting down")
	return s.Stop()
}

// Stop halts the engine and releases the NATS connection
func (s *Service) Stop() error {
	s.launchpad.Close()

	if s.natsConn != nil {
		if err := s.natsConn.Drain(); err != nil {
			log.Error().Err(err).Msg("failed to drain NATS connection")
		}
	}

	log.Info().Msg("launch gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and REST routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	mux.Handle("/health", s.healthChecker)
	log.Info().Msg("launch gateway routes registered")
}

// Handler returns the gateway routes wrapped with CORS and h2c
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: s.allowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

// Launchpad returns the shared launch state owned by the service
func (s *Service) Launchpad() *launch.Launchpad {
	return s.launchpad
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	snapshot := s.launchpad.Snapshot()
	stats["service"] = "launch_gateway"
	stats["state"] = string(snapshot.State)
	stats["progress"] = snapshot.Progress
	return stats
}
