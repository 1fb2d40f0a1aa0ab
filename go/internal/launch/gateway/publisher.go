package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/liftoff/go/internal/launch"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS event mirror
type NATSConfig struct {
	URL           string // Empty disables the mirror
	SubjectPrefix string // e.g., "launch.events"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS configuration with the mirror disabled
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		SubjectPrefix: "launch.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// MessagePublisher publishes a raw payload to a subject
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher mirrors broadcast events onto NATS subjects so other
// services can observe the launch cycle. Per-participant snapshots are not
// mirrored.
type NATSPublisher struct {
	conn          MessagePublisher
	subjectPrefix string
}

// NewNATSPublisher creates a publisher over an established connection
func NewNATSPublisher(conn MessagePublisher, subjectPrefix string) *NATSPublisher {
	return &NATSPublisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
	}
}

// ConnectNATS dials the NATS server described by config
func ConnectNATS(config NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("launch-gateway"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Subject returns the subject a message type is published on
func (p *NATSPublisher) Subject(typ launch.MessageType) string {
	return fmt.Sprintf("%s.%s", p.subjectPrefix, typ)
}

// BroadcastAll publishes the message. Failures are logged and dropped.
func (p *NATSPublisher) BroadcastAll(msg launch.Message) {
	event, err := NewLaunchEvent(uuid.New().String(), msg, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("failed to build event for NATS")
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for NATS")
		return
	}

	subject := p.Subject(msg.Type())
	if err := p.conn.Publish(subject, data); err != nil {
		log.Error().
			Err(err).
			Str("subject", subject).
			Msg("failed to publish event to NATS")
		return
	}

	log.Debug().
		Str("subject", subject).
		Int("size", len(data)).
		Msg("published event to NATS")
}

// Send is a no-op; snapshots only concern the connection that asked for them
func (p *NATSPublisher) Send(launch.ParticipantID, launch.Message) {}
