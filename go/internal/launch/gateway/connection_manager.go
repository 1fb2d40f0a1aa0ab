package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/liftoff/go/internal/launch"
	"github.com/rs/zerolog/log"
)

// Participants receives connection lifecycle events and client commands
type Participants interface {
	Connect(id launch.ParticipantID) int
	Disconnect(id launch.ParticipantID) int
	RequestReset()
}

// ConnectionManager manages WebSocket connections and delivers launch events to them
type ConnectionManager struct {
	connections map[launch.ParticipantID]*Connection
	// Joined but not yet sent their snapshot; broadcasts skip them
	pending map[launch.ParticipantID]*Connection
	mu      sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	// Connection configuration
	config ConnectionConfig

	participants Participants

	// Event broadcasting
	outbound *outboundQueue
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      launch.ParticipantID
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	done      chan struct{}
	closeOnce sync.Once

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	BroadcastBuffer int
	CheckOrigin     func(r *http.Request) bool
}

// OutboundMessage is an engine message queued for delivery
type OutboundMessage struct {
	Target  launch.ParticipantID // Optional: if set, only send to this participant
	Message launch.Message
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024, // 1KB max message size
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		BroadcastBuffer: 1000,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[launch.ParticipantID]*Connection),
		pending:     make(map[launch.ParticipantID]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:   config,
		outbound: newOutboundQueue(config.BroadcastBuffer),
	}
}

// SetParticipants sets the core that connection events are reported to.
// It must be called before the first connection is upgraded.
func (cm *ConnectionManager) SetParticipants(p Participants) {
	cm.participants = p
}

// Start begins processing outbound messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case <-cm.outbound.notify:
			for _, message := range cm.outbound.drain() {
				cm.handleOutbound(message)
			}
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and joins it as a participant
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) (launch.ParticipantID, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return "", fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          launch.ParticipantID(uuid.New().String()),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	// Join before the pumps run so a disconnect is never reported first
	count := cm.participants.Connect(connection.ID)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", string(connection.ID)).
		Str("remote_addr", r.RemoteAddr).
		Int("participants", count).
		Msg("WebSocket connection established")

	return connection.ID, nil
}

// registerConnection adds a connection to the manager as pending. It only
// receives broadcasts once its snapshot has been dispatched, so nothing
// queued before it joined reaches it.
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.pending[conn.ID] = conn

	log.Debug().
		Str("connection_id", string(conn.ID)).
		Int("total_connections", len(cm.connections)+len(cm.pending)).
		Msg("connection registered")
}

// unregisterConnection removes a connection and reports the disconnect once
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	_, exists := cm.connections[conn.ID]
	if exists {
		delete(cm.connections, conn.ID)
	} else if _, exists = cm.pending[conn.ID]; exists {
		delete(cm.pending, conn.ID)
	}
	cm.mu.Unlock()

	if !exists {
		return
	}

	conn.close()
	count := cm.participants.Disconnect(conn.ID)

	log.Info().
		Str("connection_id", string(conn.ID)).
		Int("participants", count).
		Msg("connection unregistered")
}

// closeAll closes every connection, used on shutdown
func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	connections := make([]*Connection, 0, len(cm.connections)+len(cm.pending))
	for _, conn := range cm.connections {
		connections = append(connections, conn)
	}
	for _, conn := range cm.pending {
		connections = append(connections, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range connections {
		cm.unregisterConnection(conn)
	}
}

// BroadcastAll queues a message for every connection. It never blocks;
// a progress update may be shed when the queue is backed up.
func (cm *ConnectionManager) BroadcastAll(msg launch.Message) {
	if !cm.outbound.push(OutboundMessage{Message: msg}) {
		log.Warn().Str("event_type", string(msg.Type())).Msg("outbound queue full, shedding progress update")
	}
}

// Send queues a message for a single connection. It never blocks.
func (cm *ConnectionManager) Send(id launch.ParticipantID, msg launch.Message) {
	cm.outbound.push(OutboundMessage{Target: id, Message: msg})
}

// handleOutbound delivers a queued message. A message aimed at a pending
// connection promotes it, so it receives every broadcast queued after its
// snapshot and none queued before.
func (cm *ConnectionManager) handleOutbound(message OutboundMessage) {
	var targetConnections []*Connection
	if message.Target != "" {
		cm.mu.Lock()
		conn, ok := cm.connections[message.Target]
		if !ok {
			if conn, ok = cm.pending[message.Target]; ok {
				delete(cm.pending, message.Target)
				cm.connections[message.Target] = conn
			}
		}
		cm.mu.Unlock()
		if ok {
			targetConnections = append(targetConnections, conn)
		}
	} else {
		cm.mu.RLock()
		targetConnections = make([]*Connection, 0, len(cm.connections))
		for _, conn := range cm.connections {
			targetConnections = append(targetConnections, conn)
		}
		cm.mu.RUnlock()
	}

	if len(targetConnections) == 0 {
		return
	}

	event, err := NewLaunchEvent(uuid.New().String(), message.Message, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build event for broadcast")
		return
	}

	// Marshal the event once
	eventData, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targetConnections {
		select {
		case conn.Send <- eventData:
		case <-conn.done:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", string(conn.ID)).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
		}
	}

	log.Debug().
		Str("event_type", string(event.Type)).
		Int("connections", len(targetConnections)).
		Msg("event broadcasted")
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return map[string]interface{}{
		"total_connections": len(cm.connections) + len(cm.pending),
		"queued_messages":   cm.outbound.len(),
	}
}

// close stops the write pump and closes the socket
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.Manager.config.WriteTimeout),
		)
		c.Conn.Close()
	})
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", string(c.ID)).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", string(c.ID)).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer c.Manager.unregisterConnection(c)

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", string(c.ID)).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage processes messages received from the client
func (c *Connection) handleClientMessage(message []byte) {
	var cmd ClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", string(c.ID)).
			Msg("ignoring malformed client message")
		return
	}

	switch cmd.Type {
	case ClientCommandRequestReset:
		log.Info().Str("connection_id", string(c.ID)).Msg("reset requested")
		c.Manager.participants.RequestReset()
	default:
		log.Debug().
			Str("connection_id", string(c.ID)).
			Str("type", string(cmd.Type)).
			Msg("ignoring unknown client message")
	}
}
