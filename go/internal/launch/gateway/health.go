package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/liftoff/go/internal/launch"
)

type HealthStatus struct {
	Healthy       bool         `json:"healthy"`
	State         launch.State `json:"state"`
	Participants  int          `json:"participants"`
	Connections   int          `json:"connections"`
	NATSEnabled   bool         `json:"nats_enabled"`
	NATSConnected bool         `json:"nats_connected"`
	Errors        []string     `json:"errors"`
}

// ConnectionStatus reports whether a broker connection is up
type ConnectionStatus interface {
	IsConnected() bool
}

type HealthChecker struct {
	state       StateProvider
	connections *ConnectionManager
	natsConn    ConnectionStatus // nil when the mirror is disabled
}

func NewHealthChecker(state StateProvider, connections *ConnectionManager, natsConn ConnectionStatus) *HealthChecker {
	return &HealthChecker{
		state:       state,
		connections: connections,
		natsConn:    natsConn,
	}
}

func (h *HealthChecker) Check() HealthStatus {
	snapshot := h.state.Snapshot()
	stats := h.connections.GetConnectionStats()

	status := HealthStatus{
		Healthy:      true,
		State:        snapshot.State,
		Participants: snapshot.ParticipantCount,
		Connections:  stats["total_connections"].(int),
		Errors:       []string{},
	}

	if h.natsConn != nil {
		status.NATSEnabled = true
		status.NATSConnected = h.natsConn.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	return status
}

// HTTP handler helper
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(status)
}
