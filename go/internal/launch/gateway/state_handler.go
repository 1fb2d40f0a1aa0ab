package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/liftoff/go/internal/launch"
	"github.com/rs/zerolog/log"
)

// StateProvider exposes the shared launch state to HTTP callers
type StateProvider interface {
	Snapshot() launch.Status
	RequestReset()
}

// StateHandler handles HTTP requests for the launch state
type StateHandler struct {
	stateProvider StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
	}
}

// HandleGetState handles GET /api/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeStatus(w, h.stateProvider.Snapshot())
}

// HandleReset handles POST /api/reset
func (h *StateHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log.Info().Str("remote_addr", r.RemoteAddr).Msg("reset requested over HTTP")
	h.stateProvider.RequestReset()

	writeStatus(w, h.stateProvider.Snapshot())
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.HandleGetState)
	mux.HandleFunc("/api/reset", h.HandleReset)
}

func writeStatus(w http.ResponseWriter, status launch.Status) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode launch state response")
	}
}
