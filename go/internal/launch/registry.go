package launch

import (
	"github.com/rs/zerolog/log"
)

// Registry tracks how many participants are connected. The count is guarded
// by the engine's lock.
type Registry struct {
	engine *Engine
	count  int
}

// Connect records a new participant, wakes the engine and sends the
// participant a snapshot of the current state. It returns the new count.
func (r *Registry) Connect(id ParticipantID) int {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	r.count++

	if r.count == 1 && e.progress < ConnectFloor && !e.launched {
		e.progress = ConnectFloor
	}
	e.startLocked()
	e.sendSnapshotLocked(id)

	log.Info().
		Str("participant_id", string(id)).
		Int("participants", r.count).
		Msg("participant connected")

	return r.count
}

// Disconnect removes a participant and returns the new count. The count
// never drops below zero.
func (r *Registry) Disconnect(id ParticipantID) int {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if r.count > 0 {
		r.count--
	} else {
		log.Warn().Str("participant_id", string(id)).Msg("disconnect without matching connect")
	}

	log.Info().
		Str("participant_id", string(id)).
		Int("participants", r.count).
		Msg("participant disconnected")

	// Count changes do not affect a launched cycle
	if e.launched {
		return r.count
	}

	if r.count == 0 {
		e.progress = MinProgress
	}
	e.broadcaster.BroadcastAll(ProgressUpdate{Progress: e.progress, ParticipantCount: r.count})

	return r.count
}

// Count returns the number of connected participants
func (r *Registry) Count() int {
	r.engine.mu.Lock()
	defer r.engine.mu.Unlock()
	return r.count
}
