package launch

import (
	"github.com/rs/zerolog/log"
)

// ResetController re-arms the engine after (or before) a launch
type ResetController struct {
	engine      *Engine
	broadcaster Broadcaster
}

// NewResetController creates a reset controller for the engine
func NewResetController(engine *Engine, broadcaster Broadcaster) *ResetController {
	return &ResetController{
		engine:      engine,
		broadcaster: broadcaster,
	}
}

// RequestReset returns the shared state to its initial values. With
// participants present progress restarts at the connect floor and the loop
// resumes; with nobody present the engine goes idle at zero. Repeated
// requests converge on the same state and only re-broadcast Reset.
func (c *ResetController) RequestReset() {
	e := c.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.registry.count
	e.launched = false
	if n > 0 {
		e.progress = ConnectFloor
		e.startLocked()
	} else {
		e.progress = MinProgress
		e.stopLocked()
	}

	c.broadcaster.BroadcastAll(Reset{})

	log.Info().
		Int("participants", n).
		Float64("progress", e.progress).
		Msg("game state reset")
}
