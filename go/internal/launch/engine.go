package launch

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	MinProgress = 0.0
	MaxProgress = 100.0

	// ProgressPerParticipant is added once per tick for every participant present
	ProgressPerParticipant = 0.1
	// DecayPerTick is subtracted once per tick while nobody is connected
	DecayPerTick = 1.0
	// ConnectFloor is the progress the first participant nudges an empty bar to
	ConnectFloor = 1.0

	DefaultTickRate = time.Second
)

// State is the lifecycle state of the engine
type State string

const (
	StateIdle         State = "IDLE"
	StateAccumulating State = "ACCUMULATING"
	StateLaunched     State = "LAUNCHED"
)

// Config holds engine configuration
type Config struct {
	TickRate time.Duration
	// Clock drives the tick loop. In production, use clockwork.NewRealClock(). In tests, a FakeClock.
	Clock clockwork.Clock
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		TickRate: DefaultTickRate,
		Clock:    clockwork.NewRealClock(),
	}
}

// Status is a consistent copy of the shared state
type Status struct {
	Progress         float64 `json:"progress"`
	ParticipantCount int     `json:"userCount"`
	Launched         bool    `json:"launched"`
	State            State   `json:"state"`
	Running          bool    `json:"running"`
}

// Engine owns the shared progress state and the periodic advancement loop.
//
// A single mutex guards progress, the launch flag, the loop generation and
// the registry's participant count, so connect, disconnect, tick and reset
// are applied one at a time. Messages are handed to the broadcaster while
// the lock is held.
type Engine struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	tickRate    time.Duration
	broadcaster Broadcaster
	registry    *Registry

	progress float64
	launched bool

	// Loop bookkeeping. generation changes every time the loop is started or
	// stopped so a tick from a cancelled loop can never apply.
	running    bool
	generation uint64
	cancelLoop context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine creates an idle engine with progress at zero
func NewEngine(config Config, broadcaster Broadcaster) *Engine {
	if config.TickRate <= 0 {
		config.TickRate = DefaultTickRate
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		clock:       config.Clock,
		tickRate:    config.TickRate,
		broadcaster: broadcaster,
		ctx:         ctx,
		cancel:      cancel,
	}
	e.registry = &Registry{engine: e}
	return e
}

// Registry returns the participant registry bound to this engine
func (e *Engine) Registry() *Registry {
	return e.registry
}

// TickRate returns the interval between ticks
func (e *Engine) TickRate() time.Duration {
	return e.tickRate
}

// Start begins ticking. It is a no-op when the loop is already running or
// the engine has launched.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLocked()
}

// Stop halts ticking. Ticks already scheduled by the stopped loop are discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Close stops the loop for good. Start is a no-op afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.cancel()
}

// Tick runs one advancement step now, as if the loop's ticker had fired.
// It is a no-op while the loop is stopped.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.tickLocked()
}

// SendSnapshot delivers the current state to a single participant
func (e *Engine) SendSnapshot(id ParticipantID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sendSnapshotLocked(id)
}

// Snapshot returns the current state
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		Progress:         e.progress,
		ParticipantCount: e.registry.count,
		Launched:         e.launched,
		State:            e.stateLocked(),
		Running:          e.running,
	}
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	switch {
	case e.launched:
		return StateLaunched
	case e.running:
		return StateAccumulating
	default:
		return StateIdle
	}
}

func (e *Engine) startLocked() {
	if e.running || e.launched || e.ctx.Err() != nil {
		return
	}

	e.generation++
	ctx, cancel := context.WithCancel(e.ctx)
	e.cancelLoop = cancel
	e.running = true

	ticker := e.clock.NewTicker(e.tickRate)
	go e.loop(ctx, ticker, e.generation)

	log.Debug().
		Uint64("generation", e.generation).
		Dur("tick_rate", e.tickRate).
		Msg("progress loop started")
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}

	e.running = false
	e.generation++
	if e.cancelLoop != nil {
		e.cancelLoop()
		e.cancelLoop = nil
	}

	log.Debug().Uint64("generation", e.generation).Msg("progress loop stopped")
}

func (e *Engine) loop(ctx context.Context, ticker clockwork.Ticker, generation uint64) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !e.scheduledTick(generation) {
				return
			}
		}
	}
}

// scheduledTick applies a loop tick if its loop is still the current one.
// It reports whether the loop should keep running.
func (e *Engine) scheduledTick(generation uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running || generation != e.generation {
		return false
	}
	e.tickLocked()
	return e.running && generation == e.generation
}

func (e *Engine) tickLocked() {
	if e.launched {
		return
	}

	n := e.registry.count
	if n > 0 {
		e.progress += float64(n) * ProgressPerParticipant
	} else {
		e.progress -= DecayPerTick
	}
	e.progress = clampProgress(e.progress)

	e.broadcaster.BroadcastAll(ProgressUpdate{Progress: e.progress, ParticipantCount: n})

	if e.progress >= MaxProgress {
		e.launched = true
		e.broadcaster.BroadcastAll(Launch{})
		e.stopLocked()
		log.Info().Int("participants", n).Msg("launched")
		return
	}

	// Nobody left and nothing to decay
	if n == 0 && e.progress == MinProgress {
		e.stopLocked()
		log.Debug().Msg("progress engine idle")
	}
}

func (e *Engine) sendSnapshotLocked(id ParticipantID) {
	e.broadcaster.Send(id, ProgressUpdate{Progress: e.progress, ParticipantCount: e.registry.count})
	if e.launched {
		e.broadcaster.Send(id, Launch{})
	}
}

func clampProgress(p float64) float64 {
	if p < MinProgress {
		return MinProgress
	}
	if p > MaxProgress {
		return MaxProgress
	}
	return p
}
