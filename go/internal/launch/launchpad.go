package launch

// Launchpad wires the registry, engine and reset controller around one
// shared state and exposes the inbound events of the transport boundary.
type Launchpad struct {
	Engine   *Engine
	Registry *Registry
	Resetter *ResetController
}

// NewLaunchpad creates an idle launchpad delivering through broadcaster
func NewLaunchpad(config Config, broadcaster Broadcaster) *Launchpad {
	engine := NewEngine(config, broadcaster)
	return &Launchpad{
		Engine:   engine,
		Registry: engine.Registry(),
		Resetter: NewResetController(engine, broadcaster),
	}
}

// Connect handles a participant connecting
func (l *Launchpad) Connect(id ParticipantID) int {
	return l.Registry.Connect(id)
}

// Disconnect handles a participant disconnecting
func (l *Launchpad) Disconnect(id ParticipantID) int {
	return l.Registry.Disconnect(id)
}

// RequestReset handles a reset request from any participant
func (l *Launchpad) RequestReset() {
	l.Resetter.RequestReset()
}

// Snapshot returns the current shared state
func (l *Launchpad) Snapshot() Status {
	return l.Engine.Snapshot()
}

// Close stops the engine loop
func (l *Launchpad) Close() {
	l.Engine.Close()
}
