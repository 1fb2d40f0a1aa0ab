package launch

//go:generate mockgen -destination=mocks/mock_broadcaster.go -package=mocks github.com/mcdev12/liftoff/go/internal/launch Broadcaster

// ParticipantID identifies one connected participant as a delivery target
type ParticipantID string

// Broadcaster delivers engine messages to connected participants.
//
// Implementations must not block: the engine calls them while holding its
// lock so that enqueue order matches the order of state changes. Delivery
// failures stay inside the implementation.
type Broadcaster interface {
	// BroadcastAll delivers msg to every participant currently connected
	BroadcastAll(msg Message)
	// Send delivers msg to a single participant
	Send(id ParticipantID, msg Message)
}

// MultiBroadcaster fans messages out to several broadcasters
type MultiBroadcaster []Broadcaster

func (m MultiBroadcaster) BroadcastAll(msg Message) {
	for _, b := range m {
		b.BroadcastAll(msg)
	}
}

func (m MultiBroadcaster) Send(id ParticipantID, msg Message) {
	for _, b := range m {
		b.Send(id, msg)
	}
}
