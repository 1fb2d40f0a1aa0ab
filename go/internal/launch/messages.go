package launch

// MessageType tags the variants of Message
type MessageType string

const (
	MessageTypeProgressUpdate MessageType = "progressUpdate"
	MessageTypeLaunch         MessageType = "launch"
	MessageTypeReset          MessageType = "gameReset"
)

// Message is an outbound message produced by the engine
type Message interface {
	Type() MessageType
}

// ProgressUpdate carries the shared progress and the number of participants present
type ProgressUpdate struct {
	Progress         float64 `json:"progress"`
	ParticipantCount int     `json:"userCount"`
}

// Launch is emitted once per cycle when progress reaches the maximum
type Launch struct{}

// Reset is emitted after a reset request re-arms the cycle
type Reset struct{}

func (ProgressUpdate) Type() MessageType { return MessageTypeProgressUpdate }
func (Launch) Type() MessageType         { return MessageTypeLaunch }
func (Reset) Type() MessageType          { return MessageTypeReset }
