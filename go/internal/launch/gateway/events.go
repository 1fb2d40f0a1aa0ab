package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/liftoff/go/internal/launch"
)

// LaunchEvent is the wire envelope for every message sent to clients
type LaunchEvent struct {
	ID        string             `json:"id"`        // Event UUID
	Type      launch.MessageType `json:"type"`      // Event type
	Timestamp time.Time          `json:"timestamp"` // Event creation time
	Data      json.RawMessage    `json:"data,omitempty"`
}

// ClientCommandType identifies a command sent by a client
type ClientCommandType string

const (
	ClientCommandRequestReset ClientCommandType = "requestReset"
)

// ClientCommand is a message received from a client
type ClientCommand struct {
	Type ClientCommandType `json:"type"`
}

// NewLaunchEvent wraps an engine message in the wire envelope
func NewLaunchEvent(id string, msg launch.Message, at time.Time) (*LaunchEvent, error) {
	event := &LaunchEvent{
		ID:        id,
		Type:      msg.Type(),
		Timestamp: at,
	}

	// Launch and Reset carry no payload
	if update, ok := msg.(launch.ProgressUpdate); ok {
		data, err := json.Marshal(update)
		if err != nil {
			return nil, fmt.Errorf("marshal progress update: %w", err)
		}
		event.Data = data
	}

	return event, nil
}

// ParseEventMessage converts an envelope back into an engine message
func ParseEventMessage(event *LaunchEvent) (launch.Message, error) {
	switch event.Type {
	case launch.MessageTypeProgressUpdate:
		var payload launch.ProgressUpdate
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case launch.MessageTypeLaunch:
		return launch.Launch{}, nil

	case launch.MessageTypeReset:
		return launch.Reset{}, nil

	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}
