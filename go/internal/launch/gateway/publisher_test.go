package gateway

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/mcdev12/liftoff/go/internal/launch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeMessagePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (f *fakeMessagePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{subject: subject, data: data})
	return nil
}

func TestNATSPublisher_PublishesBroadcasts(t *testing.T) {
	conn := &fakeMessagePublisher{}
	p := NewNATSPublisher(conn, "launch.events")

	p.BroadcastAll(launch.ProgressUpdate{Progress: 42.5, ParticipantCount: 3})
	p.BroadcastAll(launch.Launch{})
	p.BroadcastAll(launch.Reset{})

	require.Len(t, conn.messages, 3)
	assert.Equal(t, "launch.events.progressUpdate", conn.messages[0].subject)
	assert.Equal(t, "launch.events.launch", conn.messages[1].subject)
	assert.Equal(t, "launch.events.gameReset", conn.messages[2].subject)

	var event LaunchEvent
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &event))
	msg, err := ParseEventMessage(&event)
	require.NoError(t, err)
	assert.Equal(t, launch.ProgressUpdate{Progress: 42.5, ParticipantCount: 3}, msg)
}

func TestNATSPublisher_IgnoresSnapshots(t *testing.T) {
	conn := &fakeMessagePublisher{}
	p := NewNATSPublisher(conn, "launch.events")

	p.Send("p1", launch.ProgressUpdate{Progress: 1, ParticipantCount: 1})

	assert.Empty(t, conn.messages)
}

func TestNATSPublisher_FailureIsIsolated(t *testing.T) {
	conn := &fakeMessagePublisher{err: errors.New("nats: connection closed")}
	p := NewNATSPublisher(conn, "launch.events")

	assert.NotPanics(t, func() {
		p.BroadcastAll(launch.Launch{})
	})
}

func TestParseEventMessage(t *testing.T) {
	event, err := NewLaunchEvent("evt-1", launch.ProgressUpdate{Progress: 12.3, ParticipantCount: 4}, testTime)
	require.NoError(t, err)
	assert.JSONEq(t, `{"progress":12.3,"userCount":4}`, string(event.Data))

	launchEvent, err := NewLaunchEvent("evt-2", launch.Launch{}, testTime)
	require.NoError(t, err)
	assert.Nil(t, launchEvent.Data)

	_, err = ParseEventMessage(&LaunchEvent{Type: "countdown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}
