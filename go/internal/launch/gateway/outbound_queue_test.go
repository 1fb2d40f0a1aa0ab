package gateway

import (
	"testing"

	"github.com/mcdev12/liftoff/go/internal/launch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboundQueue_ShedsOnlyProgressBroadcasts(t *testing.T) {
	q := newOutboundQueue(2)

	assert.True(t, q.push(OutboundMessage{Message: launch.ProgressUpdate{Progress: 1, ParticipantCount: 1}}))
	assert.True(t, q.push(OutboundMessage{Message: launch.ProgressUpdate{Progress: 2, ParticipantCount: 1}}))

	assert.False(t, q.push(OutboundMessage{Message: launch.ProgressUpdate{Progress: 3, ParticipantCount: 1}}))
	assert.True(t, q.push(OutboundMessage{Message: launch.Launch{}}))
	assert.True(t, q.push(OutboundMessage{Target: "p1", Message: launch.ProgressUpdate{Progress: 2, ParticipantCount: 2}}))
	assert.True(t, q.push(OutboundMessage{Message: launch.Reset{}}))
	assert.Equal(t, 5, q.len())

	items := q.drain()
	require.Len(t, items, 5)
	assert.Equal(t, launch.ProgressUpdate{Progress: 2, ParticipantCount: 1}, items[1].Message)
	assert.Equal(t, launch.Launch{}, items[2].Message)
	assert.Equal(t, launch.ParticipantID("p1"), items[3].Target)
	assert.Equal(t, launch.Reset{}, items[4].Message)
	assert.Equal(t, 0, q.len())

	assert.True(t, q.push(OutboundMessage{Message: launch.ProgressUpdate{Progress: 3, ParticipantCount: 1}}))
}

func TestOutboundQueue_NotifiesWithoutBlocking(t *testing.T) {
	q := newOutboundQueue(8)

	for i := 0; i < 3; i++ {
		q.push(OutboundMessage{Message: launch.Launch{}})
	}

	select {
	case <-q.notify:
	default:
		t.Fatal("expected a pending notification")
	}
	assert.Len(t, q.drain(), 3)
}
