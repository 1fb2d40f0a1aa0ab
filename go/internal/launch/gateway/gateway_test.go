package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liftoff/go/internal/launch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGateway starts a gateway whose engine only ticks when the test says so
func newTestGateway(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()

	svc, srv, start := newPausedGateway(t)
	start()
	return svc, srv
}

// newPausedGateway serves HTTP but holds back the dispatcher until start is called
func newPausedGateway(t *testing.T) (*Service, *httptest.Server, func()) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Engine = launch.Config{TickRate: time.Second, Clock: clockwork.NewFakeClock()}
	cfg.ConnectionConfig.SendBufferSize = 2048
	cfg.ConnectionConfig.BroadcastBuffer = 4096

	svc, err := NewService(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return svc, srv, func() { go svc.Start(ctx) }
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/launch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) launch.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event LaunchEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.NotEmpty(t, event.ID)

	msg, err := ParseEventMessage(&event)
	require.NoError(t, err)
	return msg
}

func getState(t *testing.T, srv *httptest.Server) launch.Status {
	t.Helper()

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status launch.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return status
}

func TestGateway_LaunchCycle(t *testing.T) {
	svc, srv := newTestGateway(t)
	engine := svc.Launchpad().Engine

	first := dial(t, srv)
	assert.Equal(t, launch.ProgressUpdate{Progress: 1, ParticipantCount: 1}, readMessage(t, first))

	for i := 0; i < 2000 && !engine.Snapshot().Launched; i++ {
		engine.Tick()
	}
	require.True(t, engine.Snapshot().Launched)

	// Updates arrive in order and the last one before launch is pinned at max
	var last launch.ProgressUpdate
	for {
		msg := readMessage(t, first)
		if _, ok := msg.(launch.Launch); ok {
			break
		}
		update, ok := msg.(launch.ProgressUpdate)
		require.True(t, ok, "unexpected message %T", msg)
		require.GreaterOrEqual(t, update.Progress, last.Progress)
		last = update
	}
	assert.Equal(t, launch.ProgressUpdate{Progress: 100, ParticipantCount: 1}, last)

	// A late joiner sees the snapshot then the launch
	late := dial(t, srv)
	assert.Equal(t, launch.ProgressUpdate{Progress: 100, ParticipantCount: 2}, readMessage(t, late))
	assert.Equal(t, launch.Launch{}, readMessage(t, late))

	// Garbage is ignored, a reset request reaches everyone
	require.NoError(t, late.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, late.WriteJSON(ClientCommand{Type: ClientCommandRequestReset}))

	assert.Equal(t, launch.Reset{}, readMessage(t, first))
	assert.Equal(t, launch.Reset{}, readMessage(t, late))

	status := getState(t, srv)
	assert.Equal(t, 1.0, status.Progress)
	assert.Equal(t, 2, status.ParticipantCount)
	assert.False(t, status.Launched)
	assert.Equal(t, launch.StateAccumulating, status.State)

	// Leaving is visible to the others right away
	require.NoError(t, late.Close())
	assert.Equal(t, launch.ProgressUpdate{Progress: 1, ParticipantCount: 1}, readMessage(t, first))
}

func TestGateway_LastDisconnectResetsProgress(t *testing.T) {
	svc, srv := newTestGateway(t)

	conn := dial(t, srv)
	readMessage(t, conn)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return svc.Launchpad().Registry.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)

	status := getState(t, srv)
	assert.Equal(t, 0.0, status.Progress)
	assert.Equal(t, 0, status.ParticipantCount)
}

func TestGateway_HTTPReset(t *testing.T) {
	svc, srv := newTestGateway(t)
	engine := svc.Launchpad().Engine

	conn := dial(t, srv)
	readMessage(t, conn)
	engine.Tick()
	readMessage(t, conn)

	resp, err := http.Post(srv.URL+"/api/reset", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status launch.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 1.0, status.Progress)
	assert.Equal(t, launch.Reset{}, readMessage(t, conn))
}

func TestGateway_StatsAndHealth(t *testing.T) {
	_, srv := newTestGateway(t)
	conn := dial(t, srv)
	readMessage(t, conn)

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, float64(1), stats["total_connections"])

	healthResp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer healthResp.Body.Close()
	assert.Equal(t, http.StatusOK, healthResp.StatusCode)

	var health HealthStatus
	require.NoError(t, json.NewDecoder(healthResp.Body).Decode(&health))
	assert.True(t, health.Healthy)
	assert.False(t, health.NATSEnabled)
	assert.Equal(t, 1, health.Participants)
	assert.Equal(t, launch.StateAccumulating, health.State)
}

func TestGateway_JoinerSkipsBacklog(t *testing.T) {
	svc, srv, start := newPausedGateway(t)
	lp := svc.Launchpad()

	// Launch while nothing is being delivered, leaving a backlog of
	// snapshots, updates and a launch queued ahead of the next socket
	for i := 0; i < 500; i++ {
		lp.Connect(launch.ParticipantID(fmt.Sprintf("bot-%d", i)))
	}
	lp.Engine.Tick()
	lp.Engine.Tick()
	require.True(t, lp.Engine.Snapshot().Launched)

	conn := dial(t, srv)
	start()

	assert.Equal(t, launch.ProgressUpdate{Progress: 100, ParticipantCount: 501}, readMessage(t, conn))
	assert.Equal(t, launch.Launch{}, readMessage(t, conn))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestGateway_SmallSendBufferSurvivesBacklog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine = launch.Config{TickRate: time.Second, Clock: clockwork.NewFakeClock()}
	cfg.ConnectionConfig.SendBufferSize = 4

	svc, err := NewService(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(svc.Handler())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	lp := svc.Launchpad()
	lp.Connect("bot")
	for i := 0; i < 50; i++ {
		lp.Engine.Tick()
	}

	conn := dial(t, srv)
	go svc.Start(ctx)

	snapshot := lp.Engine.Snapshot()
	assert.Equal(t, launch.ProgressUpdate{Progress: snapshot.Progress, ParticipantCount: 2}, readMessage(t, conn))
	assert.Equal(t, 2, lp.Registry.Count())
}
