package launch

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

const testTickRate = time.Second

// delivery is one message handed to the broadcaster. To is empty for broadcasts.
type delivery struct {
	To  ParticipantID
	Msg Message
}

type recordingBroadcaster struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (r *recordingBroadcaster) BroadcastAll(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{Msg: msg})
}

func (r *recordingBroadcaster) Send(id ParticipantID, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{To: id, Msg: msg})
}

func (r *recordingBroadcaster) all() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

func (r *recordingBroadcaster) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}

func (r *recordingBroadcaster) count(typ MessageType) int {
	n := 0
	for _, d := range r.all() {
		if d.Msg.Type() == typ {
			n++
		}
	}
	return n
}

func (r *recordingBroadcaster) lastUpdate() (ProgressUpdate, bool) {
	all := r.all()
	for i := len(all) - 1; i >= 0; i-- {
		if u, ok := all[i].Msg.(ProgressUpdate); ok {
			return u, true
		}
	}
	return ProgressUpdate{}, false
}

func newTestEngine(t *testing.T) (*Engine, *clockwork.FakeClock, *recordingBroadcaster) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	rec := &recordingBroadcaster{}
	e := NewEngine(Config{TickRate: testTickRate, Clock: clock}, rec)
	t.Cleanup(e.Close)
	return e, clock, rec
}

// setProgress puts the engine in an arbitrary state for a test
func setProgress(e *Engine, progress float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = progress
}

func setCount(e *Engine, n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.count = n
}
