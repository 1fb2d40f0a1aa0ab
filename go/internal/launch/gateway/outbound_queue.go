package gateway

import (
	"sync"

	"github.com/mcdev12/liftoff/go/internal/launch"
)

// outboundQueue is the FIFO between the engine and the dispatcher. Pushing
// never blocks. Once the queue holds limit messages, further progress
// broadcasts are shed; launch, reset and per-participant messages are
// always kept because nothing later supersedes them.
type outboundQueue struct {
	mu     sync.Mutex
	items  []OutboundMessage
	limit  int
	notify chan struct{}
}

func newOutboundQueue(limit int) *outboundQueue {
	return &outboundQueue{
		items:  make([]OutboundMessage, 0, limit),
		limit:  limit,
		notify: make(chan struct{}, 1),
	}
}

// push appends a message and reports whether it was kept
func (q *outboundQueue) push(msg OutboundMessage) bool {
	q.mu.Lock()
	if len(q.items) >= q.limit && sheddable(msg) {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// drain takes every queued message in order
func (q *outboundQueue) drain() []OutboundMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = make([]OutboundMessage, 0, q.limit)
	return items
}

func (q *outboundQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func sheddable(msg OutboundMessage) bool {
	if msg.Target != "" {
		return false
	}
	_, ok := msg.Message.(launch.ProgressUpdate)
	return ok
}
