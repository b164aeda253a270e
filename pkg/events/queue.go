package events

import (
	"sync"
	"time"
)

// PendingEvent is a loan event that could not be delivered to the broker and
// is waiting to be republished.
type PendingEvent struct {
	RoutingKey string
	Body       []byte
	RetryAt    time.Time
	Attempts   int
}

// PendingQueue buffers undelivered events until their retry time is due.
type PendingQueue struct {
	items []*PendingEvent
	mu    sync.Mutex
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{
		items: make([]*PendingEvent, 0),
	}
}

func (q *PendingQueue) Enqueue(ev *PendingEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, ev)
}

// Dequeue removes and returns the first event whose retry time has passed,
// or nil if nothing is due yet.
func (q *PendingQueue) Dequeue() *PendingEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for i, ev := range q.items {
		if !ev.RetryAt.After(now) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return ev
		}
	}
	return nil
}

func (q *PendingQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
