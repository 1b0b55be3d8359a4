package queue

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/wirelive/multihost-service/internal/domain"
)

// ErrDuplicateEntry is returned by Append when an entry with the same id
// and kind is already pending.
var ErrDuplicateEntry = errors.New("queue: entry already pending")

const subscriberBuffer = 32

// TimestampQueue keeps pending seat negotiation entries in arrival order,
// at most one entry per (kind, id), and fans a full snapshot out to
// subscribers after every mutation. Snapshots are delivered in mutation
// order; new subscribers only see future changes.
type TimestampQueue struct {
	name string

	mu          sync.Mutex
	entries     []domain.PendingEntry
	subscribers map[string]chan []domain.PendingEntry
	closed      bool
}

// New creates an empty queue. The name only shows up in logs.
func New(name string) *TimestampQueue {
	return &TimestampQueue{
		name:        name,
		subscribers: make(map[string]chan []domain.PendingEntry),
	}
}

// Name returns the queue's log name.
func (q *TimestampQueue) Name() string {
	return q.name
}

// Append inserts entry at the tail and notifies subscribers. An entry whose
// (kind, id) is already pending is rejected with ErrDuplicateEntry and the
// queue stays untouched.
func (q *TimestampQueue) Append(entry domain.PendingEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, cur := range q.entries {
		if cur.EntryID() == entry.EntryID() && cur.Kind() == entry.Kind() {
			return ErrDuplicateEntry
		}
	}

	q.entries = append(q.entries, entry)
	q.notifyLocked()
	return nil
}

// Remove deletes the entry matching entry's kind and id. Removing an absent
// entry is a no-op and notifies nobody.
func (q *TimestampQueue) Remove(entry domain.PendingEntry) {
	q.RemoveByID(entry.Kind(), entry.EntryID())
}

// RemoveByID deletes the entry with the given kind and id, if present.
func (q *TimestampQueue) RemoveByID(kind domain.EntryKind, id int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, cur := range q.entries {
		if cur.EntryID() == id && cur.Kind() == kind {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			q.notifyLocked()
			return
		}
	}
}

// Find returns the pending entry with the given kind and id.
func (q *TimestampQueue) Find(kind domain.EntryKind, id int) (domain.PendingEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, cur := range q.entries {
		if cur.EntryID() == id && cur.Kind() == kind {
			return cur, true
		}
	}
	return nil, false
}

// Entries returns a copy of the current ordered entries.
func (q *TimestampQueue) Entries() []domain.PendingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Len returns the number of pending entries.
func (q *TimestampQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Subscribe registers a snapshot channel and returns its token. The channel
// receives the full ordered entry list after every mutation; it does not
// replay history.
func (q *TimestampQueue) Subscribe() (string, <-chan []domain.PendingEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan []domain.PendingEntry, subscriberBuffer)
	if q.closed {
		close(ch)
		return id, ch
	}
	q.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown tokens
// are ignored.
func (q *TimestampQueue) Unsubscribe(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, ok := q.subscribers[id]; ok {
		delete(q.subscribers, id)
		close(ch)
	}
}

// Close closes all subscriber channels. The queue rejects no further
// mutations; it just stops notifying.
func (q *TimestampQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	for id, ch := range q.subscribers {
		delete(q.subscribers, id)
		close(ch)
	}
}

func (q *TimestampQueue) snapshotLocked() []domain.PendingEntry {
	snap := make([]domain.PendingEntry, len(q.entries))
	copy(snap, q.entries)
	return snap
}

// notifyLocked sends the current snapshot to every subscriber. Sending under
// the lock keeps snapshots in mutation order; a subscriber that falls
// subscriberBuffer snapshots behind misses the intermediate states.
func (q *TimestampQueue) notifyLocked() {
	if q.closed {
		return
	}
	snap := q.snapshotLocked()
	for _, ch := range q.subscribers {
		select {
		case ch <- snap:
		default:
			// Subscriber buffer full; drop the oldest state so the
			// latest one always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
