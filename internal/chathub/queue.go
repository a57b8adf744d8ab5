package chathub

import "pairchat/backend/internal/models"

// MatchQueue is the FIFO of connections waiting for a random partner.
// A connection appears at most once.
type MatchQueue struct {
	registry *Registry
	order    []string
	members  map[string]struct{}
}

func NewMatchQueue(registry *Registry) *MatchQueue {
	return &MatchQueue{
		registry: registry,
		members:  make(map[string]struct{}),
	}
}

// Enqueue appends a live connection. It returns false for unknown
// connections and for connections already waiting.
func (q *MatchQueue) Enqueue(connectionID string) bool {
	if _, ok := q.members[connectionID]; ok {
		return false
	}
	if !q.registry.IsLive(connectionID) {
		return false
	}
	q.order = append(q.order, connectionID)
	q.members[connectionID] = struct{}{}
	return true
}

// DequeueFirstAvailable removes and returns the earliest live entry other
// than excluding. Dead entries passed on the way are dropped.
func (q *MatchQueue) DequeueFirstAvailable(excluding string) (models.Identity, bool) {
	for i := 0; i < len(q.order); {
		id := q.order[i]
		if id == excluding {
			i++
			continue
		}
		identity, live := q.registry.Lookup(id)
		q.removeAt(i)
		if live {
			return identity, true
		}
	}
	return models.Identity{}, false
}

// Remove drops the connection from the queue. Absent ids are a no-op.
func (q *MatchQueue) Remove(connectionID string) {
	if _, ok := q.members[connectionID]; !ok {
		return
	}
	for i, id := range q.order {
		if id == connectionID {
			q.removeAt(i)
			return
		}
	}
}

func (q *MatchQueue) removeAt(i int) {
	delete(q.members, q.order[i])
	q.order = append(q.order[:i], q.order[i+1:]...)
}

func (q *MatchQueue) Contains(connectionID string) bool {
	_, ok := q.members[connectionID]
	return ok
}

func (q *MatchQueue) Len() int {
	return len(q.order)
}

// Waiting returns the queued connection ids in FIFO order.
func (q *MatchQueue) Waiting() []string {
	return append([]string(nil), q.order...)
}
