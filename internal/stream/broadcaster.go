// Package stream fans completed scenario runs out to live subscribers.
package stream

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-quake-impact/internal/models"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

type Broadcaster struct {
	subscribers map[uint64]chan *models.ScenarioRun
	nextID      atomic.Uint64
	dropped     atomic.Uint64
	buffer      int
	closed      bool
	mu          sync.RWMutex
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subscribers: make(map[uint64]chan *models.ScenarioRun),
		buffer:      buffer,
	}
}

// Subscribe registers a new subscriber. After Close the returned channel is
// already closed.
func (b *Broadcaster) Subscribe() (uint64, <-chan *models.ScenarioRun) {
	id := b.nextID.Add(1)
	ch := make(chan *models.ScenarioRun, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast offers run to every subscriber without blocking and returns how
// many received it. Subscribers with a full queue miss the run.
func (b *Broadcaster) Broadcast(run *models.ScenarioRun) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.subscribers {
		select {
		case ch <- run:
			delivered++
		default:
			b.dropped.Add(1)
		}
	}
	return delivered
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
