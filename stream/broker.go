// Package stream fans committed board mutations out to connected
// subscribers. Delivery is best-effort: each subscriber owns a bounded
// buffer and a slow consumer loses messages instead of blocking the rest of
// the board.
package stream

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"kanban-flow/domain"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 32

// Broker distributes encoded event envelopes to all current subscribers.
type Broker struct {
	buffer int
	log    *log.Logger

	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

// NewBroker creates a broker with the given per-subscriber buffer size.
// Non-positive sizes fall back to DefaultBuffer.
func NewBroker(buffer int, logger *log.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Broker{buffer: buffer, log: logger, subs: make(map[chan []byte]struct{})}
}

// Subscribe registers a new subscriber and returns its channel along with a
// cancel function to call when the subscriber goes away. Cancel closes the
// channel and is safe to call more than once.
func (b *Broker) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount reports how many subscribers are currently connected.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish encodes the event once and hands it to every subscriber. A full
// subscriber buffer drops the message for that subscriber only; such clients
// recover via the snapshot on their next connect.
func (b *Broker) Publish(ev domain.Event) {
	data, err := domain.EncodeEvent(ev)
	if err != nil {
		b.log.WithError(err).Error("encode board event")
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			b.log.WithField("type", ev.EventType()).Debug("subscriber buffer full, dropping event")
		}
	}
}
