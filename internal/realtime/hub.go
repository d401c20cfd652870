// Package realtime is an in-process publish/subscribe hub. Notification and
// chat services publish to it; SSE and WebSocket handlers subscribe.
package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/observability"
)

// subscriberBuffer is how many undelivered items a subscriber may lag behind
// before further items are dropped for it.
const subscriberBuffer = 32

// UserTopic is the topic carrying a user's notifications.
func UserTopic(id uuid.UUID) string { return "user:" + id.String() }

// ConversationTopic is the topic carrying a conversation's messages.
func ConversationTopic(id uuid.UUID) string { return "conversation:" + id.String() }

type subscriber struct {
	ch chan any
}

// Hub fans published items out to the subscribers of a topic.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{topics: map[string]map[*subscriber]struct{}{}}
}

// Subscribe registers for items on topic. The returned cancel func must be
// called to release the subscription; it closes the channel.
func (h *Hub) Subscribe(topic string) (<-chan any, func()) {
	sub := &subscriber{ch: make(chan any, subscriberBuffer)}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = map[*subscriber]struct{}{}
	}
	h.topics[topic][sub] = struct{}{}
	h.mu.Unlock()
	observability.SubscriberOpened()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.topics[topic], sub)
			if len(h.topics[topic]) == 0 {
				delete(h.topics, topic)
			}
			close(sub.ch)
			h.mu.Unlock()
			observability.SubscriberClosed()
		})
	}
	return sub.ch, cancel
}

// Publish delivers item to every current subscriber of topic without
// blocking. It returns how many subscribers received it.
func (h *Hub) Publish(topic string, item any) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- item:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of live subscribers on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
