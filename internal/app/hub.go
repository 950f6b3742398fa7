package app

import (
	"sync"

	"github.com/ayusman/pinchtree/internal/gesture"
	"github.com/ayusman/pinchtree/internal/interaction"
)

// Message types published to subscribers.
const (
	MessageFrame = "frame"
	MessageMode  = "mode"
)

// Message is one update for UI consumers. Frame messages carry the per-frame
// Event; mode messages carry the transition.
type Message struct {
	Type      string                  `json:"type"`
	Mode      interaction.Mode        `json:"mode"`
	Event     *interaction.Event      `json:"event,omitempty"`
	Status    interaction.Status      `json:"status,omitempty"`
	Candidate *gesture.Candidate      `json:"candidate,omitempty"`
	Change    *interaction.ModeChange `json:"change,omitempty"`
	Source    string                  `json:"source,omitempty"`
}

// Hub broadcasts messages to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the message.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Message]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Message]struct{})}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// func unsubscribes and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(buffer int) (<-chan Message, func()) {
	ch := make(chan Message, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers m to every subscriber with room for it.
func (h *Hub) Publish(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
