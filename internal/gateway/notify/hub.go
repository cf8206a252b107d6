package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const subscriberBuffer = 16

// Hub routes notices to per-session subscribers. A subscriber that falls
// behind loses its oldest pending notice rather than stalling Notify.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Notice]struct{}
	now  func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan Notice]struct{}),
		now:  time.Now,
	}
}

// Subscribe returns a channel of notices for sessionID. The channel is closed
// once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, sessionID string) (<-chan Notice, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	ch := make(chan Notice, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[chan Notice]struct{})
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (h *Hub) Notify(_ context.Context, n Notice) {
	if n.At.IsZero() {
		n.At = h.now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[n.SessionID] {
		push(ch, n)
	}
}

func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

func push(ch chan Notice, n Notice) {
	select {
	case ch <- n:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- n:
	default:
	}
}
