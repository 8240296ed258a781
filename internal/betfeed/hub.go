package betfeed

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub owns one Buffer per bet and a fan-out list per player. The oldest bet
// buffers are closed once more than maxBets are tracked.
type Hub struct {
	mu        sync.Mutex
	perBet    int
	maxBets   int
	bets      map[string]*Buffer
	owners    map[string]string
	order     []string
	listeners map[string]map[chan Event]struct{}
}

func NewHub(perBet, maxBets int) *Hub {
	if maxBets <= 0 {
		maxBets = 10000
	}
	return &Hub{
		perBet:    perBet,
		maxBets:   maxBets,
		bets:      map[string]*Buffer{},
		owners:    map[string]string{},
		listeners: map[string]map[chan Event]struct{}{},
	}
}

func (h *Hub) Publish(playerHandle, betID, event string, data any) {
	buf := h.Ensure(playerHandle, betID)
	ev := buf.Append(event, betID, data)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.listeners[playerHandle] {
		select {
		case ch <- ev:
		default:
			log.Debug().Str("player", playerHandle).Str("bet_id", betID).Msg("feed listener full, event dropped")
		}
	}
}

func (h *Hub) evictLocked() {
	for len(h.order) > h.maxBets {
		oldest := h.order[0]
		h.order = h.order[1:]
		if buf := h.bets[oldest]; buf != nil {
			buf.Close()
		}
		delete(h.bets, oldest)
		delete(h.owners, oldest)
	}
}

// Ensure returns the bet's buffer, creating an empty one so a stream can attach
// before the first event.
func (h *Hub) Ensure(playerHandle, betID string) *Buffer {
	h.mu.Lock()
	defer h.mu.Unlock()
	if buf, ok := h.bets[betID]; ok {
		return buf
	}
	buf := NewBuffer(h.perBet)
	h.bets[betID] = buf
	h.owners[betID] = playerHandle
	h.order = append(h.order, betID)
	h.evictLocked()
	return buf
}

func (h *Hub) Listen(playerHandle string) chan Event {
	ch := make(chan Event, 64)
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.listeners[playerHandle]
	if set == nil {
		set = map[chan Event]struct{}{}
		h.listeners[playerHandle] = set
	}
	set[ch] = struct{}{}
	return ch
}

func (h *Hub) Unlisten(playerHandle string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.listeners[playerHandle]
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.listeners, playerHandle)
	}
}
