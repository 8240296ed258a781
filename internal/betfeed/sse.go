package betfeed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var ssePingInterval = 15 * time.Second

func WriteSSE(w http.ResponseWriter, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.EventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Event); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Content-Type-Options", "nosniff")
}

// ServeSSE replays buf after the request's Last-Event-ID and then streams
// until the client leaves or the buffer is closed.
func ServeSSE(w http.ResponseWriter, r *http.Request, buf *Buffer, betID string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("stream_not_supported")
	}
	SetSSEHeaders(w)

	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)

	last := r.Header.Get("Last-Event-ID")
	for _, ev := range buf.ReplayAfter(last) {
		if err := WriteSSE(w, ev); err != nil {
			return nil
		}
		last = ev.EventID
	}
	flusher.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if !newer(ev.EventID, last) {
				continue
			}
			if err := WriteSSE(w, ev); err != nil {
				return nil
			}
			last = ev.EventID
			flusher.Flush()
		case <-ticker.C:
			now := time.Now().UnixMilli()
			ping := Event{Event: "ping", BetID: betID, ServerTS: now, Data: map[string]any{"ts": now}}
			if err := WriteSSE(w, ping); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func newer(id, last string) bool {
	if last == "" {
		return true
	}
	a, errA := strconv.ParseInt(id, 10, 64)
	b, errB := strconv.ParseInt(last, 10, 64)
	if errA != nil || errB != nil {
		return true
	}
	return a > b
}
