package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"wager-engine/internal/fairness"
	"wager-engine/internal/ledger"
	"wager-engine/internal/session"
	"wager-engine/internal/wager"
)

// Memory keeps everything in process. Reads return copies so callers never
// alias stored state.
type Memory struct {
	mu          sync.RWMutex
	bets        map[string]wager.Bet
	sessions    map[string][]byte
	commitments map[string]fairness.Commitment
	history     map[string][]ledger.Entry
	requests    map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		bets:        map[string]wager.Bet{},
		sessions:    map[string][]byte{},
		commitments: map[string]fairness.Commitment{},
		history:     map[string][]ledger.Entry{},
		requests:    map[string]string{},
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) LoadBet(_ context.Context, id string) (wager.Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bets[id]
	if !ok {
		return wager.Bet{}, ErrNotFound
	}
	return cloneBet(b)
}

func (m *Memory) ListBets(_ context.Context, f BetFilter, limit, offset int) ([]wager.Bet, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	matched := make([]wager.Bet, 0, len(m.bets))
	for _, b := range m.bets {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.PlayerHandle != "" && b.PlayerHandle != f.PlayerHandle {
			continue
		}
		matched = append(matched, b)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return []wager.Bet{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]wager.Bet, 0, len(matched))
	for _, b := range matched {
		c, err := cloneBet(b)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) LoadSession(_ context.Context, betID string) (*session.Session, error) {
	m.mu.RLock()
	doc, ok := m.sessions[betID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var s session.Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Memory) LoadCommitment(_ context.Context, betID string) (fairness.Commitment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.commitments[betID]
	if !ok {
		return fairness.Commitment{}, ErrNotFound
	}
	c.Draws = append([]uint64(nil), c.Draws...)
	return c, nil
}

func (m *Memory) History(_ context.Context, betID string) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ledger.Entry(nil), m.history[betID]...), nil
}

func (m *Memory) BetForRequest(_ context.Context, playerHandle, requestID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.requests[requestKey(playerHandle, requestID)]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func requestKey(playerHandle, requestID string) string {
	return playerHandle + "\x00" + requestID
}

// Atomically stages the writes of fn and applies them only if fn succeeds.
func (m *Memory) Atomically(ctx context.Context, fn func(Tx) error) error {
	tx := &memTx{}
	if err := fn(tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range tx.bets {
		m.bets[b.ID] = b
	}
	for id, doc := range tx.sessions {
		m.sessions[id] = doc
	}
	for _, c := range tx.commitments {
		m.commitments[c.BetID] = c
	}
	for _, e := range tx.history {
		m.history[e.BetID] = append(m.history[e.BetID], e)
	}
	for k, id := range tx.requests {
		m.requests[k] = id
	}
	return nil
}

type memTx struct {
	bets        []wager.Bet
	sessions    map[string][]byte
	commitments []fairness.Commitment
	history     []ledger.Entry
	requests    map[string]string
}

func (t *memTx) SaveBet(_ context.Context, b wager.Bet) error {
	c, err := cloneBet(b)
	if err != nil {
		return err
	}
	t.bets = append(t.bets, c)
	return nil
}

func (t *memTx) SaveSession(_ context.Context, s *session.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if t.sessions == nil {
		t.sessions = map[string][]byte{}
	}
	t.sessions[s.BetID] = doc
	return nil
}

func (t *memTx) SaveCommitment(_ context.Context, c fairness.Commitment) error {
	c.Draws = append([]uint64(nil), c.Draws...)
	t.commitments = append(t.commitments, c)
	return nil
}

func (t *memTx) AppendHistory(_ context.Context, e ledger.Entry) error {
	t.history = append(t.history, e)
	return nil
}

func (t *memTx) SaveRequest(_ context.Context, playerHandle, requestID, betID string) error {
	if t.requests == nil {
		t.requests = map[string]string{}
	}
	t.requests[requestKey(playerHandle, requestID)] = betID
	return nil
}

func cloneBet(b wager.Bet) (wager.Bet, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return wager.Bet{}, err
	}
	var out wager.Bet
	if err := json.Unmarshal(raw, &out); err != nil {
		return wager.Bet{}, err
	}
	return out, nil
}
