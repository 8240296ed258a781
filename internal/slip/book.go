package slip

import (
	"sync"

	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

type Snapshot struct {
	GameType   wager.GameType   `json:"game_type,omitempty"`
	Entries    []wager.Proposal `json:"entries"`
	TotalWager decimal.Decimal  `json:"total_wager"`
}

type Book struct {
	mu    sync.Mutex
	slips map[string]*Slip
}

func NewBook() *Book {
	return &Book{slips: map[string]*Slip{}}
}

func (b *Book) Add(player string, p wager.Proposal) (Signal, Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.slipLocked(player)
	sig := s.Add(p)
	return sig, snapshotOf(s)
}

func (b *Book) Remove(player, proposalID string) (bool, Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.slipLocked(player)
	ok := s.Remove(proposalID)
	return ok, snapshotOf(s)
}

func (b *Book) Clear(player string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.slips, player)
}

func (b *Book) Snapshot(player string) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshotOf(b.slipLocked(player))
}

func (b *Book) slipLocked(player string) *Slip {
	s, ok := b.slips[player]
	if !ok {
		s = &Slip{}
		b.slips[player] = s
	}
	return s
}

func snapshotOf(s *Slip) Snapshot {
	return Snapshot{
		GameType:   s.GameType(),
		Entries:    s.Entries(),
		TotalWager: s.TotalWager(),
	}
}
