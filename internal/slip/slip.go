package slip

import (
	"fmt"

	"wager-engine/internal/payout"
	"wager-engine/internal/wager"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Signal string

const (
	Added                Signal = "added"
	Replaced             Signal = "replaced"
	ClearedForGameSwitch Signal = "cleared_for_game_switch"
)

func NewProposal(calc payout.Calculator, game wager.GameType, d wager.Details, amount decimal.Decimal) (wager.Proposal, error) {
	if game == wager.GameRoulette {
		if len(d.Roulette) != 1 {
			return wager.Proposal{}, fmt.Errorf("%w: a roulette proposal is one placement", wager.ErrInvalidParameters)
		}
		placed := d.Roulette[0]
		if placed.Wager.IsZero() {
			placed.Wager = amount
		}
		d.Roulette = []wager.RouletteBet{placed}
	}
	if err := calc.Validate(game, d, amount); err != nil {
		return wager.Proposal{}, err
	}
	m, err := calc.Quote(game, d)
	if err != nil {
		return wager.Proposal{}, err
	}
	return wager.Proposal{
		ID:              uuid.NewString(),
		GameType:        game,
		Details:         d,
		WagerAmount:     amount,
		Multiplier:      m,
		ProjectedPayout: payout.Payout(amount, m),
	}, nil
}

// Slip stages proposals for one game. Only roulette keeps more than one entry.
type Slip struct {
	gameType wager.GameType
	entries  []wager.Proposal
}

func (s *Slip) Add(p wager.Proposal) Signal {
	switch {
	case len(s.entries) == 0:
		s.gameType = p.GameType
		s.entries = []wager.Proposal{p}
		return Added
	case p.GameType != s.gameType:
		s.gameType = p.GameType
		s.entries = []wager.Proposal{p}
		return ClearedForGameSwitch
	case p.GameType == wager.GameRoulette:
		s.entries = append(s.entries, p)
		return Added
	default:
		s.entries = []wager.Proposal{p}
		return Replaced
	}
}

func (s *Slip) Remove(id string) bool {
	for i, p := range s.entries {
		if p.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			if len(s.entries) == 0 {
				s.gameType = ""
			}
			return true
		}
	}
	return false
}

func (s *Slip) Clear() {
	s.gameType = ""
	s.entries = nil
}

func (s *Slip) GameType() wager.GameType { return s.gameType }

func (s *Slip) Len() int { return len(s.entries) }

func (s *Slip) Entries() []wager.Proposal {
	out := make([]wager.Proposal, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Slip) TotalWager() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.entries {
		total = total.Add(p.WagerAmount)
	}
	return total
}
