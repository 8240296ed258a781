package slip

import (
	"wager-engine/internal/payout"
	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

type Entry struct {
	GameType    string          `json:"game_type"`
	Details     wager.Details   `json:"details"`
	WagerAmount decimal.Decimal `json:"wager_amount"`
}

func (e Entry) Proposal(calc payout.Calculator) (wager.Proposal, error) {
	game, err := wager.ParseGameType(e.GameType)
	if err != nil {
		return wager.Proposal{}, err
	}
	return NewProposal(calc, game, e.Details, e.WagerAmount)
}

func Proposals(calc payout.Calculator, entries []Entry) ([]wager.Proposal, error) {
	out := make([]wager.Proposal, 0, len(entries))
	for _, e := range entries {
		p, err := e.Proposal(calc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
