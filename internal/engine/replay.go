package engine

import (
	"errors"
	"fmt"

	"wager-engine/internal/fairness"
	"wager-engine/internal/payout"
	"wager-engine/internal/session"
	"wager-engine/internal/wager"
)

var ErrDrawsExhausted = errors.New("revealed nonce sequence is shorter than the game needs")

type Replayed struct {
	Draws []float64 `json:"draws"`
	// Outcome is set for instant games.
	Outcome *wager.Outcome `json:"outcome,omitempty"`
	// Layout holds the mine cells (one row) or the skull tiles per tower level.
	Layout [][]int `json:"layout,omitempty"`
}

// Replay checks the reveal against its hash and recomputes the bet from its
// draws under the rules recorded on the bet.
func Replay(bet wager.Bet, rev fairness.Reveal) (Replayed, error) {
	calc, err := payout.FromRules(bet.Rules, bet.Details)
	if err != nil {
		return Replayed{}, err
	}
	draws, err := fairness.Verify(rev)
	if err != nil {
		return Replayed{}, err
	}
	out := Replayed{Draws: draws}
	src := &drawSource{draws: draws}
	if bet.GameType.Progressive() {
		out.Layout, err = hazardLayout(calc, bet, src.next)
	} else {
		var o wager.Outcome
		o, err = resolveInstant(calc, bet, src.next())
		out.Outcome = &o
	}
	if err != nil {
		return Replayed{}, err
	}
	if src.short {
		return Replayed{}, ErrDrawsExhausted
	}
	return out, nil
}

type drawSource struct {
	draws []float64
	pos   int
	short bool
}

func (d *drawSource) next() float64 {
	if d.pos >= len(d.draws) {
		d.short = true
		return 0
	}
	v := d.draws[d.pos]
	d.pos++
	return v
}

func resolveInstant(calc payout.Calculator, bet wager.Bet, draw float64) (wager.Outcome, error) {
	d := bet.Details
	switch bet.GameType {
	case wager.GameCoinflip:
		return calc.Coinflip(*d.Coinflip, bet.WagerAmount, draw)
	case wager.GameDice:
		return calc.Dice(*d.Dice, bet.WagerAmount, draw)
	case wager.GameLimbo:
		return calc.Limbo(*d.Limbo, bet.WagerAmount, draw)
	case wager.GameRoulette:
		return calc.Roulette(d.Roulette, draw)
	}
	return wager.Outcome{}, fmt.Errorf("%w: %s is not an instant game", wager.ErrInvalidParameters, bet.GameType)
}

// hazardLayout places mines over the 5x5 grid, or skulls on each tower level
// bottom up, one draw per pick.
func hazardLayout(calc payout.Calculator, bet wager.Bet, draw func() float64) ([][]int, error) {
	switch bet.GameType {
	case wager.GameMines:
		return [][]int{fairness.PickIndices(draw, payout.MinesCells, bet.Details.Mines.MineCount)}, nil
	case wager.GameTowers:
		skulls, err := calc.TowerSkullCount(bet.Details.Towers.Difficulty)
		if err != nil {
			return nil, err
		}
		levels := make([][]int, payout.TowerLevels)
		for i := range levels {
			levels[i] = fairness.PickIndices(draw, payout.TowerTiles, skulls)
		}
		return levels, nil
	}
	return nil, fmt.Errorf("%w: %s has no cells", wager.ErrInvalidMove, bet.GameType)
}

func layoutSession(calc payout.Calculator, bet wager.Bet, draw func() float64) (*session.Session, error) {
	layout, err := hazardLayout(calc, bet, draw)
	if err != nil {
		return nil, err
	}
	if bet.GameType == wager.GameMines {
		return session.NewMines(bet.ID, layout[0])
	}
	return session.NewTowers(bet.ID, layout)
}
