package payout

import (
	"fmt"

	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

const RoulettePockets = 37

var redPockets = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

func PocketColor(pocket int) string {
	switch {
	case pocket == 0:
		return "green"
	case redPockets[pocket]:
		return "red"
	default:
		return "black"
	}
}

func Pocket(draw float64) int {
	p := int(draw * RoulettePockets)
	if p >= RoulettePockets {
		p = RoulettePockets - 1
	}
	return p
}

func ValidateRouletteBet(b wager.RouletteBet) error {
	switch b.Kind {
	case wager.RouletteStraight:
		if b.Number < 0 || b.Number >= RoulettePockets {
			return fmt.Errorf("%w: straight number must be 0..36", wager.ErrInvalidParameters)
		}
	case wager.RouletteRed, wager.RouletteBlack, wager.RouletteEven, wager.RouletteOdd, wager.RouletteLow, wager.RouletteHigh:
	default:
		return fmt.Errorf("%w: unknown roulette bet %q", wager.ErrInvalidParameters, b.Kind)
	}
	if !b.Wager.IsPositive() {
		return fmt.Errorf("%w: roulette wager must be positive", wager.ErrInvalidParameters)
	}
	return nil
}

// RouletteMultiplier is 35 for a straight hit and 2 (stake included) for even-money bets.
func RouletteMultiplier(kind wager.RouletteKind) float64 {
	if kind == wager.RouletteStraight {
		return 35
	}
	return 2
}

func RouletteMatches(b wager.RouletteBet, pocket int) bool {
	if b.Kind == wager.RouletteStraight {
		return b.Number == pocket
	}
	if pocket == 0 {
		return false
	}
	switch b.Kind {
	case wager.RouletteRed:
		return redPockets[pocket]
	case wager.RouletteBlack:
		return !redPockets[pocket]
	case wager.RouletteEven:
		return pocket%2 == 0
	case wager.RouletteOdd:
		return pocket%2 == 1
	case wager.RouletteLow:
		return pocket <= 18
	case wager.RouletteHigh:
		return pocket >= 19
	}
	return false
}

func RouletteTotal(bets []wager.RouletteBet) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(b.Wager)
	}
	return total
}

func (c Calculator) Roulette(bets []wager.RouletteBet, draw float64) (wager.Outcome, error) {
	if len(bets) == 0 {
		return wager.Outcome{}, fmt.Errorf("%w: roulette needs at least one bet", wager.ErrInvalidParameters)
	}
	for _, b := range bets {
		if err := ValidateRouletteBet(b); err != nil {
			return wager.Outcome{}, err
		}
	}
	total := RouletteTotal(bets)
	if err := c.ValidateWager(total); err != nil {
		return wager.Outcome{}, err
	}
	pocket := Pocket(draw)
	payout := decimal.Zero
	for _, b := range bets {
		if RouletteMatches(b, pocket) {
			payout = payout.Add(Payout(b.Wager, RouletteMultiplier(b.Kind)))
		}
	}
	out := wager.Outcome{Pocket: &pocket, Color: PocketColor(pocket), Payout: payout, Won: payout.IsPositive()}
	if out.Won {
		m, _ := payout.Div(total).Float64()
		out.Multiplier = sane(m)
	}
	return out, nil
}
