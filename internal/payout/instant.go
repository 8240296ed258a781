package payout

import (
	"fmt"
	"math"

	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

const (
	MinLimboTarget = 1.01
	MaxLimboTarget = 1_000_000
)

func (c Calculator) CoinflipMultiplier() float64 {
	return sane(2 * c.keep())
}

func ValidateCoinflip(p wager.CoinflipParams) error {
	if !p.Side.Valid() {
		return fmt.Errorf("%w: coin side must be heads or tails", wager.ErrInvalidParameters)
	}
	return nil
}

func CoinSide(draw float64) wager.CoinSide {
	if draw >= 0.5 {
		return wager.Heads
	}
	return wager.Tails
}

func (c Calculator) Coinflip(p wager.CoinflipParams, amount decimal.Decimal, draw float64) (wager.Outcome, error) {
	if err := ValidateCoinflip(p); err != nil {
		return wager.Outcome{}, err
	}
	if err := c.ValidateWager(amount); err != nil {
		return wager.Outcome{}, err
	}
	landed := CoinSide(draw)
	out := wager.Outcome{CoinSide: landed, Payout: decimal.Zero}
	if landed == p.Side {
		out.Won = true
		out.Multiplier = c.CoinflipMultiplier()
		out.Payout = Payout(amount, out.Multiplier)
	}
	return out, nil
}

// DiceChance is the win probability in percent of the 0-100 roll space.
func DiceChance(p wager.DiceParams) (float64, error) {
	if math.IsNaN(p.Target) || p.Target <= 0 || p.Target >= 100 {
		return 0, fmt.Errorf("%w: dice target must be inside (0,100)", wager.ErrInvalidParameters)
	}
	var chance float64
	switch p.Direction {
	case wager.Under:
		chance = p.Target
	case wager.Over:
		chance = 100 - p.Target
	default:
		return 0, fmt.Errorf("%w: dice direction must be over or under", wager.ErrInvalidParameters)
	}
	if chance <= 0 || chance >= 100 {
		return 0, fmt.Errorf("%w: dice win chance must be inside (0,100)", wager.ErrInvalidParameters)
	}
	return chance, nil
}

func (c Calculator) DiceMultiplier(p wager.DiceParams) (float64, error) {
	chance, err := DiceChance(p)
	if err != nil {
		return 0, err
	}
	return sane(100 * c.keep() / chance), nil
}

func (c Calculator) Dice(p wager.DiceParams, amount decimal.Decimal, draw float64) (wager.Outcome, error) {
	m, err := c.DiceMultiplier(p)
	if err != nil {
		return wager.Outcome{}, err
	}
	if err := c.ValidateWager(amount); err != nil {
		return wager.Outcome{}, err
	}
	roll := draw * 100
	won := roll > p.Target
	if p.Direction == wager.Under {
		won = roll < p.Target
	}
	out := wager.Outcome{Roll: &roll, Payout: decimal.Zero}
	if won {
		out.Won = true
		out.Multiplier = m
		out.Payout = Payout(amount, m)
	}
	return out, nil
}

func ValidateLimbo(p wager.LimboParams) error {
	if math.IsNaN(p.Target) || p.Target < MinLimboTarget || p.Target > MaxLimboTarget {
		return fmt.Errorf("%w: limbo target must be between %.2f and %.0f", wager.ErrInvalidParameters, MinLimboTarget, float64(MaxLimboTarget))
	}
	return nil
}

// CrashPoint floors to two decimals, so P(crash >= t) = (1-edge)/t for two-decimal targets.
func (c Calculator) CrashPoint(draw float64) float64 {
	return sane(math.Floor(100*c.keep()/(1-draw)) / 100)
}

func (c Calculator) LimboWinChance(p wager.LimboParams) (float64, error) {
	if err := ValidateLimbo(p); err != nil {
		return 0, err
	}
	return c.keep() / p.Target, nil
}

func (c Calculator) Limbo(p wager.LimboParams, amount decimal.Decimal, draw float64) (wager.Outcome, error) {
	if err := ValidateLimbo(p); err != nil {
		return wager.Outcome{}, err
	}
	if err := c.ValidateWager(amount); err != nil {
		return wager.Outcome{}, err
	}
	crash := c.CrashPoint(draw)
	out := wager.Outcome{CrashPoint: &crash, Payout: decimal.Zero}
	if crash >= p.Target {
		out.Won = true
		out.Multiplier = p.Target
		out.Payout = Payout(amount, p.Target)
	}
	return out, nil
}
