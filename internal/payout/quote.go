package payout

import (
	"fmt"

	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

func (c Calculator) Validate(game wager.GameType, d wager.Details, amount decimal.Decimal) error {
	if err := d.CheckShape(game); err != nil {
		return err
	}
	switch game {
	case wager.GameCoinflip:
		if err := ValidateCoinflip(*d.Coinflip); err != nil {
			return err
		}
	case wager.GameDice:
		if _, err := DiceChance(*d.Dice); err != nil {
			return err
		}
	case wager.GameLimbo:
		if err := ValidateLimbo(*d.Limbo); err != nil {
			return err
		}
	case wager.GameMines:
		if err := ValidateMines(*d.Mines); err != nil {
			return err
		}
	case wager.GameTowers:
		if _, err := c.TowerSkullCount(d.Towers.Difficulty); err != nil {
			return err
		}
	case wager.GameRoulette:
		for _, b := range d.Roulette {
			if err := ValidateRouletteBet(b); err != nil {
				return err
			}
		}
		if !RouletteTotal(d.Roulette).Equal(amount) {
			return fmt.Errorf("%w: roulette wager must equal the sum of its bets", wager.ErrInvalidParameters)
		}
	default:
		return fmt.Errorf("%w: unknown game %q", wager.ErrInvalidParameters, game)
	}
	return c.ValidateWager(amount)
}

// Quote is the multiplier shown while configuring a wager. Progressive games
// quote their first safe step; roulette quotes the best case.
func (c Calculator) Quote(game wager.GameType, d wager.Details) (float64, error) {
	switch game {
	case wager.GameCoinflip:
		return c.CoinflipMultiplier(), nil
	case wager.GameDice:
		return c.DiceMultiplier(*d.Dice)
	case wager.GameLimbo:
		return d.Limbo.Target, nil
	case wager.GameMines:
		return c.MinesStep(MinesCells, d.Mines.MineCount), nil
	case wager.GameTowers:
		s, err := c.TowerSkullCount(d.Towers.Difficulty)
		if err != nil {
			return 0, err
		}
		return c.TowersStep(s), nil
	case wager.GameRoulette:
		best := 0.0
		for _, b := range d.Roulette {
			if m := RouletteMultiplier(b.Kind); m > best {
				best = m
			}
		}
		return best, nil
	}
	return 0, fmt.Errorf("%w: unknown game %q", wager.ErrInvalidParameters, game)
}
