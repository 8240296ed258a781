package wager

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type CoinSide string

const (
	Heads CoinSide = "heads"
	Tails CoinSide = "tails"
)

func (s CoinSide) Valid() bool { return s == Heads || s == Tails }

type Direction string

const (
	Over  Direction = "over"
	Under Direction = "under"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

type RouletteKind string

const (
	RouletteStraight RouletteKind = "straight"
	RouletteRed      RouletteKind = "red"
	RouletteBlack    RouletteKind = "black"
	RouletteEven     RouletteKind = "even"
	RouletteOdd      RouletteKind = "odd"
	RouletteLow      RouletteKind = "low"
	RouletteHigh     RouletteKind = "high"
)

type CoinflipParams struct {
	Side CoinSide `json:"side"`
}

type DiceParams struct {
	Target    float64   `json:"target"`
	Direction Direction `json:"direction"`
}

type LimboParams struct {
	Target float64 `json:"target"`
}

type MinesParams struct {
	MineCount int `json:"mine_count"`
}

type TowersParams struct {
	Difficulty Difficulty `json:"difficulty"`
}

// RouletteBet is one placement on the table. Number is only read for straight bets.
type RouletteBet struct {
	Kind   RouletteKind    `json:"kind"`
	Number int             `json:"number,omitempty"`
	Wager  decimal.Decimal `json:"wager"`
}

// Details is a tagged variant: exactly one field is set and it must match the game type.
type Details struct {
	Coinflip *CoinflipParams `json:"coinflip,omitempty"`
	Dice     *DiceParams     `json:"dice,omitempty"`
	Limbo    *LimboParams    `json:"limbo,omitempty"`
	Mines    *MinesParams    `json:"mines,omitempty"`
	Towers   *TowersParams   `json:"towers,omitempty"`
	Roulette []RouletteBet   `json:"roulette,omitempty"`
}

// CheckShape verifies the variant tag matches game. Value ranges are checked by the payout package.
func (d Details) CheckShape(game GameType) error {
	set := 0
	var tag GameType
	if d.Coinflip != nil {
		set++
		tag = GameCoinflip
	}
	if d.Dice != nil {
		set++
		tag = GameDice
	}
	if d.Limbo != nil {
		set++
		tag = GameLimbo
	}
	if d.Mines != nil {
		set++
		tag = GameMines
	}
	if d.Towers != nil {
		set++
		tag = GameTowers
	}
	if len(d.Roulette) > 0 {
		set++
		tag = GameRoulette
	}
	if set != 1 {
		return fmt.Errorf("%w: details must carry exactly one game, got %d", ErrInvalidParameters, set)
	}
	if tag != game {
		return fmt.Errorf("%w: details are for %s, not %s", ErrInvalidParameters, tag, game)
	}
	return nil
}

func (d Details) Equal(o Details) bool {
	switch {
	case (d.Coinflip == nil) != (o.Coinflip == nil),
		(d.Dice == nil) != (o.Dice == nil),
		(d.Limbo == nil) != (o.Limbo == nil),
		(d.Mines == nil) != (o.Mines == nil),
		(d.Towers == nil) != (o.Towers == nil),
		len(d.Roulette) != len(o.Roulette):
		return false
	case d.Coinflip != nil && *d.Coinflip != *o.Coinflip,
		d.Dice != nil && *d.Dice != *o.Dice,
		d.Limbo != nil && *d.Limbo != *o.Limbo,
		d.Mines != nil && *d.Mines != *o.Mines,
		d.Towers != nil && *d.Towers != *o.Towers:
		return false
	}
	for i, b := range d.Roulette {
		r := o.Roulette[i]
		if b.Kind != r.Kind || b.Number != r.Number || !b.Wager.Equal(r.Wager) {
			return false
		}
	}
	return true
}
