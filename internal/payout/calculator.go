package payout

import (
	"fmt"
	"math"

	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

const maxHouseEdge = 0.5

type Calculator struct {
	HouseEdge   float64
	MinWager    decimal.Decimal
	MaxWager    decimal.Decimal
	TowerSkulls map[wager.Difficulty]int
}

func New(houseEdge float64) (Calculator, error) {
	if math.IsNaN(houseEdge) || houseEdge < 0 || houseEdge >= maxHouseEdge {
		return Calculator{}, fmt.Errorf("%w: house edge %v outside [0, %v)", wager.ErrInvalidParameters, houseEdge, maxHouseEdge)
	}
	return Calculator{
		HouseEdge:   houseEdge,
		TowerSkulls: DefaultTowerSkulls(),
	}, nil
}

func (c Calculator) RulesFor(game wager.GameType, d wager.Details) (wager.Rules, error) {
	r := wager.Rules{HouseEdge: c.HouseEdge}
	if game != wager.GameTowers {
		return r, nil
	}
	if d.Towers == nil {
		return wager.Rules{}, fmt.Errorf("%w: towers details missing", wager.ErrInvalidParameters)
	}
	skulls, err := c.TowerSkullCount(d.Towers.Difficulty)
	if err != nil {
		return wager.Rules{}, err
	}
	r.TowerSkulls = skulls
	return r, nil
}

// FromRules rebuilds the calculator a bet settles with. Zero TowerSkulls keeps
// the default tiers.
func FromRules(r wager.Rules, d wager.Details) (Calculator, error) {
	c, err := New(r.HouseEdge)
	if err != nil {
		return Calculator{}, err
	}
	if r.TowerSkulls == 0 || d.Towers == nil {
		return c, nil
	}
	if r.TowerSkulls < 1 || r.TowerSkulls >= TowerTiles {
		return Calculator{}, fmt.Errorf("%w: %d skulls per level", wager.ErrInvalidParameters, r.TowerSkulls)
	}
	return c.WithTowerSkulls(map[wager.Difficulty]int{d.Towers.Difficulty: r.TowerSkulls}), nil
}

// WithLimits returns a copy enforcing wager bounds. A zero bound is not enforced.
func (c Calculator) WithLimits(min, max decimal.Decimal) Calculator {
	c.MinWager = min
	c.MaxWager = max
	return c
}

func (c Calculator) WithTowerSkulls(skulls map[wager.Difficulty]int) Calculator {
	merged := DefaultTowerSkulls()
	for d, s := range skulls {
		merged[d] = s
	}
	c.TowerSkulls = merged
	return c
}

func (c Calculator) ValidateWager(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: wager must be positive", wager.ErrInvalidParameters)
	}
	if c.MinWager.IsPositive() && amount.LessThan(c.MinWager) {
		return fmt.Errorf("%w: wager below minimum %s", wager.ErrInvalidParameters, c.MinWager)
	}
	if c.MaxWager.IsPositive() && amount.GreaterThan(c.MaxWager) {
		return fmt.Errorf("%w: wager above maximum %s", wager.ErrInvalidParameters, c.MaxWager)
	}
	return nil
}

func Payout(amount decimal.Decimal, multiplier float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(sane(multiplier))).Round(2)
}

func (c Calculator) keep() float64 {
	return 1 - c.HouseEdge
}

// sane panics on multipliers no valid input can produce.
func sane(m float64) float64 {
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		panic(fmt.Sprintf("payout: multiplier out of bounds: %v", m))
	}
	return m
}
