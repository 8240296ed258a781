package payout

import (
	"fmt"
	"math/big"

	"wager-engine/internal/wager"
)

const (
	MinesCells  = 25
	TowerLevels = 8
	TowerTiles  = 5
)

func DefaultTowerSkulls() map[wager.Difficulty]int {
	return map[wager.Difficulty]int{
		wager.Easy:   1,
		wager.Medium: 2,
		wager.Hard:   3,
	}
}

func ValidateMines(p wager.MinesParams) error {
	if p.MineCount < 1 || p.MineCount >= MinesCells {
		return fmt.Errorf("%w: mine count must be between 1 and %d", wager.ErrInvalidParameters, MinesCells-1)
	}
	return nil
}

// MinesStep is the factor applied by one safe reveal, counted before the reveal.
func (c Calculator) MinesStep(remainingCells, remainingMines int) float64 {
	safe := remainingCells - remainingMines
	if safe <= 0 || remainingMines < 0 {
		panic(fmt.Sprintf("payout: mines step with %d cells and %d mines", remainingCells, remainingMines))
	}
	return sane(float64(remainingCells) / float64(safe) * c.keep())
}

// MinesFairMultiplier is C(n,r)/C(n-k,r), the zero-edge multiplier after r safe reveals.
func MinesFairMultiplier(n, k, r int) float64 {
	num := new(big.Int).Binomial(int64(n), int64(r))
	den := new(big.Int).Binomial(int64(n-k), int64(r))
	f, _ := new(big.Rat).SetFrac(num, den).Float64()
	return f
}

func (c Calculator) TowerSkullCount(d wager.Difficulty) (int, error) {
	s, ok := c.TowerSkulls[d]
	if !ok {
		return 0, fmt.Errorf("%w: unknown tower difficulty %q", wager.ErrInvalidParameters, d)
	}
	if s < 1 || s >= TowerTiles {
		panic(fmt.Sprintf("payout: tower difficulty %s has %d skulls", d, s))
	}
	return s, nil
}

func (c Calculator) TowersStep(skulls int) float64 {
	if skulls < 1 || skulls >= TowerTiles {
		panic(fmt.Sprintf("payout: towers step with %d skulls", skulls))
	}
	return sane(float64(TowerTiles) / float64(TowerTiles-skulls) * c.keep())
}
