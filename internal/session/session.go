package session

import (
	"fmt"

	"wager-engine/internal/payout"
	"wager-engine/internal/wager"
)

type State string

const (
	NotStarted State = "not_started"
	InProgress State = "in_progress"
	Busted     State = "busted"
	CashedOut  State = "cashed_out"
)

func (s State) Terminal() bool {
	return s == Busted || s == CashedOut
}

// Cell is one slot in the session arena. Index is stable for the session's lifetime.
type Cell struct {
	Index    int  `json:"index"`
	Level    int  `json:"level"`
	Hazard   bool `json:"hazard"`
	Revealed bool `json:"revealed"`
}

// RevealEntry is appended for every accepted reveal and never rewritten.
type RevealEntry struct {
	Seq        int     `json:"seq"`
	Cell       int     `json:"cell"`
	Hazard     bool    `json:"hazard"`
	Multiplier float64 `json:"multiplier"`
}

type Geometry struct {
	Cells   int `json:"cells"`
	Hazards int `json:"hazards"`
	Levels  int `json:"levels,omitempty"`
	Tiles   int `json:"tiles,omitempty"`
}

type Session struct {
	BetID             string         `json:"bet_id"`
	Game              wager.GameType `json:"game"`
	State             State          `json:"state"`
	Geometry          Geometry       `json:"geometry"`
	Cells             []Cell         `json:"cells"`
	Log               []RevealEntry  `json:"log"`
	CurrentMultiplier float64        `json:"current_multiplier"`
	Level             int            `json:"level"`
	Completed         bool           `json:"completed"`
}

type RevealResult struct {
	Cell       int     `json:"cell"`
	Hazard     bool    `json:"hazard"`
	Multiplier float64 `json:"multiplier"`
	State      State   `json:"state"`
	Completed  bool    `json:"completed"`
}

func NewMines(betID string, mines []int) (*Session, error) {
	k := len(mines)
	if err := payout.ValidateMines(wager.MinesParams{MineCount: k}); err != nil {
		return nil, err
	}
	cells := make([]Cell, payout.MinesCells)
	for i := range cells {
		cells[i].Index = i
	}
	for _, m := range mines {
		if m < 0 || m >= len(cells) || cells[m].Hazard {
			return nil, fmt.Errorf("%w: bad mine position %d", wager.ErrInvalidParameters, m)
		}
		cells[m].Hazard = true
	}
	return &Session{
		BetID:             betID,
		Game:              wager.GameMines,
		State:             NotStarted,
		Geometry:          Geometry{Cells: payout.MinesCells, Hazards: k},
		Cells:             cells,
		CurrentMultiplier: 1,
	}, nil
}

// NewTowers builds the tower with skulls[level] holding the skull tiles of that level.
func NewTowers(betID string, skulls [][]int) (*Session, error) {
	if len(skulls) != payout.TowerLevels {
		return nil, fmt.Errorf("%w: tower needs %d levels, got %d", wager.ErrInvalidParameters, payout.TowerLevels, len(skulls))
	}
	per := len(skulls[0])
	if per < 1 || per >= payout.TowerTiles {
		return nil, fmt.Errorf("%w: %d skulls per level", wager.ErrInvalidParameters, per)
	}
	cells := make([]Cell, payout.TowerLevels*payout.TowerTiles)
	for i := range cells {
		cells[i].Index = i
		cells[i].Level = i / payout.TowerTiles
	}
	for level, tiles := range skulls {
		if len(tiles) != per {
			return nil, fmt.Errorf("%w: level %d has %d skulls, want %d", wager.ErrInvalidParameters, level, len(tiles), per)
		}
		for _, tile := range tiles {
			idx := level*payout.TowerTiles + tile
			if tile < 0 || tile >= payout.TowerTiles || cells[idx].Hazard {
				return nil, fmt.Errorf("%w: bad skull tile %d on level %d", wager.ErrInvalidParameters, tile, level)
			}
			cells[idx].Hazard = true
		}
	}
	return &Session{
		BetID:             betID,
		Game:              wager.GameTowers,
		State:             NotStarted,
		Geometry:          Geometry{Cells: len(cells), Hazards: per, Levels: payout.TowerLevels, Tiles: payout.TowerTiles},
		Cells:             cells,
		CurrentMultiplier: 1,
	}, nil
}

func (s *Session) SafeReveals() int {
	n := 0
	for _, e := range s.Log {
		if !e.Hazard {
			n++
		}
	}
	return n
}

// Reveal opens a cell. For towers index is the tile within the current level.
func (s *Session) Reveal(calc payout.Calculator, index int) (RevealResult, error) {
	if s.State.Terminal() {
		return RevealResult{}, wager.ErrSessionAlreadyResolved
	}
	idx, err := s.cellIndex(index)
	if err != nil {
		return RevealResult{}, err
	}
	if s.Cells[idx].Revealed {
		return RevealResult{}, fmt.Errorf("%w: cell %d already revealed", wager.ErrInvalidMove, index)
	}

	var step float64
	if !s.Cells[idx].Hazard {
		step = s.nextStep(calc)
	}
	if s.State == NotStarted {
		s.State = InProgress
	}
	s.Cells[idx].Revealed = true

	if s.Cells[idx].Hazard {
		s.State = Busted
		s.appendLog(idx, true)
		return RevealResult{Cell: idx, Hazard: true, Multiplier: 0, State: s.State}, nil
	}

	s.CurrentMultiplier *= step
	if s.Game == wager.GameTowers {
		s.Level++
	}
	s.appendLog(idx, false)
	if s.cleared() {
		s.State = CashedOut
		s.Completed = true
	}
	return RevealResult{
		Cell:       idx,
		Multiplier: s.CurrentMultiplier,
		State:      s.State,
		Completed:  s.Completed,
	}, nil
}

// CashOut locks in the current multiplier. It needs at least one safe reveal.
func (s *Session) CashOut() (float64, error) {
	if s.State.Terminal() {
		return 0, wager.ErrSessionAlreadyResolved
	}
	if s.State != InProgress || s.SafeReveals() == 0 {
		return 0, fmt.Errorf("%w: nothing to cash out yet", wager.ErrInvalidMove)
	}
	s.State = CashedOut
	return s.CurrentMultiplier, nil
}

func (s *Session) cellIndex(index int) (int, error) {
	if s.Game == wager.GameTowers {
		if index < 0 || index >= s.Geometry.Tiles {
			return 0, fmt.Errorf("%w: tile %d outside 0..%d", wager.ErrInvalidMove, index, s.Geometry.Tiles-1)
		}
		return s.Level*s.Geometry.Tiles + index, nil
	}
	if index < 0 || index >= len(s.Cells) {
		return 0, fmt.Errorf("%w: cell %d outside 0..%d", wager.ErrInvalidMove, index, len(s.Cells)-1)
	}
	return index, nil
}

func (s *Session) nextStep(calc payout.Calculator) float64 {
	if s.Game == wager.GameTowers {
		return calc.TowersStep(s.Geometry.Hazards)
	}
	remaining := s.Geometry.Cells - s.SafeReveals()
	return calc.MinesStep(remaining, s.Geometry.Hazards)
}

func (s *Session) cleared() bool {
	if s.Game == wager.GameTowers {
		return s.Level >= s.Geometry.Levels
	}
	return s.SafeReveals() == s.Geometry.Cells-s.Geometry.Hazards
}

func (s *Session) appendLog(idx int, hazard bool) {
	s.Log = append(s.Log, RevealEntry{
		Seq:        len(s.Log) + 1,
		Cell:       idx,
		Hazard:     hazard,
		Multiplier: s.CurrentMultiplier,
	})
}
