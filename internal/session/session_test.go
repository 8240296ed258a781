package session

import (
	"errors"
	"math"
	"testing"

	"wager-engine/internal/payout"
	"wager-engine/internal/wager"
)

func calc(t *testing.T, edge float64) payout.Calculator {
	t.Helper()
	c, err := payout.New(edge)
	if err != nil {
		t.Fatalf("payout.New: %v", err)
	}
	return c
}

func newMines(t *testing.T, mines ...int) *Session {
	t.Helper()
	s, err := NewMines("bet-1", mines)
	if err != nil {
		t.Fatalf("NewMines: %v", err)
	}
	return s
}

func sameSkulls(tile int, perLevel int) [][]int {
	out := make([][]int, payout.TowerLevels)
	for i := range out {
		for j := 0; j < perLevel; j++ {
			out[i] = append(out[i], (tile+j)%payout.TowerTiles)
		}
	}
	return out
}

func TestMinesFirstRevealScenario(t *testing.T) {
	c := calc(t, 0.01)
	s := newMines(t, 0, 1, 2)
	res, err := s.Reveal(c, 10)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	want := 25.0 / 22.0 * 0.99
	if res.Hazard || math.Abs(res.Multiplier-want) > 1e-12 {
		t.Fatalf("reveal = %+v, want safe at %v", res, want)
	}
	if s.State != InProgress {
		t.Fatalf("state = %q, want in_progress", s.State)
	}
	m, err := s.CashOut()
	if err != nil {
		t.Fatalf("CashOut: %v", err)
	}
	if m != res.Multiplier || s.State != CashedOut {
		t.Fatalf("cash out = %v state %q", m, s.State)
	}
}

func TestRepeatRevealIsInvalidMove(t *testing.T) {
	c := calc(t, 0.01)
	s := newMines(t, 0, 1, 2)
	if _, err := s.Reveal(c, 7); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	before := s.CurrentMultiplier
	logLen := len(s.Log)
	if _, err := s.Reveal(c, 7); !errors.Is(err, wager.ErrInvalidMove) {
		t.Fatalf("repeat reveal err = %v, want invalid_move", err)
	}
	if s.CurrentMultiplier != before || len(s.Log) != logLen {
		t.Fatalf("state changed on rejected reveal")
	}
}

func TestRevealOutOfRange(t *testing.T) {
	c := calc(t, 0.01)
	s := newMines(t, 3)
	for _, idx := range []int{-1, 25} {
		if _, err := s.Reveal(c, idx); !errors.Is(err, wager.ErrInvalidMove) {
			t.Fatalf("Reveal(%d) err = %v, want invalid_move", idx, err)
		}
	}
	if s.State != NotStarted {
		t.Fatalf("state = %q, want not_started", s.State)
	}
}

func TestCashOutBeforeRevealFails(t *testing.T) {
	s := newMines(t, 3)
	if _, err := s.CashOut(); !errors.Is(err, wager.ErrInvalidMove) {
		t.Fatalf("CashOut err = %v, want invalid_move", err)
	}
	if s.State != NotStarted {
		t.Fatalf("state = %q", s.State)
	}
}

func TestMineBustsAndLocksSession(t *testing.T) {
	c := calc(t, 0.01)
	s := newMines(t, 4, 9)
	res, err := s.Reveal(c, 9)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if !res.Hazard || s.State != Busted {
		t.Fatalf("reveal = %+v state %q, want bust", res, s.State)
	}
	if _, err := s.Reveal(c, 0); !errors.Is(err, wager.ErrSessionAlreadyResolved) {
		t.Fatalf("reveal after bust err = %v", err)
	}
	if _, err := s.CashOut(); !errors.Is(err, wager.ErrSessionAlreadyResolved) {
		t.Fatalf("cash out after bust err = %v", err)
	}
}

func TestMinesFullClearCompletes(t *testing.T) {
	c := calc(t, 0.02)
	mines := make([]int, 0, 20)
	for i := 5; i < 25; i++ {
		mines = append(mines, i)
	}
	s := newMines(t, mines...)
	for i := 0; i < 5; i++ {
		if _, err := s.Reveal(c, i); err != nil {
			t.Fatalf("Reveal(%d): %v", i, err)
		}
	}
	if !s.Completed || s.State != CashedOut {
		t.Fatalf("completed=%v state=%q", s.Completed, s.State)
	}
	want := payout.MinesFairMultiplier(25, 20, 5) * math.Pow(0.98, 5)
	if math.Abs(s.CurrentMultiplier-want)/want > 1e-9 {
		t.Fatalf("multiplier = %v, want %v", s.CurrentMultiplier, want)
	}
}

func TestTowersClimb(t *testing.T) {
	c := calc(t, 0.01)
	s, err := NewTowers("bet-2", sameSkulls(0, 2))
	if err != nil {
		t.Fatalf("NewTowers: %v", err)
	}
	for level := 0; level < 3; level++ {
		res, err := s.Reveal(c, 4)
		if err != nil {
			t.Fatalf("Reveal level %d: %v", level, err)
		}
		if res.Hazard || res.Cell != level*payout.TowerTiles+4 {
			t.Fatalf("reveal = %+v", res)
		}
	}
	want := math.Pow(5.0/3.0*0.99, 3)
	if s.Level != 3 || math.Abs(s.CurrentMultiplier-want) > 1e-12 {
		t.Fatalf("level=%d multiplier=%v, want 3 and %v", s.Level, s.CurrentMultiplier, want)
	}
	if _, err := s.Reveal(c, 5); !errors.Is(err, wager.ErrInvalidMove) {
		t.Fatalf("tile 5 err = %v", err)
	}
	res, err := s.Reveal(c, 1)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if !res.Hazard || s.State != Busted {
		t.Fatalf("expected skull bust, got %+v", res)
	}
}

func TestTowersTopLevelCompletes(t *testing.T) {
	c := calc(t, 0.01)
	s, err := NewTowers("bet-3", sameSkulls(0, 1))
	if err != nil {
		t.Fatalf("NewTowers: %v", err)
	}
	for level := 0; level < payout.TowerLevels; level++ {
		if _, err := s.Reveal(c, 2); err != nil {
			t.Fatalf("Reveal level %d: %v", level, err)
		}
	}
	if !s.Completed || s.State != CashedOut {
		t.Fatalf("completed=%v state=%q", s.Completed, s.State)
	}
}

func TestNewTowersRejectsUnevenLevels(t *testing.T) {
	skulls := sameSkulls(0, 2)
	skulls[3] = []int{1}
	if _, err := NewTowers("bet", skulls); !errors.Is(err, wager.ErrInvalidParameters) {
		t.Fatalf("err = %v, want invalid_parameters", err)
	}
}

func TestViewHidesHazardsUntilOver(t *testing.T) {
	c := calc(t, 0.01)
	s := newMines(t, 0)
	if _, err := s.Reveal(c, 5); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	v := s.View()
	if v.Cells[0].Hazard != nil {
		t.Fatal("unrevealed mine exposed during play")
	}
	if v.Cells[5].Hazard == nil || *v.Cells[5].Hazard {
		t.Fatal("revealed safe cell should show hazard=false")
	}
	if _, err := s.CashOut(); err != nil {
		t.Fatalf("CashOut: %v", err)
	}
	v = s.View()
	if v.Cells[0].Hazard == nil || !*v.Cells[0].Hazard {
		t.Fatal("mine should be visible after cash out")
	}
}
