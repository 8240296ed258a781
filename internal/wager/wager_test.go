package wager

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseGameType(t *testing.T) {
	tests := []struct {
		in   string
		want GameType
		ok   bool
	}{
		{"coinflip", GameCoinflip, true},
		{" Mines ", GameMines, true},
		{"dragon_towers", GameTowers, true},
		{"blackjack", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseGameType(tc.in)
			if tc.ok != (err == nil) {
				t.Fatalf("ParseGameType(%q) err = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseGameType(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCheckShape(t *testing.T) {
	d := Details{Limbo: &LimboParams{Target: 2}}
	if err := d.CheckShape(GameLimbo); err != nil {
		t.Fatalf("CheckShape: %v", err)
	}
	if err := d.CheckShape(GameDice); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("mismatched tag err = %v", err)
	}
	both := Details{Limbo: &LimboParams{Target: 2}, Mines: &MinesParams{MineCount: 3}}
	if err := both.CheckShape(GameLimbo); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("two variants err = %v", err)
	}
	if err := (Details{}).CheckShape(GameLimbo); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("empty details err = %v", err)
	}
}

func TestCodeAndMessageFollowWrappedErrors(t *testing.T) {
	err := fmt.Errorf("reveal: %w", ErrInvalidMove)
	if Code(err) != "invalid_move" {
		t.Fatalf("Code = %q", Code(err))
	}
	if Message(err) == "" || strings.Contains(Message(err), "seed") {
		t.Fatalf("Message = %q", Message(err))
	}
	if Code(errors.New("boom")) != "internal_error" {
		t.Fatalf("unknown error code = %q", Code(errors.New("boom")))
	}
}

func TestDetailsEqual(t *testing.T) {
	spin := func(wagers ...string) Details {
		d := Details{}
		for _, w := range wagers {
			d.Roulette = append(d.Roulette, RouletteBet{Kind: RouletteRed, Wager: decimal.RequireFromString(w)})
		}
		return d
	}
	tests := []struct {
		name string
		a, b Details
		want bool
	}{
		{"same dice", Details{Dice: &DiceParams{Target: 50, Direction: Over}}, Details{Dice: &DiceParams{Target: 50, Direction: Over}}, true},
		{"dice target differs", Details{Dice: &DiceParams{Target: 50, Direction: Over}}, Details{Dice: &DiceParams{Target: 51, Direction: Over}}, false},
		{"different game", Details{Mines: &MinesParams{MineCount: 3}}, Details{Towers: &TowersParams{Difficulty: Easy}}, false},
		{"roulette scale ignored", spin("5", "2.5"), spin("5.00", "2.50"), true},
		{"roulette wager differs", spin("5"), spin("6"), false},
		{"roulette length differs", spin("5"), spin("5", "5"), false},
	}
	for _, tc := range tests {
		if got := tc.a.Equal(tc.b); got != tc.want {
			t.Fatalf("%s: Equal = %v, want %v", tc.name, got, tc.want)
		}
	}
}
