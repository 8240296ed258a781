package wager

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type GameType string

const (
	GameCoinflip GameType = "coinflip"
	GameDice     GameType = "dice"
	GameLimbo    GameType = "limbo"
	GameMines    GameType = "mines"
	GameTowers   GameType = "towers"
	GameRoulette GameType = "roulette"
)

func ParseGameType(raw string) (GameType, error) {
	g := GameType(strings.ToLower(strings.TrimSpace(raw)))
	switch g {
	case GameCoinflip, GameDice, GameLimbo, GameMines, GameTowers, GameRoulette:
		return g, nil
	case "dragon_towers":
		return GameTowers, nil
	}
	return "", fmt.Errorf("%w: unknown game type %q", ErrInvalidParameters, raw)
}

// Progressive games resolve over several reveals instead of one draw.
func (g GameType) Progressive() bool {
	return g == GameMines || g == GameTowers
}

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusSettled Status = "settled"
)

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusActive, StatusSettled:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidParameters, raw)
}

// Proposal is a staged wager. It only lives inside a slip.
type Proposal struct {
	ID              string          `json:"id"`
	GameType        GameType        `json:"game_type"`
	Details         Details         `json:"details"`
	WagerAmount     decimal.Decimal `json:"wager_amount"`
	Multiplier      float64         `json:"multiplier"`
	ProjectedPayout decimal.Decimal `json:"projected_payout"`
}

// Rules are the house terms a bet was placed under. Settlement and replay
// read these instead of the live configuration.
type Rules struct {
	HouseEdge   float64 `json:"house_edge"`
	TowerSkulls int     `json:"tower_skulls,omitempty"`
}

type Bet struct {
	ID             string          `json:"bet_id"`
	PlayerHandle   string          `json:"player_handle"`
	ContactHandle  string          `json:"contact_handle"`
	GameType       GameType        `json:"game_type"`
	WagerAmount    decimal.Decimal `json:"wager_amount"`
	Details        Details         `json:"details"`
	Rules          Rules           `json:"rules"`
	Status         Status          `json:"status"`
	ServerSeedHash string          `json:"server_seed_hash"`
	ClientSeed     string          `json:"client_seed"`
	Outcome        *Outcome        `json:"outcome,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	SettledAt      *time.Time      `json:"settled_at,omitempty"`
}

type Outcome struct {
	Won        bool            `json:"won"`
	Multiplier float64         `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	CoinSide   CoinSide        `json:"coin_side,omitempty"`
	Roll       *float64        `json:"roll,omitempty"`
	CrashPoint *float64        `json:"crash_point,omitempty"`
	Pocket     *int            `json:"pocket,omitempty"`
	Color      string          `json:"color,omitempty"`
	Revealed   int             `json:"revealed,omitempty"`
	Busted     bool            `json:"busted,omitempty"`
	CashedOut  bool            `json:"cashed_out,omitempty"`
}
