package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wager-engine/internal/betlock"
	"wager-engine/internal/config"
	"wager-engine/internal/fairness"
	"wager-engine/internal/ledger"
	"wager-engine/internal/payout"
	"wager-engine/internal/session"
	"wager-engine/internal/store"
	"wager-engine/internal/wager"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Store is the persistence the engine needs. Both store.Store and store.Memory satisfy it.
type Store interface {
	LoadBet(ctx context.Context, id string) (wager.Bet, error)
	LoadSession(ctx context.Context, betID string) (*session.Session, error)
	LoadCommitment(ctx context.Context, betID string) (fairness.Commitment, error)
	ListBets(ctx context.Context, f store.BetFilter, limit, offset int) ([]wager.Bet, error)
	History(ctx context.Context, betID string) ([]ledger.Entry, error)
	BetForRequest(ctx context.Context, playerHandle, requestID string) (string, error)
	Atomically(ctx context.Context, fn func(store.Tx) error) error
}

type Publisher interface {
	Publish(playerHandle, betID, event string, data any)
}

const (
	EventBetCreated       = "bet_created"
	EventBetConfirmed     = "bet_confirmed"
	EventBetSettled       = "bet_settled"
	EventCellRevealed     = "cell_revealed"
	EventSessionBusted    = "session_busted"
	EventSessionCashedOut = "session_cashed_out"
)

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, string, any) {}

type Publishers []Publisher

func (ps Publishers) Publish(playerHandle, betID, event string, data any) {
	for _, p := range ps {
		p.Publish(playerHandle, betID, event, data)
	}
}

type Engine struct {
	store  Store
	locks  betlock.Locker
	calc   payout.Calculator
	ledger *ledger.Ledger
	feed   Publisher

	newID    func(time.Time) string
	newSeeds func(betID, clientSeed string) (fairness.Commitment, error)
}

func New(st Store, locks betlock.Locker, calc payout.Calculator, feed Publisher) *Engine {
	if feed == nil {
		feed = noopPublisher{}
	}
	return &Engine{
		store:    st,
		locks:    locks,
		calc:     calc,
		ledger:   ledger.New(),
		feed:     feed,
		newID:    store.NewBetID,
		newSeeds: fairness.NewCommitment,
	}
}

func (e *Engine) Calculator() payout.Calculator { return e.calc }

func BuildCalculator(cfg config.EngineConfig) (payout.Calculator, error) {
	calc, err := payout.New(cfg.HouseEdge)
	if err != nil {
		return payout.Calculator{}, err
	}
	min, err := decimal.NewFromString(cfg.MinWager)
	if err != nil {
		return payout.Calculator{}, fmt.Errorf("parse MIN_WAGER %q: %w", cfg.MinWager, err)
	}
	max, err := decimal.NewFromString(cfg.MaxWager)
	if err != nil {
		return payout.Calculator{}, fmt.Errorf("parse MAX_WAGER %q: %w", cfg.MaxWager, err)
	}
	if max.IsPositive() && min.GreaterThan(max) {
		return payout.Calculator{}, fmt.Errorf("MIN_WAGER %s above MAX_WAGER %s", min, max)
	}
	calc = calc.WithLimits(min, max)
	if len(cfg.TowerSkulls) > 0 {
		skulls := make(map[wager.Difficulty]int, len(cfg.TowerSkulls))
		for name, n := range cfg.TowerSkulls {
			if n < 1 || n >= payout.TowerTiles {
				return payout.Calculator{}, fmt.Errorf("towers %s: %d skulls outside 1..%d", name, n, payout.TowerTiles-1)
			}
			skulls[wager.Difficulty(name)] = n
		}
		calc = calc.WithTowerSkulls(skulls)
	}
	return calc, nil
}

// withBet runs fn while holding the bet's lock.
func (e *Engine) withBet(ctx context.Context, betID string, fn func() error) error {
	release, err := e.locks.Acquire(ctx, betID)
	if err != nil {
		if errors.Is(err, wager.ErrBusy) {
			metricLockBusy.Add(1)
		}
		return err
	}
	defer release()
	return fn()
}

func rejected(op, betID string, err error) error {
	if err == nil {
		return nil
	}
	metricBetsRejected.Add(1)
	log.Debug().Err(err).Str("op", op).Str("bet_id", betID).Str("code", wager.Code(err)).Msg("engine action rejected")
	return err
}
