package store

import (
	"context"
	"errors"
	"time"

	"wager-engine/internal/fairness"
	"wager-engine/internal/ledger"
	"wager-engine/internal/session"
	"wager-engine/internal/wager"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = wager.ErrNotFound
	ErrSessionNotFound = errors.New("session not found")
)

// Tx collects the writes of one engine action. Nothing is visible until the
// surrounding Atomically call returns nil.
type Tx interface {
	SaveBet(ctx context.Context, b wager.Bet) error
	SaveSession(ctx context.Context, s *session.Session) error
	SaveCommitment(ctx context.Context, c fairness.Commitment) error
	AppendHistory(ctx context.Context, e ledger.Entry) error
	SaveRequest(ctx context.Context, playerHandle, requestID, betID string) error
}

type BetFilter struct {
	Status       wager.Status
	PlayerHandle string
}

type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func (s *Store) Atomically(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
