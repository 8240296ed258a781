package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wager-engine/internal/fairness"
	"wager-engine/internal/ledger"
	"wager-engine/internal/session"
	"wager-engine/internal/wager"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const betColumns = `id, player_handle, contact_handle, game_type, wager_amount::text, details, house_edge, tower_skulls, status,
	server_seed_hash, client_seed, outcome, created_at, updated_at, settled_at`

func (s *Store) LoadBet(ctx context.Context, id string) (wager.Bet, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
	b, err := scanBet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return wager.Bet{}, ErrNotFound
	}
	return b, err
}

func (s *Store) ListBets(ctx context.Context, f BetFilter, limit, offset int) ([]wager.Bet, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+betColumns+` FROM bets
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR player_handle = $2)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`, string(f.Status), f.PlayerHandle, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]wager.Bet, 0, limit)
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) LoadSession(ctx context.Context, betID string) (*session.Session, error) {
	var doc []byte
	err := s.Pool.QueryRow(ctx, `SELECT doc FROM game_sessions WHERE bet_id = $1`, betID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess session.Session
	if err := json.Unmarshal(doc, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", betID, err)
	}
	return &sess, nil
}

func (s *Store) LoadCommitment(ctx context.Context, betID string) (fairness.Commitment, error) {
	var (
		c     fairness.Commitment
		nonce int64
		draws []byte
	)
	err := s.Pool.QueryRow(ctx, `SELECT bet_id, server_seed, server_seed_hash, client_seed, nonce, draws
		FROM fairness_commitments WHERE bet_id = $1`, betID).
		Scan(&c.BetID, &c.ServerSeed, &c.ServerSeedHash, &c.ClientSeed, &nonce, &draws)
	if errors.Is(err, pgx.ErrNoRows) {
		return fairness.Commitment{}, ErrNotFound
	}
	if err != nil {
		return fairness.Commitment{}, err
	}
	c.Nonce = uint64(nonce)
	if err := json.Unmarshal(draws, &c.Draws); err != nil {
		return fairness.Commitment{}, fmt.Errorf("decode draws %s: %w", betID, err)
	}
	return c, nil
}

func (s *Store) History(ctx context.Context, betID string) ([]ledger.Entry, error) {
	rows, err := s.Pool.Query(ctx, `SELECT bet_id, from_status, to_status, reason, created_at
		FROM bet_history WHERE bet_id = $1 ORDER BY id`, betID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var from, to string
		if err := rows.Scan(&e.BetID, &from, &to, &e.Reason, &e.At); err != nil {
			return nil, err
		}
		e.FromStatus = wager.Status(from)
		e.ToStatus = wager.Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) BetForRequest(ctx context.Context, playerHandle, requestID string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `SELECT bet_id FROM bet_requests WHERE player_handle = $1 AND request_id = $2`,
		playerHandle, requestID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) SaveBet(ctx context.Context, b wager.Bet) error {
	details, err := json.Marshal(b.Details)
	if err != nil {
		return err
	}
	var outcome *string
	if b.Outcome != nil {
		raw, err := json.Marshal(b.Outcome)
		if err != nil {
			return err
		}
		s := string(raw)
		outcome = &s
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO bets (id, player_handle, contact_handle, game_type, wager_amount, details,
			house_edge, tower_skulls, status, server_seed_hash, client_seed, outcome, created_at, updated_at, settled_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::jsonb, $7, $8, $9, $10, $11, $12::jsonb, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			details = EXCLUDED.details,
			status = EXCLUDED.status,
			outcome = EXCLUDED.outcome,
			updated_at = EXCLUDED.updated_at,
			settled_at = EXCLUDED.settled_at`,
		b.ID, b.PlayerHandle, b.ContactHandle, string(b.GameType), b.WagerAmount.String(), string(details),
		b.Rules.HouseEdge, b.Rules.TowerSkulls, string(b.Status), b.ServerSeedHash, b.ClientSeed, outcome, b.CreatedAt, b.UpdatedAt, b.SettledAt)
	return err
}

func (t pgTx) SaveSession(ctx context.Context, sess *session.Session) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO game_sessions (bet_id, state, doc, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (bet_id) DO UPDATE SET state = EXCLUDED.state, doc = EXCLUDED.doc, updated_at = now()`,
		sess.BetID, string(sess.State), string(doc))
	return err
}

func (t pgTx) SaveCommitment(ctx context.Context, c fairness.Commitment) error {
	draws := c.Draws
	if draws == nil {
		draws = []uint64{}
	}
	raw, err := json.Marshal(draws)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO fairness_commitments (bet_id, server_seed, server_seed_hash, client_seed, nonce, draws)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		ON CONFLICT (bet_id) DO UPDATE SET nonce = EXCLUDED.nonce, draws = EXCLUDED.draws`,
		c.BetID, c.ServerSeed, c.ServerSeedHash, c.ClientSeed, int64(c.Nonce), string(raw))
	return err
}

func (t pgTx) AppendHistory(ctx context.Context, e ledger.Entry) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO bet_history (bet_id, from_status, to_status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.BetID, string(e.FromStatus), string(e.ToStatus), e.Reason, e.At)
	return err
}

func (t pgTx) SaveRequest(ctx context.Context, playerHandle, requestID, betID string) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO bet_requests (player_handle, request_id, bet_id) VALUES ($1, $2, $3)`,
		playerHandle, requestID, betID)
	return err
}

func scanBet(row pgx.Row) (wager.Bet, error) {
	var (
		b                    wager.Bet
		game, status, amount string
		details, outcome     []byte
		createdAt, updatedAt time.Time
		settledAt            *time.Time
	)
	if err := row.Scan(&b.ID, &b.PlayerHandle, &b.ContactHandle, &game, &amount, &details,
		&b.Rules.HouseEdge, &b.Rules.TowerSkulls, &status,
		&b.ServerSeedHash, &b.ClientSeed, &outcome, &createdAt, &updatedAt, &settledAt); err != nil {
		return wager.Bet{}, err
	}
	wagerAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return wager.Bet{}, fmt.Errorf("decode wager amount %q: %w", amount, err)
	}
	if err := json.Unmarshal(details, &b.Details); err != nil {
		return wager.Bet{}, fmt.Errorf("decode details %s: %w", b.ID, err)
	}
	if len(outcome) > 0 {
		var out wager.Outcome
		if err := json.Unmarshal(outcome, &out); err != nil {
			return wager.Bet{}, fmt.Errorf("decode outcome %s: %w", b.ID, err)
		}
		b.Outcome = &out
	}
	b.GameType = wager.GameType(game)
	b.Status = wager.Status(status)
	b.WagerAmount = wagerAmount
	b.CreatedAt = createdAt.UTC()
	b.UpdatedAt = updatedAt.UTC()
	if settledAt != nil {
		t := settledAt.UTC()
		b.SettledAt = &t
	}
	return b, nil
}
