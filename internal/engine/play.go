package engine

import (
	"context"
	"errors"
	"fmt"

	"wager-engine/internal/fairness"
	"wager-engine/internal/ledger"
	"wager-engine/internal/payout"
	"wager-engine/internal/session"
	"wager-engine/internal/store"
	"wager-engine/internal/wager"

	"github.com/rs/zerolog/log"
)

// Choice is a late override of the player's pick. Only coinflip takes one.
type Choice struct {
	Side wager.CoinSide `json:"side,omitempty"`
}

type InstantResult struct {
	Bet     wager.Bet     `json:"bet"`
	Outcome wager.Outcome `json:"outcome"`
}

type RevealResult struct {
	Bet     wager.Bet            `json:"bet"`
	Reveal  session.RevealResult `json:"reveal"`
	Session session.View         `json:"session"`
}

type CashOutResult struct {
	Bet     wager.Bet    `json:"bet"`
	Session session.View `json:"session"`
}

func (e *Engine) PlayInstant(ctx context.Context, betID string, choice *Choice) (InstantResult, error) {
	var bet wager.Bet
	err := e.withBet(ctx, betID, func() error {
		var err error
		bet, err = e.store.LoadBet(ctx, betID)
		if err != nil {
			return err
		}
		if bet.GameType.Progressive() {
			return fmt.Errorf("%w: %s is played cell by cell", wager.ErrInvalidParameters, bet.GameType)
		}
		if err := ledger.RequirePlayable(bet); err != nil {
			return err
		}
		if err := applyChoice(&bet, choice); err != nil {
			return err
		}
		calc, err := payout.FromRules(bet.Rules, bet.Details)
		if err != nil {
			return err
		}
		commit, err := e.store.LoadCommitment(ctx, betID)
		if err != nil {
			return err
		}
		out, err := resolveInstant(calc, bet, commit.Draw())
		if err != nil {
			return err
		}
		settled, err := e.ledger.Settle(&bet, out, "instant_resolved")
		if err != nil {
			return err
		}
		return e.store.Atomically(ctx, func(tx store.Tx) error {
			if err := tx.SaveBet(ctx, bet); err != nil {
				return err
			}
			if err := tx.SaveCommitment(ctx, commit); err != nil {
				return err
			}
			return tx.AppendHistory(ctx, settled)
		})
	})
	if err != nil {
		return InstantResult{}, rejected("play", betID, err)
	}
	e.settled(bet)
	return InstantResult{Bet: bet, Outcome: *bet.Outcome}, nil
}

func applyChoice(bet *wager.Bet, choice *Choice) error {
	if choice == nil || choice.Side == "" {
		return nil
	}
	if bet.GameType != wager.GameCoinflip {
		return fmt.Errorf("%w: %s takes no side", wager.ErrInvalidParameters, bet.GameType)
	}
	if !choice.Side.Valid() {
		return fmt.Errorf("%w: side %q", wager.ErrInvalidParameters, choice.Side)
	}
	bet.Details.Coinflip = &wager.CoinflipParams{Side: choice.Side}
	return nil
}

// Reveal opens one cell of a mines or towers bet. The board is laid out from
// the commitment on the first reveal.
func (e *Engine) Reveal(ctx context.Context, betID string, index int) (RevealResult, error) {
	var (
		bet  wager.Bet
		sess *session.Session
		res  session.RevealResult
	)
	err := e.withBet(ctx, betID, func() error {
		var (
			commit  fairness.Commitment
			created bool
			err     error
		)
		bet, sess, err = e.loadProgressive(ctx, betID)
		if err != nil {
			return err
		}
		calc, err := payout.FromRules(bet.Rules, bet.Details)
		if err != nil {
			return err
		}
		if sess == nil {
			commit, err = e.store.LoadCommitment(ctx, betID)
			if err != nil {
				return err
			}
			sess, err = layoutSession(calc, bet, commit.Draw)
			if err != nil {
				return err
			}
			created = true
		}
		res, err = sess.Reveal(calc, index)
		if err != nil {
			return err
		}

		var entry *ledger.Entry
		switch {
		case res.Hazard:
			entry, err = e.settleSession(&bet, sess, "session_busted")
		case res.Completed:
			entry, err = e.settleSession(&bet, sess, "session_cleared")
		}
		if err != nil {
			return err
		}
		return e.store.Atomically(ctx, func(tx store.Tx) error {
			if created {
				if err := tx.SaveCommitment(ctx, commit); err != nil {
					return err
				}
			}
			if err := tx.SaveSession(ctx, sess); err != nil {
				return err
			}
			if entry == nil {
				return nil
			}
			if err := tx.SaveBet(ctx, bet); err != nil {
				return err
			}
			return tx.AppendHistory(ctx, *entry)
		})
	})
	if err != nil {
		return RevealResult{}, rejected("reveal", betID, err)
	}

	metricCellsRevealed.Add(1)
	view := sess.View()
	e.feed.Publish(bet.PlayerHandle, bet.ID, EventCellRevealed, res)
	switch {
	case res.Hazard:
		e.feed.Publish(bet.PlayerHandle, bet.ID, EventSessionBusted, view)
		e.settled(bet)
	case res.Completed:
		e.feed.Publish(bet.PlayerHandle, bet.ID, EventSessionCashedOut, view)
		e.settled(bet)
	}
	return RevealResult{Bet: bet, Reveal: res, Session: view}, nil
}

func (e *Engine) CashOut(ctx context.Context, betID string) (CashOutResult, error) {
	var (
		bet  wager.Bet
		sess *session.Session
	)
	err := e.withBet(ctx, betID, func() error {
		var err error
		bet, sess, err = e.loadProgressive(ctx, betID)
		if err != nil {
			return err
		}
		if sess == nil {
			return fmt.Errorf("%w: nothing to cash out yet", wager.ErrInvalidMove)
		}
		if _, err := sess.CashOut(); err != nil {
			return err
		}
		entry, err := e.settleSession(&bet, sess, "cashed_out")
		if err != nil {
			return err
		}
		return e.store.Atomically(ctx, func(tx store.Tx) error {
			if err := tx.SaveSession(ctx, sess); err != nil {
				return err
			}
			if err := tx.SaveBet(ctx, bet); err != nil {
				return err
			}
			return tx.AppendHistory(ctx, *entry)
		})
	})
	if err != nil {
		return CashOutResult{}, rejected("cashout", betID, err)
	}
	view := sess.View()
	e.feed.Publish(bet.PlayerHandle, bet.ID, EventSessionCashedOut, view)
	e.settled(bet)
	return CashOutResult{Bet: bet, Session: view}, nil
}

// loadProgressive checks lifecycle in the order a player sees it: unpaid bets
// first, then finished sessions, then settled bets. sess is nil before the
// first reveal.
func (e *Engine) loadProgressive(ctx context.Context, betID string) (wager.Bet, *session.Session, error) {
	bet, err := e.store.LoadBet(ctx, betID)
	if err != nil {
		return wager.Bet{}, nil, err
	}
	if !bet.GameType.Progressive() {
		return wager.Bet{}, nil, fmt.Errorf("%w: %s has no cells", wager.ErrInvalidMove, bet.GameType)
	}
	if bet.Status == wager.StatusPending {
		return wager.Bet{}, nil, wager.ErrNotConfirmed
	}
	sess, err := e.store.LoadSession(ctx, betID)
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		sess = nil
	case err != nil:
		return wager.Bet{}, nil, err
	case sess.State.Terminal():
		return wager.Bet{}, nil, wager.ErrSessionAlreadyResolved
	}
	if err := ledger.RequirePlayable(bet); err != nil {
		return wager.Bet{}, nil, err
	}
	return bet, sess, nil
}

func (e *Engine) settleSession(bet *wager.Bet, sess *session.Session, reason string) (*ledger.Entry, error) {
	out := wager.Outcome{Revealed: sess.SafeReveals()}
	if sess.State == session.Busted {
		out.Busted = true
	} else {
		out.Won = true
		out.CashedOut = true
		out.Multiplier = sess.CurrentMultiplier
		out.Payout = payout.Payout(bet.WagerAmount, sess.CurrentMultiplier)
	}
	entry, err := e.ledger.Settle(bet, out, reason)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (e *Engine) settled(bet wager.Bet) {
	metricBetsSettled.Add(1)
	ev := log.Info().Str("bet_id", bet.ID).Str("game", string(bet.GameType)).Str("status", string(bet.Status))
	if bet.Outcome != nil {
		ev = ev.Bool("won", bet.Outcome.Won).Str("payout", bet.Outcome.Payout.String())
	}
	ev.Msg("bet settled")
	e.feed.Publish(bet.PlayerHandle, bet.ID, EventBetSettled, bet)
}
