package engine

import (
	"context"
	"errors"
	"strings"

	"wager-engine/internal/fairness"
	"wager-engine/internal/ledger"
	"wager-engine/internal/session"
	"wager-engine/internal/store"
	"wager-engine/internal/wager"
)

// BetView is what a player or operator sees of a bet. It never carries the server seed.
type BetView struct {
	Bet     wager.Bet      `json:"bet"`
	Session *session.View  `json:"session,omitempty"`
	History []ledger.Entry `json:"history"`
}

func (e *Engine) GetBet(ctx context.Context, betID string) (BetView, error) {
	bet, err := e.store.LoadBet(ctx, betID)
	if err != nil {
		return BetView{}, err
	}
	view := BetView{Bet: bet}
	if bet.GameType.Progressive() {
		sess, err := e.store.LoadSession(ctx, betID)
		switch {
		case err == nil:
			v := sess.View()
			view.Session = &v
		case !errors.Is(err, store.ErrSessionNotFound):
			return BetView{}, err
		}
	}
	view.History, err = e.store.History(ctx, betID)
	if err != nil {
		return BetView{}, err
	}
	if view.History == nil {
		view.History = []ledger.Entry{}
	}
	return view, nil
}

// RevealFairness hands out the seed pair and nonce list once the bet is settled.
func (e *Engine) RevealFairness(ctx context.Context, betID string) (fairness.Reveal, error) {
	bet, err := e.store.LoadBet(ctx, betID)
	if err != nil {
		return fairness.Reveal{}, err
	}
	commit, err := e.store.LoadCommitment(ctx, betID)
	if err != nil {
		return fairness.Reveal{}, err
	}
	rev, err := commit.Reveal(bet.Status == wager.StatusSettled)
	if err != nil {
		return fairness.Reveal{}, err
	}
	rev.Rules = bet.Rules
	return rev, nil
}

func (e *Engine) ListBets(ctx context.Context, f store.BetFilter, limit, offset int) ([]wager.Bet, error) {
	return e.store.ListBets(ctx, f, limit, offset)
}

// OwnedBet is GetBet for a player. Other players' bets read as not found.
func (e *Engine) OwnedBet(ctx context.Context, betID, playerHandle string) (BetView, error) {
	view, err := e.GetBet(ctx, betID)
	if err != nil {
		return BetView{}, err
	}
	if view.Bet.PlayerHandle != playerHandle {
		return BetView{}, wager.ErrNotFound
	}
	return view, nil
}

func (e *Engine) SubmittedBet(ctx context.Context, playerHandle, requestID string) (wager.Bet, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return wager.Bet{}, wager.ErrNotFound
	}
	betID, err := e.store.BetForRequest(ctx, strings.TrimSpace(playerHandle), requestID)
	if err != nil {
		return wager.Bet{}, err
	}
	return e.store.LoadBet(ctx, betID)
}
