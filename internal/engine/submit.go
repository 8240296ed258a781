package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wager-engine/internal/store"
	"wager-engine/internal/wager"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type SubmitRequest struct {
	PlayerHandle  string
	ContactHandle string
	ClientSeed    string
	Entries       []wager.Proposal
	// RequestID makes the submission idempotent per player: a repeat returns the first bet.
	RequestID string
}

// SubmitSlip turns a slip into one pending bet with a fresh seed commitment.
// Roulette entries are merged into a single bet carrying every placement.
func (e *Engine) SubmitSlip(ctx context.Context, req SubmitRequest) (wager.Bet, error) {
	player := strings.TrimSpace(req.PlayerHandle)
	if player == "" {
		return wager.Bet{}, rejected("submit", "", fmt.Errorf("%w: player handle is required", wager.ErrInvalidParameters))
	}
	game, details, amount, err := combine(req.Entries)
	if err != nil {
		return wager.Bet{}, rejected("submit", "", err)
	}
	if err := e.calc.Validate(game, details, amount); err != nil {
		return wager.Bet{}, rejected("submit", "", err)
	}
	rules, err := e.calc.RulesFor(game, details)
	if err != nil {
		return wager.Bet{}, rejected("submit", "", err)
	}
	bet := wager.Bet{
		PlayerHandle:  player,
		ContactHandle: strings.TrimSpace(req.ContactHandle),
		GameType:      game,
		WagerAmount:   amount,
		Details:       details,
		Rules:         rules,
	}

	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		return e.place(ctx, bet, req.ClientSeed, "")
	}
	var (
		placed   wager.Bet
		replayed bool
	)
	err = e.withBet(ctx, "request:"+player+":"+requestID, func() error {
		betID, err := e.store.BetForRequest(ctx, player, requestID)
		switch {
		case err == nil:
			placed, err = e.store.LoadBet(ctx, betID)
			if err != nil {
				return err
			}
			if !sameWager(placed, bet) {
				return fmt.Errorf("%w: %s", wager.ErrIdempotencyKeyReused, requestID)
			}
			replayed = true
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		placed, err = e.place(ctx, bet, req.ClientSeed, requestID)
		return err
	})
	if err != nil {
		return wager.Bet{}, rejected("submit", "", err)
	}
	if replayed {
		metricSubmitReplayed.Add(1)
		log.Debug().Str("bet_id", placed.ID).Str("request_id", requestID).Msg("submit replayed")
	}
	return placed, nil
}

func (e *Engine) place(ctx context.Context, bet wager.Bet, clientSeed, requestID string) (wager.Bet, error) {
	bet.ID = e.newID(e.ledger.Now())
	commit, err := e.newSeeds(bet.ID, strings.TrimSpace(clientSeed))
	if err != nil {
		return wager.Bet{}, fmt.Errorf("new commitment: %w", err)
	}
	bet.ServerSeedHash = commit.ServerSeedHash
	bet.ClientSeed = commit.ClientSeed
	opened := e.ledger.Open(&bet)

	err = e.store.Atomically(ctx, func(tx store.Tx) error {
		if err := tx.SaveBet(ctx, bet); err != nil {
			return err
		}
		if err := tx.SaveCommitment(ctx, commit); err != nil {
			return err
		}
		if requestID != "" {
			if err := tx.SaveRequest(ctx, bet.PlayerHandle, requestID, bet.ID); err != nil {
				return err
			}
		}
		return tx.AppendHistory(ctx, opened)
	})
	if err != nil {
		return wager.Bet{}, fmt.Errorf("save bet: %w", err)
	}
	metricBetsSubmitted.Add(1)
	log.Info().Str("bet_id", bet.ID).Str("game", string(bet.GameType)).Str("player", bet.PlayerHandle).
		Str("wager", bet.WagerAmount.String()).Msg("bet submitted")
	e.feed.Publish(bet.PlayerHandle, bet.ID, EventBetCreated, bet)
	return bet, nil
}

func combine(entries []wager.Proposal) (wager.GameType, wager.Details, decimal.Decimal, error) {
	if len(entries) == 0 {
		return "", wager.Details{}, decimal.Zero, fmt.Errorf("%w: slip is empty", wager.ErrInvalidParameters)
	}
	game := entries[0].GameType
	for _, p := range entries[1:] {
		if p.GameType != game {
			return "", wager.Details{}, decimal.Zero, fmt.Errorf("%w: slip mixes %s and %s", wager.ErrInvalidParameters, game, p.GameType)
		}
	}
	if game != wager.GameRoulette {
		if len(entries) != 1 {
			return "", wager.Details{}, decimal.Zero, fmt.Errorf("%w: %s takes a single entry", wager.ErrInvalidParameters, game)
		}
		return game, entries[0].Details, entries[0].WagerAmount, nil
	}
	var (
		placed []wager.RouletteBet
		total  decimal.Decimal
	)
	for _, p := range entries {
		placed = append(placed, p.Details.Roulette...)
		total = total.Add(p.WagerAmount)
	}
	return game, wager.Details{Roulette: placed}, total, nil
}

type ConfirmResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ConfirmBet is the payment gate. Confirming an active bet succeeds without change.
func (e *Engine) ConfirmBet(ctx context.Context, betID string) (ConfirmResult, error) {
	var (
		bet     wager.Bet
		changed bool
	)
	err := e.withBet(ctx, betID, func() error {
		var err error
		bet, err = e.store.LoadBet(ctx, betID)
		if err != nil {
			return err
		}
		entry, ok, err := e.ledger.Confirm(&bet)
		if err != nil || !ok {
			return err
		}
		changed = true
		return e.store.Atomically(ctx, func(tx store.Tx) error {
			if err := tx.SaveBet(ctx, bet); err != nil {
				return err
			}
			return tx.AppendHistory(ctx, entry)
		})
	})
	if err != nil {
		return ConfirmResult{Success: false, Message: wager.Message(err)}, rejected("confirm", betID, err)
	}
	if !changed {
		return ConfirmResult{Success: true, Message: "Bet is already active."}, nil
	}
	metricBetsConfirmed.Add(1)
	log.Info().Str("bet_id", betID).Str("status", string(bet.Status)).Msg("bet confirmed")
	e.feed.Publish(bet.PlayerHandle, bet.ID, EventBetConfirmed, bet)
	return ConfirmResult{Success: true, Message: "Bet confirmed."}, nil
}

// sameWager reports whether a resubmission asks for the bet already placed.
// The coin side may have been changed at play time, so it is not compared.
func sameWager(placed, req wager.Bet) bool {
	if placed.GameType != req.GameType || !placed.WagerAmount.Equal(req.WagerAmount) {
		return false
	}
	return placed.GameType == wager.GameCoinflip || placed.Details.Equal(req.Details)
}
