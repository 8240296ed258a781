package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"wager-engine/internal/fairness"
	"wager-engine/internal/ledger"
	"wager-engine/internal/session"
	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

func sampleBet(id string, status wager.Status, at time.Time) wager.Bet {
	return wager.Bet{
		ID:           id,
		PlayerHandle: "alice",
		GameType:     wager.GameLimbo,
		WagerAmount:  decimal.NewFromInt(10),
		Details:      wager.Details{Limbo: &wager.LimboParams{Target: 2}},
		Status:       status,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func TestMemoryAtomicallyDiscardsOnError(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")
	err := m.Atomically(ctx, func(tx Tx) error {
		if err := tx.SaveBet(ctx, sampleBet("b1", wager.StatusPending, time.Now())); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomically err = %v, want boom", err)
	}
	if _, err := m.LoadBet(ctx, "b1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadBet after failed tx err = %v, want not found", err)
	}
}

func TestMemoryRoundTripAndIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sess, err := session.NewMines("b1", []int{1, 2, 3})
	if err != nil {
		t.Fatalf("NewMines: %v", err)
	}
	c := fairness.Commitment{BetID: "b1", ServerSeed: "s", ServerSeedHash: fairness.HashSeed("s"), ClientSeed: "c", Nonce: 3, Draws: []uint64{0, 1, 2}}
	err = m.Atomically(ctx, func(tx Tx) error {
		if err := tx.SaveBet(ctx, sampleBet("b1", wager.StatusActive, time.Now())); err != nil {
			return err
		}
		if err := tx.SaveSession(ctx, sess); err != nil {
			return err
		}
		if err := tx.SaveCommitment(ctx, c); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, ledger.Entry{BetID: "b1", ToStatus: wager.StatusActive, Reason: "payment_confirmed"})
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}

	got, err := m.LoadSession(ctx, "b1")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	got.Cells[0].Revealed = true
	again, _ := m.LoadSession(ctx, "b1")
	if again.Cells[0].Revealed {
		t.Fatal("mutating a loaded session changed stored state")
	}
	if !again.Cells[1].Hazard || again.Geometry.Hazards != 3 {
		t.Fatalf("session did not round trip: %+v", again.Geometry)
	}

	gotC, err := m.LoadCommitment(ctx, "b1")
	if err != nil {
		t.Fatalf("LoadCommitment: %v", err)
	}
	if gotC.Nonce != 3 || len(gotC.Draws) != 3 {
		t.Fatalf("commitment = %+v", gotC)
	}
	hist, _ := m.History(ctx, "b1")
	if len(hist) != 1 || hist[0].Reason != "payment_confirmed" {
		t.Fatalf("history = %+v", hist)
	}
	if _, err := m.LoadSession(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("missing session err = %v", err)
	}
}

func TestMemoryListBetsFiltersAndPages(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := m.Atomically(ctx, func(tx Tx) error {
		for i, st := range []wager.Status{wager.StatusPending, wager.StatusActive, wager.StatusPending, wager.StatusPending} {
			b := sampleBet(NewBetID(base), st, base.Add(time.Duration(i)*time.Minute))
			if err := tx.SaveBet(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}
	pending, err := m.ListBets(ctx, BetFilter{Status: wager.StatusPending}, 2, 0)
	if err != nil {
		t.Fatalf("ListBets: %v", err)
	}
	if len(pending) != 2 || !pending[0].CreatedAt.Before(pending[1].CreatedAt) {
		t.Fatalf("first page = %+v", pending)
	}
	rest, _ := m.ListBets(ctx, BetFilter{Status: wager.StatusPending}, 2, 2)
	if len(rest) != 1 {
		t.Fatalf("second page len = %d, want 1", len(rest))
	}
	none, _ := m.ListBets(ctx, BetFilter{PlayerHandle: "bob"}, 10, 0)
	if len(none) != 0 {
		t.Fatalf("bob has %d bets", len(none))
	}
}

func TestMemoryRequestsCommitWithTx(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")
	_ = m.Atomically(ctx, func(tx Tx) error {
		_ = tx.SaveRequest(ctx, "alice", "r1", "b0")
		return boom
	})
	if _, err := m.BetForRequest(ctx, "alice", "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("request survived rollback: %v", err)
	}
	err := m.Atomically(ctx, func(tx Tx) error {
		return tx.SaveRequest(ctx, "alice", "r1", "b1")
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}
	id, err := m.BetForRequest(ctx, "alice", "r1")
	if err != nil || id != "b1" {
		t.Fatalf("BetForRequest = %q, %v", id, err)
	}
	if _, err := m.BetForRequest(ctx, "bob", "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("request leaked across players: %v", err)
	}
}
