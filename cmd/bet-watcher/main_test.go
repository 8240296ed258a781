package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wager-engine/internal/auth"
	"wager-engine/internal/betlock"
	"wager-engine/internal/config"
	"wager-engine/internal/engine"
	"wager-engine/internal/payout"
	"wager-engine/internal/slip"
	"wager-engine/internal/store"
	httptransport "wager-engine/internal/transport/http"
	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

type fixture struct {
	eng    *engine.Engine
	st     *store.Memory
	locks  *betlock.Local
	srv    *httptest.Server
	token  string
	calc   payout.Calculator
	player string
}

func newFixture(t *testing.T) *fixture {
	return newTamperedFixture(t, nil)
}

// newTamperedFixture lets tamper answer a request in place of the router.
func newTamperedFixture(t *testing.T, tamper func(http.ResponseWriter, *http.Request, http.Handler) bool) *fixture {
	t.Helper()
	calc, err := payout.New(0.01)
	if err != nil {
		t.Fatalf("payout.New: %v", err)
	}
	tokens, err := auth.NewTokens("watch-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	st := store.NewMemory()
	locks := betlock.NewLocal(time.Second)
	eng := engine.New(st, locks, calc, nil)
	router := httptransport.NewRouter(config.ServerConfig{AdminAPIKey: "k"}, httptransport.Deps{
		Engine: eng, Store: st, Tokens: tokens,
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tamper != nil && tamper(w, r, router) {
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	tok, _, err := tokens.Issue(auth.Player{Handle: "watcher"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return &fixture{eng: eng, st: st, locks: locks, srv: srv, token: tok, calc: calc, player: "watcher"}
}

func (f *fixture) place(t *testing.T, game wager.GameType, d wager.Details) wager.Bet {
	t.Helper()
	ctx := context.Background()
	p, err := slip.NewProposal(f.calc, game, d, decimal.NewFromInt(3))
	if err != nil {
		t.Fatalf("NewProposal: %v", err)
	}
	bet, err := f.eng.SubmitSlip(ctx, engine.SubmitRequest{PlayerHandle: f.player, Entries: []wager.Proposal{p}})
	if err != nil {
		t.Fatalf("SubmitSlip: %v", err)
	}
	if _, err := f.eng.ConfirmBet(ctx, bet.ID); err != nil {
		t.Fatalf("ConfirmBet: %v", err)
	}
	return bet
}

func (f *fixture) checker() *checker {
	return &checker{apiURL: f.srv.URL, token: f.token, client: f.srv.Client()}
}

func TestCheckerVerifiesInstantBet(t *testing.T) {
	f := newFixture(t)
	bet := f.place(t, wager.GameLimbo, wager.Details{Limbo: &wager.LimboParams{Target: 1.5}})
	if _, err := f.eng.PlayInstant(context.Background(), bet.ID, nil); err != nil {
		t.Fatalf("PlayInstant: %v", err)
	}
	rep, err := f.checker().Verify(context.Background(), bet.ID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if rep.BetID != bet.ID || rep.Draws != 1 || rep.Game != wager.GameLimbo {
		t.Fatalf("report = %+v", rep)
	}
}

func TestCheckerVerifiesMinesLayout(t *testing.T) {
	f := newFixture(t)
	bet := f.place(t, wager.GameMines, wager.Details{Mines: &wager.MinesParams{MineCount: 24}})
	// One safe cell: the first reveal either busts or clears the board.
	res, err := f.eng.Reveal(context.Background(), bet.ID, 0)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if res.Bet.Status != wager.StatusSettled {
		t.Fatalf("status = %s, want settled", res.Bet.Status)
	}
	rep, err := f.checker().Verify(context.Background(), bet.ID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if rep.Draws != 24 {
		t.Fatalf("draws = %d, want 24", rep.Draws)
	}
}

func TestCheckerFollowsRulesRecordedOnBet(t *testing.T) {
	f := newFixture(t)
	bet := f.place(t, wager.GameCoinflip, wager.Details{Coinflip: &wager.CoinflipParams{Side: wager.Heads}})
	raised, err := payout.New(0.2)
	if err != nil {
		t.Fatalf("payout.New: %v", err)
	}
	restarted := engine.New(f.st, f.locks, raised, nil)
	if _, err := restarted.PlayInstant(context.Background(), bet.ID, nil); err != nil {
		t.Fatalf("PlayInstant: %v", err)
	}
	if _, err := f.checker().Verify(context.Background(), bet.ID); err != nil {
		t.Fatalf("Verify after edge change: %v", err)
	}
}

func TestCheckerFlagsAlteredPayout(t *testing.T) {
	f := newTamperedFixture(t, func(w http.ResponseWriter, r *http.Request, next http.Handler) bool {
		if !strings.HasPrefix(r.URL.Path, "/api/bets/") || strings.HasSuffix(r.URL.Path, "/fairness") {
			return false
		}
		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, r)
		var view engine.BetView
		if err := json.NewDecoder(rec.Body).Decode(&view); err != nil || view.Bet.Outcome == nil {
			return false
		}
		view.Bet.Outcome.Payout = view.Bet.Outcome.Payout.Add(decimal.NewFromInt(1))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view)
		return true
	})
	bet := f.place(t, wager.GameLimbo, wager.Details{Limbo: &wager.LimboParams{Target: 2}})
	if _, err := f.eng.PlayInstant(context.Background(), bet.ID, nil); err != nil {
		t.Fatalf("PlayInstant: %v", err)
	}
	if _, err := f.checker().Verify(context.Background(), bet.ID); !errors.Is(err, errMismatch) {
		t.Fatalf("altered payout err = %v, want mismatch", err)
	}
}

func TestCheckerSurfacesAPIErrors(t *testing.T) {
	f := newFixture(t)
	bet := f.place(t, wager.GameLimbo, wager.Details{Limbo: &wager.LimboParams{Target: 2}})
	_, err := f.checker().Verify(context.Background(), bet.ID)
	if err == nil || !strings.Contains(err.Error(), "seed_not_yet_revealed") {
		t.Fatalf("unsettled bet err = %v", err)
	}

	chk := f.checker()
	chk.token = "bad"
	if _, err := chk.Verify(context.Background(), bet.ID); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("bad token err = %v", err)
	}

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	chk = &checker{apiURL: down.URL, token: f.token, client: http.DefaultClient}
	if _, err := chk.Verify(context.Background(), bet.ID); err == nil {
		t.Fatal("closed server err = nil")
	}
}
