package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wager-engine/internal/auth"
	"wager-engine/internal/betlock"
	"wager-engine/internal/config"
	"wager-engine/internal/engine"
	"wager-engine/internal/payout"
	"wager-engine/internal/store"
	"wager-engine/internal/wager"

	"github.com/shopspring/decimal"
)

const testAdminKey = "admin-secret"

type testServer struct {
	srv    *httptest.Server
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	calc, err := payout.New(0.01)
	if err != nil {
		t.Fatalf("payout.New: %v", err)
	}
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	st := store.NewMemory()
	eng := engine.New(st, betlock.NewLocal(time.Second), calc, nil)
	r := NewRouter(config.ServerConfig{AdminAPIKey: testAdminKey}, Deps{
		Engine: eng,
		Store:  st,
		Tokens: tokens,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, tokens: tokens}
}

func (s *testServer) token(t *testing.T, handle string) string {
	t.Helper()
	tok, _, err := s.tokens.Issue(auth.Player{Handle: handle, Contact: "@" + handle})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	var body map[string]any
	if code := s.do(t, http.MethodGet, "/healthz", "", nil, &body); code != http.StatusOK {
		t.Fatalf("healthz = %d", code)
	}
	if body["ok"] != true {
		t.Fatalf("healthz body = %v", body)
	}
}

func TestMCPOptions(t *testing.T) {
	s := newTestServer(t)
	if code := s.do(t, http.MethodOptions, "/mcp", "", nil, nil); code != http.StatusNoContent {
		t.Fatalf("OPTIONS /mcp = %d", code)
	}
}

func TestAdminRoutesRequireKey(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"player_handle": "alice"}
	if code := s.do(t, http.MethodPost, "/api/admin/players/token", "", body, nil); code != http.StatusUnauthorized {
		t.Fatalf("no key = %d, want 401", code)
	}
	if code := s.do(t, http.MethodPost, "/api/admin/players/token", "wrong", body, nil); code != http.StatusUnauthorized {
		t.Fatalf("wrong key = %d, want 401", code)
	}
	var issued struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	if code := s.do(t, http.MethodPost, "/api/admin/players/token", testAdminKey, body, &issued); code != http.StatusOK {
		t.Fatalf("issue token = %d", code)
	}
	if issued.Token == "" || issued.ExpiresAt == "" {
		t.Fatalf("issued = %+v", issued)
	}
	player, err := s.tokens.Verify(issued.Token)
	if err != nil || player.Handle != "alice" {
		t.Fatalf("Verify = %+v, %v", player, err)
	}
	if code := s.do(t, http.MethodPost, "/api/admin/players/token", testAdminKey, map[string]string{}, nil); code != http.StatusBadRequest {
		t.Fatalf("empty handle = %d, want 400", code)
	}
}

func TestPlayerRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	if code := s.do(t, http.MethodGet, "/api/slip", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", code)
	}
	if code := s.do(t, http.MethodGet, "/api/slip", "garbage", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d, want 401", code)
	}
}

func coinflipEntry(side, amount string) map[string]any {
	return map[string]any{
		"game_type":    "coinflip",
		"details":      map[string]any{"coinflip": map[string]any{"side": side}},
		"wager_amount": amount,
	}
}

func TestSlipFlowPlacesAndSettlesBet(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "alice")

	var added struct {
		Signal   string `json:"signal"`
		Proposal struct {
			ID string `json:"id"`
		} `json:"proposal"`
	}
	if code := s.do(t, http.MethodPost, "/api/slip/entries", tok, coinflipEntry("heads", "10"), &added); code != http.StatusOK {
		t.Fatalf("add entry = %d", code)
	}
	if added.Signal != "added" {
		t.Fatalf("signal = %q", added.Signal)
	}
	var replaced struct {
		Signal string `json:"signal"`
		Slip   struct {
			Entries []json.RawMessage `json:"entries"`
		} `json:"slip"`
	}
	s.do(t, http.MethodPost, "/api/slip/entries", tok, coinflipEntry("tails", "5"), &replaced)
	if replaced.Signal != "replaced" || len(replaced.Slip.Entries) != 1 {
		t.Fatalf("second add = %+v", replaced)
	}

	var bet wager.Bet
	if code := s.do(t, http.MethodPost, "/api/slip/submit", tok, map[string]string{"client_seed": "lucky"}, &bet); code != http.StatusCreated {
		t.Fatalf("submit slip = %d", code)
	}
	if bet.Status != wager.StatusPending || bet.ClientSeed != "lucky" || bet.ServerSeedHash == "" {
		t.Fatalf("bet = %+v", bet)
	}
	var emptied struct {
		Entries []json.RawMessage `json:"entries"`
	}
	s.do(t, http.MethodGet, "/api/slip", tok, nil, &emptied)
	if len(emptied.Entries) != 0 {
		t.Fatalf("slip not cleared after submit: %d entries", len(emptied.Entries))
	}

	playPath := fmt.Sprintf("/api/bets/%s/play", bet.ID)
	var errBody map[string]string
	if code := s.do(t, http.MethodPost, playPath, tok, nil, &errBody); code != http.StatusConflict {
		t.Fatalf("play pending = %d, want 409", code)
	}
	if errBody["error"] != wager.Code(wager.ErrNotConfirmed) {
		t.Fatalf("play pending error = %v", errBody)
	}
	fairPath := fmt.Sprintf("/api/bets/%s/fairness", bet.ID)
	if code := s.do(t, http.MethodGet, fairPath, tok, nil, nil); code != http.StatusForbidden {
		t.Fatalf("fairness before settle = %d, want 403", code)
	}

	var confirmed engine.ConfirmResult
	if code := s.do(t, http.MethodPost, "/api/admin/bets/"+bet.ID+"/confirm", testAdminKey, nil, &confirmed); code != http.StatusOK {
		t.Fatalf("confirm = %d", code)
	}
	if !confirmed.Success {
		t.Fatalf("confirm = %+v", confirmed)
	}

	var played engine.InstantResult
	if code := s.do(t, http.MethodPost, playPath, tok, nil, &played); code != http.StatusOK {
		t.Fatalf("play = %d", code)
	}
	if played.Bet.Status != wager.StatusSettled || played.Outcome.CoinSide == "" {
		t.Fatalf("played = %+v", played)
	}
	if code := s.do(t, http.MethodPost, playPath, tok, nil, nil); code != http.StatusConflict {
		t.Fatalf("replay = %d, want 409", code)
	}

	var rev struct {
		ServerSeed     string `json:"server_seed"`
		ServerSeedHash string `json:"server_seed_hash"`
	}
	if code := s.do(t, http.MethodGet, fairPath, tok, nil, &rev); code != http.StatusOK {
		t.Fatalf("fairness = %d", code)
	}
	if rev.ServerSeed == "" || rev.ServerSeedHash != bet.ServerSeedHash {
		t.Fatalf("reveal = %+v", rev)
	}
}

func TestSlipRemoveAndEmptySubmit(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "carol")
	if code := s.do(t, http.MethodPost, "/api/slip/submit", tok, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("empty submit = %d, want 400", code)
	}
	if code := s.do(t, http.MethodDelete, "/api/slip/entries/nope", tok, nil, nil); code != http.StatusNotFound {
		t.Fatalf("remove missing = %d, want 404", code)
	}
	var added struct {
		Proposal struct {
			ID string `json:"id"`
		} `json:"proposal"`
	}
	s.do(t, http.MethodPost, "/api/slip/entries", tok, coinflipEntry("heads", "1"), &added)
	if code := s.do(t, http.MethodDelete, "/api/slip/entries/"+added.Proposal.ID, tok, nil, nil); code != http.StatusOK {
		t.Fatalf("remove = %d", code)
	}
	if code := s.do(t, http.MethodDelete, "/api/slip", tok, nil, nil); code != http.StatusNoContent {
		t.Fatalf("clear = %d", code)
	}
}

func TestDirectSubmitAndOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice")
	bob := s.token(t, "bob")

	body := map[string]any{
		"entries": []any{map[string]any{
			"game_type":    "mines",
			"details":      map[string]any{"mines": map[string]any{"mine_count": 3}},
			"wager_amount": "2.50",
		}},
	}
	var bet wager.Bet
	if code := s.do(t, http.MethodPost, "/api/bets", alice, body, &bet); code != http.StatusCreated {
		t.Fatalf("submit = %d", code)
	}
	if code := s.do(t, http.MethodGet, "/api/bets/"+bet.ID, alice, nil, nil); code != http.StatusOK {
		t.Fatalf("owner get = %d", code)
	}
	if code := s.do(t, http.MethodGet, "/api/bets/"+bet.ID, bob, nil, nil); code != http.StatusNotFound {
		t.Fatalf("other player get = %d, want 404", code)
	}

	s.do(t, http.MethodPost, "/api/admin/bets/"+bet.ID+"/confirm", testAdminKey, nil, nil)
	revealPath := "/api/bets/" + bet.ID + "/reveal"
	if code := s.do(t, http.MethodPost, revealPath, alice, map[string]any{}, nil); code != http.StatusBadRequest {
		t.Fatalf("reveal without index = %d, want 400", code)
	}
	if code := s.do(t, http.MethodPost, revealPath, alice, map[string]int{"cell_index": 25}, nil); code != http.StatusBadRequest {
		t.Fatalf("reveal out of range = %d, want 400", code)
	}
	if code := s.do(t, http.MethodPost, "/api/bets/"+bet.ID+"/cashout", alice, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("cashout before reveal = %d, want 400", code)
	}
	if code := s.do(t, http.MethodPost, revealPath, alice, map[string]int{"cell_index": 0}, nil); code != http.StatusOK {
		t.Fatalf("reveal = %d", code)
	}
	if code := s.do(t, http.MethodPost, "/api/bets/"+bet.ID+"/play", alice, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("play on progressive = %d, want 400", code)
	}

	var list struct {
		Items []wager.Bet `json:"items"`
	}
	if code := s.do(t, http.MethodGet, "/api/admin/bets?player=alice", testAdminKey, nil, &list); code != http.StatusOK {
		t.Fatalf("admin list = %d", code)
	}
	if len(list.Items) != 1 || list.Items[0].ID != bet.ID {
		t.Fatalf("admin list = %+v", list.Items)
	}
	if code := s.do(t, http.MethodGet, "/api/admin/bets?status=bogus", testAdminKey, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad status filter = %d, want 400", code)
	}
}

func TestSubmitIdempotencyKeyReplaysBet(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "erin")
	submit := func(path, key string, body any) wager.Bet {
		t.Helper()
		raw, _ := json.Marshal(body)
		req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST %s = %d", path, resp.StatusCode)
		}
		var bet wager.Bet
		if err := json.NewDecoder(resp.Body).Decode(&bet); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return bet
	}
	direct := map[string]any{"entries": []any{coinflipEntry("heads", "3")}}

	first := submit("/api/bets", "k-1", direct)
	again := submit("/api/bets", "k-1", direct)
	if first.ID != again.ID {
		t.Fatalf("same key placed two bets: %s, %s", first.ID, again.ID)
	}
	if other := submit("/api/bets", "k-2", direct); other.ID == first.ID {
		t.Fatal("different key reused the bet")
	}
	if plain := submit("/api/bets", "", direct); plain.ID == first.ID {
		t.Fatal("keyless submit reused the bet")
	}

	s.do(t, http.MethodPost, "/api/slip/entries", tok, coinflipEntry("tails", "2"), nil)
	fromSlip := submit("/api/slip/submit", "slip-1", map[string]any{})
	retried := submit("/api/slip/submit", "slip-1", map[string]any{})
	if fromSlip.ID != retried.ID {
		t.Fatalf("slip retry placed a new bet: %s, %s", fromSlip.ID, retried.ID)
	}
	if code := s.do(t, http.MethodPost, "/api/slip/submit", tok, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("keyless empty submit = %d, want 400", code)
	}
}

func TestSlipSubmitRejectsReusedKeyAndKeepsSlip(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "frank")
	post := func(key string) (int, map[string]any) {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/slip/submit", bytes.NewReader([]byte("{}")))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Idempotency-Key", key)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		defer resp.Body.Close()
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp.StatusCode, body
	}

	s.do(t, http.MethodPost, "/api/slip/entries", tok, coinflipEntry("heads", "2"), nil)
	if code, _ := post("same-key"); code != http.StatusCreated {
		t.Fatalf("first submit = %d", code)
	}
	s.do(t, http.MethodPost, "/api/slip/entries", tok, coinflipEntry("tails", "7"), nil)
	code, body := post("same-key")
	if code != http.StatusUnprocessableEntity || body["error"] != "idempotency_key_reused" {
		t.Fatalf("reused key = %d %v, want 422 idempotency_key_reused", code, body)
	}
	var snap struct {
		Entries []wager.Proposal `json:"entries"`
	}
	if code := s.do(t, http.MethodGet, "/api/slip", tok, nil, &snap); code != http.StatusOK {
		t.Fatalf("get slip = %d", code)
	}
	if len(snap.Entries) != 1 || !snap.Entries[0].WagerAmount.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("slip after rejected submit = %+v", snap.Entries)
	}
}

func TestSubmitRejectsInvalidProposal(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "dave")
	body := map[string]any{"entries": []any{coinflipEntry("edge", "1")}}
	var errBody map[string]string
	if code := s.do(t, http.MethodPost, "/api/bets", tok, body, &errBody); code != http.StatusBadRequest {
		t.Fatalf("bad side = %d, want 400", code)
	}
	if errBody["error"] != wager.Code(wager.ErrInvalidParameters) || errBody["message"] == "" {
		t.Fatalf("error body = %v", errBody)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{wager.ErrInvalidParameters, http.StatusBadRequest},
		{wager.ErrInvalidMove, http.StatusBadRequest},
		{wager.ErrNotFound, http.StatusNotFound},
		{wager.ErrNotConfirmed, http.StatusConflict},
		{wager.ErrAlreadySettled, http.StatusConflict},
		{wager.ErrSessionAlreadyResolved, http.StatusConflict},
		{wager.ErrBusy, http.StatusLocked},
		{wager.ErrSeedNotYetRevealed, http.StatusForbidden},
		{wager.ErrIdempotencyKeyReused, http.StatusUnprocessableEntity},
		{fmt.Errorf("load: %w", wager.ErrNotFound), http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
