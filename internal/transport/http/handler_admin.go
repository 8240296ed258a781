package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"wager-engine/internal/auth"
	"wager-engine/internal/engine"
	"wager-engine/internal/store"
	"wager-engine/internal/wager"

	"github.com/go-chi/chi/v5"
)

type AdminHandlers struct {
	engine *engine.Engine
	store  Pinger
	tokens *auth.Tokens
}

func NewAdminHandlers(eng *engine.Engine, st Pinger, tokens *auth.Tokens) *AdminHandlers {
	return &AdminHandlers{engine: eng, store: st, tokens: tokens}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store != nil {
			if err := h.store.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) IssueToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PlayerHandle  string `json:"player_handle"`
			ContactHandle string `json:"contact_handle"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if strings.TrimSpace(body.PlayerHandle) == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		token, exp, err := h.tokens.Issue(auth.Player{Handle: body.PlayerHandle, Contact: body.ContactHandle})
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_at": exp.UTC().Format(time.RFC3339)})
	}
}

func (h *AdminHandlers) Bets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		f := store.BetFilter{PlayerHandle: r.URL.Query().Get("player")}
		if v := r.URL.Query().Get("status"); v != "" {
			status, err := wager.ParseStatus(v)
			if err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			f.Status = status
		}
		items, err := h.engine.ListBets(r.Context(), f, limit, offset)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
	}
}

func (h *AdminHandlers) Confirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.engine.ConfirmBet(r.Context(), chi.URLParam(r, "bet_id"))
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
