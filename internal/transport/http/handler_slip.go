package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"wager-engine/internal/engine"
	"wager-engine/internal/slip"
	"wager-engine/internal/wager"

	"github.com/go-chi/chi/v5"
)

// SlipHandlers stage proposals server-side per player until the slip is submitted.
type SlipHandlers struct {
	engine *engine.Engine
	book   *slip.Book
}

func NewSlipHandlers(eng *engine.Engine, book *slip.Book) *SlipHandlers {
	return &SlipHandlers{engine: eng, book: book}
}

func (h *SlipHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, _ := PlayerFromContext(r.Context())
		writeJSON(w, http.StatusOK, h.book.Snapshot(player.Handle))
	}
}

func (h *SlipHandlers) Add() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, _ := PlayerFromContext(r.Context())
		var entry slip.Entry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		p, err := entry.Proposal(h.engine.Calculator())
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		signal, snap := h.book.Add(player.Handle, p)
		writeJSON(w, http.StatusOK, map[string]any{"signal": signal, "proposal": p, "slip": snap})
	}
}

func (h *SlipHandlers) Remove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, _ := PlayerFromContext(r.Context())
		ok, snap := h.book.Remove(player.Handle, chi.URLParam(r, "proposal_id"))
		if !ok {
			WriteHTTPError(w, http.StatusNotFound, "proposal_not_found")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *SlipHandlers) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, _ := PlayerFromContext(r.Context())
		h.book.Clear(player.Handle)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *SlipHandlers) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, _ := PlayerFromContext(r.Context())
		var body struct {
			ClientSeed string `json:"client_seed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		requestID := r.Header.Get("Idempotency-Key")
		snap := h.book.Snapshot(player.Handle)
		if len(snap.Entries) == 0 {
			// a retry after a successful submit finds the slip already cleared
			if bet, err := h.engine.SubmittedBet(r.Context(), player.Handle, requestID); err == nil {
				writeJSON(w, http.StatusCreated, bet)
				return
			}
			writeEngineError(w, r, wager.ErrInvalidParameters)
			return
		}
		bet, err := h.engine.SubmitSlip(r.Context(), engine.SubmitRequest{
			PlayerHandle:  player.Handle,
			ContactHandle: player.Contact,
			ClientSeed:    body.ClientSeed,
			Entries:       snap.Entries,
			RequestID:     requestID,
		})
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		h.book.Clear(player.Handle)
		writeJSON(w, http.StatusCreated, bet)
	}
}
