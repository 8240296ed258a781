package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"wager-engine/internal/betfeed"
	"wager-engine/internal/engine"
	"wager-engine/internal/slip"

	"github.com/go-chi/chi/v5"
)

type BetHandlers struct {
	engine *engine.Engine
	feed   *betfeed.Hub
}

func NewBetHandlers(eng *engine.Engine, feed *betfeed.Hub) *BetHandlers {
	return &BetHandlers{engine: eng, feed: feed}
}

// owned loads the URL's bet for the calling player and answers 404 for anyone else's.
func (h *BetHandlers) owned(w http.ResponseWriter, r *http.Request) (engine.BetView, bool) {
	player, _ := PlayerFromContext(r.Context())
	view, err := h.engine.OwnedBet(r.Context(), chi.URLParam(r, "bet_id"), player.Handle)
	if err != nil {
		writeEngineError(w, r, err)
		return engine.BetView{}, false
	}
	return view, true
}

// Submit places a bet straight from value objects, bypassing the staged slip.
func (h *BetHandlers) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, _ := PlayerFromContext(r.Context())
		var body struct {
			Entries    []slip.Entry `json:"entries"`
			ClientSeed string       `json:"client_seed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		proposals, err := slip.Proposals(h.engine.Calculator(), body.Entries)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		bet, err := h.engine.SubmitSlip(r.Context(), engine.SubmitRequest{
			PlayerHandle:  player.Handle,
			ContactHandle: player.Contact,
			ClientSeed:    body.ClientSeed,
			Entries:       proposals,
			RequestID:     r.Header.Get("Idempotency-Key"),
		})
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, bet)
	}
}

func (h *BetHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.owned(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *BetHandlers) Play() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.owned(w, r)
		if !ok {
			return
		}
		var choice engine.Choice
		if err := json.NewDecoder(r.Body).Decode(&choice); err != nil && !errors.Is(err, io.EOF) {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := h.engine.PlayInstant(r.Context(), view.Bet.ID, &choice)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *BetHandlers) Reveal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.owned(w, r)
		if !ok {
			return
		}
		var body struct {
			CellIndex *int `json:"cell_index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CellIndex == nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := h.engine.Reveal(r.Context(), view.Bet.ID, *body.CellIndex)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *BetHandlers) CashOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.owned(w, r)
		if !ok {
			return
		}
		res, err := h.engine.CashOut(r.Context(), view.Bet.ID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *BetHandlers) Fairness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.owned(w, r)
		if !ok {
			return
		}
		rev, err := h.engine.RevealFairness(r.Context(), view.Bet.ID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rev)
	}
}

func (h *BetHandlers) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.owned(w, r)
		if !ok {
			return
		}
		buf := h.feed.Ensure(view.Bet.PlayerHandle, view.Bet.ID)
		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)
		if err := betfeed.ServeSSE(w, r, buf, view.Bet.ID); err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func (h *BetHandlers) Feed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, _ := PlayerFromContext(r.Context())
		metricWSConnectionsActive.Add(1)
		defer metricWSConnectionsActive.Add(-1)
		betfeed.ServeWS(w, r, h.feed, player.Handle)
	}
}
